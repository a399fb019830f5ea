package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sistema_hotel/internal/domain"
)

// HotelService serves the catalog plus its two satellite resources,
// reviews and contact messages. Reads are cache-aside; every write
// invalidates the keys it can affect.
type HotelService struct {
	repo     domain.HotelRepository
	contacts domain.ContactRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewHotelService(r domain.HotelRepository, c domain.ContactRepository, cache domain.Cache, ttl time.Duration) *HotelService {
	return &HotelService{repo: r, contacts: c, cache: cache, cacheTTL: ttl}
}

func hotelKey(id int64) string    { return fmt.Sprintf("hotel:%d", id) }
func reviewsKey(id int64) string  { return fmt.Sprintf("reviews:%d", id) }
const hotelsListKey = "hotels:all"

func (s *HotelService) Get(ctx context.Context, id int64) (domain.Hotel, error) {
	key := hotelKey(id)
	var h domain.Hotel
	if ok, _ := s.cache.Get(ctx, key, &h); ok {
		return h, nil
	}
	h, err := s.repo.GetHotel(ctx, id)
	if err != nil {
		return domain.Hotel{}, err
	}
	_ = s.cache.Set(ctx, key, h, int(s.cacheTTL.Seconds()))
	return h, nil
}

func (s *HotelService) List(ctx context.Context) ([]domain.Hotel, error) {
	var out []domain.Hotel
	if ok, _ := s.cache.Get(ctx, hotelsListKey, &out); ok {
		return out, nil
	}
	out, err := s.repo.ListHotels(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, hotelsListKey, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// Search goes straight to the repository; the filter space is too wide
// to cache usefully.
func (s *HotelService) Search(ctx context.Context, city, name string) ([]domain.Hotel, error) {
	return s.repo.SearchHotels(ctx, strings.TrimSpace(city), strings.TrimSpace(name))
}

func (s *HotelService) Create(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	if err := validateHotel(h); err != nil {
		return domain.Hotel{}, err
	}
	created, err := s.repo.CreateHotel(ctx, h)
	if err != nil {
		return domain.Hotel{}, err
	}
	_ = s.cache.Del(ctx, hotelsListKey)
	return created, nil
}

func (s *HotelService) Update(ctx context.Context, id int64, p domain.HotelPatch) (domain.Hotel, error) {
	if p.Stars != nil && (*p.Stars < 1 || *p.Stars > 5) {
		return domain.Hotel{}, fmt.Errorf("%w: stars must be 1-5", domain.ErrValidation)
	}
	if p.PricePerNight != nil && *p.PricePerNight <= 0 {
		return domain.Hotel{}, fmt.Errorf("%w: price_per_night must be positive", domain.ErrValidation)
	}
	h, err := s.repo.UpdateHotel(ctx, id, p)
	if err != nil {
		return domain.Hotel{}, err
	}
	_ = s.cache.Del(ctx, hotelKey(id))
	_ = s.cache.Del(ctx, hotelsListKey)
	return h, nil
}

func (s *HotelService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteHotel(ctx, id); err != nil {
		return err
	}
	_ = s.cache.Del(ctx, hotelKey(id))
	_ = s.cache.Del(ctx, hotelsListKey)
	return nil
}

func validateHotel(h domain.Hotel) error {
	switch {
	case strings.TrimSpace(h.Name) == "":
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	case strings.TrimSpace(h.City) == "":
		return fmt.Errorf("%w: city is required", domain.ErrValidation)
	case h.Stars < 1 || h.Stars > 5:
		return fmt.Errorf("%w: stars must be 1-5", domain.ErrValidation)
	case h.PricePerNight <= 0:
		return fmt.Errorf("%w: price_per_night must be positive", domain.ErrValidation)
	}
	return nil
}

// ---- reviews ----

func (s *HotelService) AddReview(ctx context.Context, r domain.Review) (domain.Review, error) {
	if len(strings.TrimSpace(r.Content)) < 10 {
		return domain.Review{}, fmt.Errorf("%w: review must be at least 10 characters", domain.ErrValidation)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return domain.Review{}, fmt.Errorf("%w: rating must be 1-5", domain.ErrValidation)
	}
	// the hotel must exist; reuse the cached read
	if _, err := s.Get(ctx, r.HotelID); err != nil {
		return domain.Review{}, err
	}
	created, err := s.repo.AddReview(ctx, r)
	if err != nil {
		return domain.Review{}, err
	}
	_ = s.cache.Del(ctx, reviewsKey(r.HotelID))
	return created, nil
}

func (s *HotelService) ListReviews(ctx context.Context, hotelID int64) ([]domain.Review, error) {
	key := reviewsKey(hotelID)
	var out []domain.Review
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	out, err := s.repo.ListHotelReviews(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// ---- contact messages ----

func (s *HotelService) SubmitMessage(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error) {
	switch {
	case strings.TrimSpace(m.Name) == "":
		return domain.ContactMessage{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	case !strings.Contains(m.Email, "@"):
		return domain.ContactMessage{}, fmt.Errorf("%w: valid email is required", domain.ErrValidation)
	case strings.TrimSpace(m.Message) == "":
		return domain.ContactMessage{}, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	m.IsRead = false
	return s.contacts.AddMessage(ctx, m)
}

func (s *HotelService) ListMessages(ctx context.Context) ([]domain.ContactMessage, error) {
	return s.contacts.ListMessages(ctx)
}

// MarkMessageRead is idempotent: marking an already-read message returns
// it unchanged.
func (s *HotelService) MarkMessageRead(ctx context.Context, id int64) (domain.ContactMessage, error) {
	return s.contacts.MarkRead(ctx, id)
}
