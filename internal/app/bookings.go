package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sistema_hotel/internal/adapters/observability"
	"sistema_hotel/internal/domain"
)

// BookingService owns the reservation lifecycle: availability reads,
// creation, cancellation, payment transition and the admin rollup.
type BookingService struct {
	repo     domain.BookingRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewBookingService(r domain.BookingRepository, c domain.Cache, ttl time.Duration) *BookingService {
	return &BookingService{repo: r, cache: c, cacheTTL: ttl}
}

func occupiedKey(hotelID int64) string { return fmt.Sprintf("occupied:%d", hotelID) }

// Create reserves [checkIn, checkOut) for userID. The overlap pre-check
// against the cached index fails fast with a friendly message; the
// authoritative check happens again inside the repository transaction.
func (s *BookingService) Create(ctx context.Context, userID, hotelID int64, checkIn, checkOut string) (domain.Booking, error) {
	in, err := domain.ParseDate(checkIn)
	if err != nil {
		return domain.Booking{}, err
	}
	out, err := domain.ParseDate(checkOut)
	if err != nil {
		return domain.Booking{}, err
	}
	if !out.After(in) {
		observability.ObserveBooking("create", "rejected")
		return domain.Booking{}, fmt.Errorf("%w: check-out must be after check-in", domain.ErrValidation)
	}

	want := domain.DateRange{From: in, To: out}
	if ranges, err := s.OccupiedRanges(ctx, hotelID); err == nil {
		for _, r := range ranges {
			if r.Overlaps(want) {
				observability.ObserveBooking("create", "rejected")
				return domain.Booking{}, fmt.Errorf("%w: dates already booked", domain.ErrConflict)
			}
		}
	}

	b, err := s.repo.CreateBooking(ctx, domain.Booking{
		HotelID:  hotelID,
		UserID:   userID,
		CheckIn:  in,
		CheckOut: out,
	})
	if err != nil {
		observability.ObserveBooking("create", outcome(err))
		return domain.Booking{}, err
	}
	_ = s.cache.Del(ctx, occupiedKey(hotelID))
	observability.ObserveBooking("create", "ok")
	return b, nil
}

func (s *BookingService) OccupiedRanges(ctx context.Context, hotelID int64) ([]domain.DateRange, error) {
	key := occupiedKey(hotelID)
	var out []domain.DateRange
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	out, err := s.repo.OccupiedRanges(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// Get returns a booking visible to the caller: its owner, or an admin.
// Anything else reads as not found so booking ids don't leak.
func (s *BookingService) Get(ctx context.Context, id, userID int64, admin bool) (domain.Booking, error) {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if b.UserID != userID && !admin {
		return domain.Booking{}, fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	return b, nil
}

func (s *BookingService) MyBookings(ctx context.Context, userID int64) ([]domain.BookingView, error) {
	return s.repo.ListUserBookings(ctx, userID)
}

func (s *BookingService) All(ctx context.Context) ([]domain.BookingView, error) {
	return s.repo.ListAllBookings(ctx)
}

// Cancel moves a booking to cancelled. Cancelling an already-cancelled
// booking is a no-op returning the booking unchanged, so a retried PATCH
// is harmless. Pending and paid bookings can both be cancelled.
func (s *BookingService) Cancel(ctx context.Context, id, userID int64, admin bool) (domain.Booking, error) {
	b, err := s.Get(ctx, id, userID, admin)
	if err != nil {
		observability.ObserveBooking("cancel", outcome(err))
		return domain.Booking{}, err
	}
	if b.Status == domain.StatusCancelled {
		observability.ObserveBooking("cancel", "ok")
		return b, nil
	}

	ok, err := s.repo.TransitionStatus(ctx, id, b.Status, domain.StatusCancelled)
	if err != nil {
		observability.ObserveBooking("cancel", "error")
		return domain.Booking{}, err
	}
	if !ok {
		// lost a race; re-read and treat an already-cancelled row as success
		b, err = s.repo.GetBooking(ctx, id)
		if err != nil {
			return domain.Booking{}, err
		}
		if b.Status != domain.StatusCancelled {
			observability.ObserveBooking("cancel", "rejected")
			return domain.Booking{}, fmt.Errorf("%w: booking is %s", domain.ErrInvalidState, b.Status)
		}
		observability.ObserveBooking("cancel", "ok")
		_ = s.cache.Del(ctx, occupiedKey(b.HotelID))
		return b, nil
	}

	b.Status = domain.StatusCancelled
	_ = s.cache.Del(ctx, occupiedKey(b.HotelID))
	observability.ObserveBooking("cancel", "ok")
	return b, nil
}

// MarkPaid transitions pending -> paid. A booking that is already paid
// reports a conflict (double payment); any other state is an illegal
// transition.
func (s *BookingService) MarkPaid(ctx context.Context, id int64) (domain.Booking, error) {
	ok, err := s.repo.TransitionStatus(ctx, id, domain.StatusPending, domain.StatusPaid)
	if err != nil {
		return domain.Booking{}, err
	}
	b, gerr := s.repo.GetBooking(ctx, id)
	if gerr != nil {
		return domain.Booking{}, gerr
	}
	if !ok {
		switch b.Status {
		case domain.StatusPaid:
			return domain.Booking{}, fmt.Errorf("%w: booking already paid", domain.ErrConflict)
		default:
			return domain.Booking{}, fmt.Errorf("%w: booking is %s", domain.ErrInvalidState, b.Status)
		}
	}
	return b, nil
}

// Stats aggregates over the full booking set. Cancelled bookings count
// toward neither the revenue sums nor total_reservations.
func (s *BookingService) Stats(ctx context.Context) (domain.Stats, error) {
	all, err := s.repo.ListAllBookings(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	var st domain.Stats
	for _, b := range all {
		switch b.Status {
		case domain.StatusPaid:
			st.TotalCollected += b.TotalPrice
			st.TotalPotential += b.TotalPrice
			st.TotalReservations++
		case domain.StatusPending:
			st.TotalPotential += b.TotalPrice
			st.TotalReservations++
		}
	}
	return st, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidState):
		return "rejected"
	default:
		return "error"
	}
}
