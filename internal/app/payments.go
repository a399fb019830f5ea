package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sistema_hotel/internal/adapters/observability"
	"sistema_hotel/internal/domain"
)

// PaymentService authorizes card payments for pending bookings. A booking
// is charged at most once: the pending -> paid transition is the
// commit point, and a second attempt surfaces a conflict.
type PaymentService struct {
	bookings domain.BookingRepository
	mgr      *BookingService
	gateway  domain.PaymentGateway
	notifier domain.Notifier
	now      func() time.Time
}

func NewPaymentService(repo domain.BookingRepository, mgr *BookingService, gw domain.PaymentGateway, n domain.Notifier) *PaymentService {
	return &PaymentService{bookings: repo, mgr: mgr, gateway: gw, notifier: n, now: time.Now}
}

func (s *PaymentService) Charge(ctx context.Context, bookingID, userID int64, card domain.CardDetails) (domain.Payment, error) {
	b, err := s.mgr.Get(ctx, bookingID, userID, false)
	if err != nil {
		observability.ObserveBooking("pay", outcome(err))
		return domain.Payment{}, err
	}
	switch b.Status {
	case domain.StatusPaid:
		observability.ObserveBooking("pay", "rejected")
		return domain.Payment{}, fmt.Errorf("%w: booking already paid", domain.ErrConflict)
	case domain.StatusCancelled:
		observability.ObserveBooking("pay", "rejected")
		return domain.Payment{}, fmt.Errorf("%w: booking is cancelled", domain.ErrInvalidState)
	}

	if err := validateCard(card, s.now()); err != nil {
		observability.ObserveBooking("pay", "rejected")
		return domain.Payment{}, err
	}

	ref := fmt.Sprintf("bk-%d", bookingID)
	authCode, err := s.gateway.Authorize(ctx, ref, b.TotalPrice, card)
	if err != nil {
		// rejection or outage: booking state stays untouched
		observability.ObserveBooking("pay", outcome(err))
		return domain.Payment{}, err
	}

	if _, err := s.mgr.MarkPaid(ctx, bookingID); err != nil {
		// a concurrent attempt won the transition after we authorized
		observability.ObserveBooking("pay", outcome(err))
		return domain.Payment{}, err
	}

	p := domain.Payment{
		ID:        uuid.NewString(),
		BookingID: bookingID,
		AuthCode:  authCode,
		Amount:    b.TotalPrice,
		CreatedAt: s.now().UTC(),
	}
	if err := s.bookings.RecordPayment(ctx, p); err != nil {
		// charged and marked paid; losing the receipt row must not fail the payment
		log.Error().Err(err).Int64("booking", bookingID).Msg("record payment failed")
	}

	b.Status = domain.StatusPaid
	if s.notifier != nil {
		s.notifier.BookingPaid(b, p.ID)
	}
	observability.ObserveBooking("pay", "ok")
	return p, nil
}

// validateCard enforces wire-format rules before any network call:
// digits-only number of plausible length, MM/YY expiry not in the past,
// 3-digit cvv, non-empty holder name.
func validateCard(c domain.CardDetails, now time.Time) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: cardholder name is required", domain.ErrValidation)
	}
	num := strings.ReplaceAll(c.Number, " ", "")
	if !digitsOnly(num) || len(num) < 12 || len(num) > 19 {
		return fmt.Errorf("%w: card number must be 12-19 digits", domain.ErrValidation)
	}
	if !digitsOnly(c.CVV) || len(c.CVV) != 3 {
		return fmt.Errorf("%w: cvv must be 3 digits", domain.ErrValidation)
	}
	month, year, err := parseExpiry(c.Expiry)
	if err != nil {
		return err
	}
	// valid through the last day of the expiry month
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return fmt.Errorf("%w", domain.ErrCardExpired)
	}
	return nil
}

func parseExpiry(s string) (month, year int, err error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("%w: expiry must be MM/YY", domain.ErrValidation)
	}
	month, err = strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: expiry must be MM/YY", domain.ErrValidation)
	}
	yy, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: expiry must be MM/YY", domain.ErrValidation)
	}
	return month, 2000 + yy, nil
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
