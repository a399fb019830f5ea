package domain

import "context"

type BookingRepository interface {
	// CreateBooking inserts b with status pending. The overlap check and
	// the insert run inside one transaction holding the hotel row lock, so
	// two concurrent requests for the same hotel cannot both pass the check.
	CreateBooking(ctx context.Context, b Booking) (Booking, error)
	GetBooking(ctx context.Context, id int64) (Booking, error)
	ListUserBookings(ctx context.Context, userID int64) ([]BookingView, error)
	ListAllBookings(ctx context.Context) ([]BookingView, error)
	OccupiedRanges(ctx context.Context, hotelID int64) ([]DateRange, error)
	// TransitionStatus moves a booking from one exact status to another and
	// reports whether a row actually changed. The guard makes paid/cancel
	// transitions at-most-once under concurrency.
	TransitionStatus(ctx context.Context, id int64, from, to Status) (bool, error)
	RecordPayment(ctx context.Context, p Payment) error
}

type HotelRepository interface {
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	ListHotels(ctx context.Context) ([]Hotel, error)
	SearchHotels(ctx context.Context, city, name string) ([]Hotel, error)
	CreateHotel(ctx context.Context, h Hotel) (Hotel, error)
	UpdateHotel(ctx context.Context, id int64, p HotelPatch) (Hotel, error)
	DeleteHotel(ctx context.Context, id int64) error

	AddReview(ctx context.Context, r Review) (Review, error)
	ListHotelReviews(ctx context.Context, hotelID int64) ([]Review, error)
}

type ContactRepository interface {
	AddMessage(ctx context.Context, m ContactMessage) (ContactMessage, error)
	ListMessages(ctx context.Context) ([]ContactMessage, error)
	// MarkRead flips is_read to true. Already-read messages are a no-op.
	MarkRead(ctx context.Context, id int64) (ContactMessage, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type CardDetails struct {
	Name   string
	Number string // digits only
	Expiry string // MM/YY
	CVV    string
}

// PaymentGateway authorizes a charge against the card network. On success
// it returns the network authorization code; rejections come back as
// ErrCardDeclined / ErrCardExpired wrapped errors.
type PaymentGateway interface {
	Authorize(ctx context.Context, ref string, amount Cents, card CardDetails) (string, error)
}

// Notifier delivers booking confirmations out-of-band. Implementations
// must not block the caller.
type Notifier interface {
	BookingPaid(b Booking, receipt string)
}

// Read models

type BookingView struct {
	Booking
	HotelName string
	HotelCity string
}

// HotelPatch carries the editable display fields; nil means "leave as is".
type HotelPatch struct {
	Name          *string
	Description   *string
	Address       *string
	City          *string
	Stars         *int
	PricePerNight *Cents
}
