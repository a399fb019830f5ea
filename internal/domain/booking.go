package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle state of a booking. Transitions:
// pending -> paid, pending -> cancelled, paid -> cancelled.
// cancelled is terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusPaid || s == StatusCancelled
}

// CanTransition reports whether s -> to is a legal lifecycle move.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusPaid || to == StatusCancelled
	case StatusPaid:
		return to == StatusCancelled
	default:
		return false
	}
}

type Booking struct {
	ID         int64
	HotelID    int64
	UserID     int64
	CheckIn    time.Time // date, UTC midnight
	CheckOut   time.Time // date, UTC midnight; strictly after CheckIn
	Status     Status
	TotalPrice Cents
	CreatedAt  time.Time
}

func (b Booking) Range() DateRange { return DateRange{From: b.CheckIn, To: b.CheckOut} }

// Nights is the length of the stay; check-out day is not slept.
func (b Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn) / (24 * time.Hour))
}

// DateRange is a half-open [From, To) interval of nights.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Overlaps reports whether two half-open ranges share at least one night.
// Adjacent ranges (one guest's check-out day is another's check-in day)
// do not overlap: the room is handed over in the morning.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.From.Before(o.To) && o.From.Before(r.To)
}

const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", ErrValidation, s)
	}
	return t.UTC(), nil
}

// Cents is a money amount in hundredths of the display currency.
// It marshals as a 2-decimal string, matching how the DECIMAL column
// travels over the wire.
type Cents int64

func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

func (c *Cents) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := ParseCents(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCents accepts "150", "150.5" or "150.00" style decimal strings.
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac := s, "0"
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	v := w*100 + f
	if neg {
		v = -v
	}
	return Cents(v), nil
}

// Payment is the persisted receipt for a successful authorization.
type Payment struct {
	ID        string // uuid
	BookingID int64
	AuthCode  string
	Amount    Cents
	CreatedAt time.Time
}

// Stats is the admin revenue/count rollup over the full booking set.
// Cancelled bookings contribute to neither the sums nor the count.
type Stats struct {
	TotalCollected    Cents
	TotalPotential    Cents
	TotalReservations int
}
