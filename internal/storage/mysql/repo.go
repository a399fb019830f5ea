package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"sistema_hotel/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valCents(p *domain.Cents) any {
	if p == nil {
		return nil
	}
	return p.String()
}

// fkRestrict is MySQL error 1451: row is referenced by a child table.
func fkRestrict(err error) bool {
	var me *driver.MySQLError
	return errors.As(err, &me) && me.Number == 1451
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- bookings ----

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Booking{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var priceStr string
	if err := tx.QueryRowContext(ctx, lockHotelForBookingSQL, b.HotelID).Scan(&priceStr); err != nil {
		if err == sql.ErrNoRows {
			return domain.Booking{}, fmt.Errorf("%w: hotel %d", domain.ErrNotFound, b.HotelID)
		}
		return domain.Booking{}, err
	}
	price, err := domain.ParseCents(priceStr)
	if err != nil {
		return domain.Booking{}, err
	}

	var overlapping int
	if err := tx.QueryRowContext(ctx, countOverlapsSQL,
		b.HotelID, b.CheckOut, b.CheckIn,
	).Scan(&overlapping); err != nil {
		return domain.Booking{}, err
	}
	if overlapping > 0 {
		return domain.Booking{}, fmt.Errorf("%w: dates already booked", domain.ErrConflict)
	}

	b.Status = domain.StatusPending
	b.TotalPrice = domain.Cents(int64(b.Nights())) * price
	res, err := tx.ExecContext(ctx, insertBookingSQL,
		b.HotelID, b.UserID, b.CheckIn, b.CheckOut, b.TotalPrice.String(),
	)
	if err != nil {
		return domain.Booking{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Booking{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Booking{}, err
	}

	b.ID = id
	b.CreatedAt = time.Now().UTC()
	return b, nil
}

func (r *Repo) GetBooking(ctx context.Context, id int64) (domain.Booking, error) {
	var b domain.Booking
	var status string
	var price string
	err := r.db.QueryRowContext(ctx, getBookingSQL, id).Scan(
		&b.ID, &b.HotelID, &b.UserID, &b.CheckIn, &b.CheckOut, &status, &price, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Booking{}, fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Booking{}, err
	}
	b.Status = domain.Status(status)
	if b.TotalPrice, err = domain.ParseCents(price); err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

func (r *Repo) ListUserBookings(ctx context.Context, userID int64) ([]domain.BookingView, error) {
	return r.scanBookingViews(ctx, listUserBookingsSQL, userID)
}

func (r *Repo) ListAllBookings(ctx context.Context) ([]domain.BookingView, error) {
	return r.scanBookingViews(ctx, listAllBookingsSQL)
}

func (r *Repo) scanBookingViews(ctx context.Context, q string, args ...any) ([]domain.BookingView, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BookingView
	for rows.Next() {
		var v domain.BookingView
		var status, price string
		if err := rows.Scan(
			&v.ID, &v.HotelID, &v.UserID, &v.CheckIn, &v.CheckOut, &status, &price, &v.CreatedAt,
			&v.HotelName, &v.HotelCity,
		); err != nil {
			return nil, err
		}
		v.Status = domain.Status(status)
		if v.TotalPrice, err = domain.ParseCents(price); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *Repo) OccupiedRanges(ctx context.Context, hotelID int64) ([]domain.DateRange, error) {
	rows, err := r.db.QueryContext(ctx, occupiedRangesSQL, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DateRange
	for rows.Next() {
		var dr domain.DateRange
		if err := rows.Scan(&dr.From, &dr.To); err != nil {
			return nil, err
		}
		out = append(out, dr)
	}
	return out, rows.Err()
}

func (r *Repo) TransitionStatus(ctx context.Context, id int64, from, to domain.Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, transitionStatusSQL, string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repo) RecordPayment(ctx context.Context, p domain.Payment) error {
	_, err := r.db.ExecContext(ctx, insertPaymentSQL, p.ID, p.BookingID, p.AuthCode, p.Amount.String())
	return err
}

// ---- hotels ----

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Hotel{}, fmt.Errorf("%w: hotel %d", domain.ErrNotFound, id)
	}
	return h, err
}

func (r *Repo) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	return r.scanHotels(ctx, listHotelsSQL)
}

func (r *Repo) SearchHotels(ctx context.Context, city, name string) ([]domain.Hotel, error) {
	return r.scanHotels(ctx, searchHotelsSQL, city, name)
}

func (r *Repo) CreateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	res, err := r.db.ExecContext(ctx, insertHotelSQL,
		h.Name, h.Description, h.Address, h.City, h.Stars, h.PricePerNight.String(),
	)
	if err != nil {
		return domain.Hotel{}, err
	}
	if h.ID, err = res.LastInsertId(); err != nil {
		return domain.Hotel{}, err
	}
	return h, nil
}

func (r *Repo) UpsertHotel(ctx context.Context, h domain.Hotel) error {
	_, err := r.db.ExecContext(ctx, upsertHotelSQL,
		h.ID, h.Name, h.Description, h.Address, h.City, h.Stars, h.PricePerNight.String(),
	)
	return err
}

func (r *Repo) UpdateHotel(ctx context.Context, id int64, p domain.HotelPatch) (domain.Hotel, error) {
	if _, err := r.db.ExecContext(ctx, updateHotelSQL,
		valStr(p.Name), valStr(p.Description), valStr(p.Address), valStr(p.City),
		valInt(p.Stars), valCents(p.PricePerNight), id,
	); err != nil {
		return domain.Hotel{}, err
	}
	// RowsAffected is 0 both for a missing row and a no-change patch, so
	// re-read to distinguish.
	return r.GetHotel(ctx, id)
}

func (r *Repo) DeleteHotel(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteHotelSQL, id)
	if err != nil {
		if fkRestrict(err) {
			return fmt.Errorf("%w: hotel %d has bookings", domain.ErrConflict, id)
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: hotel %d", domain.ErrNotFound, id)
	}
	return nil
}

func scanHotel(row *sql.Row) (domain.Hotel, error) {
	var h domain.Hotel
	var price string
	if err := row.Scan(&h.ID, &h.Name, &h.Description, &h.Address, &h.City, &h.Stars, &price); err != nil {
		return domain.Hotel{}, err
	}
	var err error
	h.PricePerNight, err = domain.ParseCents(price)
	return h, err
}

func (r *Repo) scanHotels(ctx context.Context, q string, args ...any) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		var h domain.Hotel
		var price string
		if err := rows.Scan(&h.ID, &h.Name, &h.Description, &h.Address, &h.City, &h.Stars, &price); err != nil {
			return nil, err
		}
		if h.PricePerNight, err = domain.ParseCents(price); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ---- reviews ----

func (r *Repo) AddReview(ctx context.Context, rv domain.Review) (domain.Review, error) {
	res, err := r.db.ExecContext(ctx, insertReviewSQL, rv.HotelID, rv.UserID, rv.Content, rv.Rating)
	if err != nil {
		return domain.Review{}, err
	}
	if rv.ID, err = res.LastInsertId(); err != nil {
		return domain.Review{}, err
	}
	rv.CreatedAt = time.Now().UTC()
	return rv, nil
}

func (r *Repo) ListHotelReviews(ctx context.Context, hotelID int64) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, listHotelReviewsSQL, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.HotelID, &rv.UserID, &rv.Content, &rv.Rating, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// ---- contacts ----

func (r *Repo) AddMessage(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error) {
	res, err := r.db.ExecContext(ctx, insertContactSQL, m.Name, m.Email, m.Subject, m.Message)
	if err != nil {
		return domain.ContactMessage{}, err
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return domain.ContactMessage{}, err
	}
	m.CreatedAt = time.Now().UTC()
	return m, nil
}

func (r *Repo) ListMessages(ctx context.Context) ([]domain.ContactMessage, error) {
	rows, err := r.db.QueryContext(ctx, listContactsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ContactMessage
	for rows.Next() {
		var m domain.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) MarkRead(ctx context.Context, id int64) (domain.ContactMessage, error) {
	if _, err := r.db.ExecContext(ctx, markContactReadSQL, id); err != nil {
		return domain.ContactMessage{}, err
	}
	var m domain.ContactMessage
	err := r.db.QueryRowContext(ctx, getContactSQL, id).Scan(
		&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.IsRead, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.ContactMessage{}, fmt.Errorf("%w: message %d", domain.ErrNotFound, id)
	}
	return m, err
}
