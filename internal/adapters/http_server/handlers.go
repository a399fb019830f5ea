package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"sistema_hotel/internal/adapters/auth"
	"sistema_hotel/internal/app"
	"sistema_hotel/internal/domain"
)

type Handlers struct {
	Bookings *app.BookingService
	Payments *app.PaymentService
	Hotels   *app.HotelService
	Tokens   *auth.Tokens
}

func (s *Server) MountHandlers(h *Handlers) {
	authed := RequireAuth(h.Tokens)

	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/hotels", func(r chi.Router) {
		r.Get("/", h.listHotels)
		r.Get("/search", h.searchHotels)
		r.Get("/{id}", h.getHotel)
		r.Get("/{id}/reviews", h.listReviews)

		r.Group(func(r chi.Router) {
			r.Use(authed, RequireAdmin)
			r.Post("/", h.createHotel)
			r.Patch("/{id}", h.updateHotel)
			r.Delete("/{id}", h.deleteHotel)
		})
	})

	s.mux.Route("/bookings", func(r chi.Router) {
		r.Get("/occupied/{hotelID}", h.occupied)

		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Post("/", h.createBooking)
			r.Get("/my-bookings", h.myBookings)
			r.Get("/{id}", h.getBooking)
			r.Patch("/{id}/cancel", h.cancelBooking)
		})

		r.Group(func(r chi.Router) {
			r.Use(authed, RequireAdmin)
			r.Get("/all", h.allBookings)
			r.Get("/admin/stats", h.stats)
		})
	})

	s.mux.With(authed).Post("/payments/{bookingID}", h.pay)
	s.mux.With(authed).Post("/reviews", h.createReview)

	s.mux.Route("/contacts", func(r chi.Router) {
		r.Post("/", h.submitContact)

		r.Group(func(r chi.Router) {
			r.Use(authed, RequireAdmin)
			r.Get("/", h.listContacts)
			r.Patch("/{id}/read", h.markContactRead)
		})
	})
}

// ---- wire types ----

type apiError struct {
	Message string `json:"message"`
}

type bookingJSON struct {
	ID         int64        `json:"id"`
	HotelID    int64        `json:"hotelId"`
	UserID     int64        `json:"userId"`
	CheckIn    string       `json:"check_in"`
	CheckOut   string       `json:"check_out"`
	Status     string       `json:"status"`
	TotalPrice domain.Cents `json:"total_price"`
	CreatedAt  time.Time    `json:"createdAt"`
	Hotel      *hotelRef    `json:"hotel,omitempty"`
}

type hotelRef struct {
	Name string `json:"name"`
	City string `json:"city"`
}

func toBookingJSON(b domain.Booking) bookingJSON {
	return bookingJSON{
		ID:         b.ID,
		HotelID:    b.HotelID,
		UserID:     b.UserID,
		CheckIn:    b.CheckIn.Format(domain.DateLayout),
		CheckOut:   b.CheckOut.Format(domain.DateLayout),
		Status:     string(b.Status),
		TotalPrice: b.TotalPrice,
		CreatedAt:  b.CreatedAt,
	}
}

func toBookingViewsJSON(vs []domain.BookingView) []bookingJSON {
	out := make([]bookingJSON, 0, len(vs))
	for _, v := range vs {
		j := toBookingJSON(v.Booking)
		j.Hotel = &hotelRef{Name: v.HotelName, City: v.HotelCity}
		out = append(out, j)
	}
	return out
}

type rangeJSON struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type hotelJSON struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Address       string       `json:"address"`
	City          string       `json:"city"`
	Stars         int          `json:"stars"`
	PricePerNight domain.Cents `json:"price_per_night"`
}

func toHotelJSON(h domain.Hotel) hotelJSON {
	return hotelJSON{
		ID: h.ID, Name: h.Name, Description: h.Description,
		Address: h.Address, City: h.City, Stars: h.Stars, PricePerNight: h.PricePerNight,
	}
}

func toHotelsJSON(hs []domain.Hotel) []hotelJSON {
	out := make([]hotelJSON, 0, len(hs))
	for _, h := range hs {
		out = append(out, toHotelJSON(h))
	}
	return out
}

type reviewJSON struct {
	ID        int64     `json:"id"`
	HotelID   int64     `json:"hotelId"`
	UserID    int64     `json:"userId"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

type contactJSON struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"createdAt"`
}

func toContactJSON(m domain.ContactMessage) contactJSON {
	return contactJSON{ID: m.ID, Name: m.Name, Email: m.Email, Subject: m.Subject,
		Message: m.Message, IsRead: m.IsRead, CreatedAt: m.CreatedAt}
}

type statsJSON struct {
	Revenue struct {
		TotalCollected domain.Cents `json:"total_collected"`
		TotalPotential domain.Cents `json:"total_potential"`
	} `json:"revenue"`
	Counts struct {
		TotalReservations int `json:"total_reservations"`
	} `json:"counts"`
}

// ---- response helpers ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Message: msg})
}

// writeError maps the domain error taxonomy onto status classes; anything
// unrecognized is a 500 with a generic message.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAuth):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidState):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrCardDeclined), errors.Is(err, domain.ErrCardExpired):
		writeMessage(w, http.StatusPaymentRequired, err.Error())
	default:
		log.Error().Err(err).Msg("unexpected handler error")
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive number")
	}
	return id, nil
}

// ---- hotel handlers ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	hs, err := h.Hotels.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHotelsJSON(hs))
}

func (h *Handlers) searchHotels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hs, err := h.Hotels.Search(r.Context(), q.Get("city"), q.Get("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHotelsJSON(hs))
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	hotel, err := h.Hotels.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHotelJSON(hotel))
}

type hotelRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	Stars         int             `json:"stars"`
	PricePerNight json.RawMessage `json:"price_per_night"` // number or string
}

func parsePrice(raw json.RawMessage) (domain.Cents, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	var c domain.Cents
	if err := c.UnmarshalJSON(raw); err != nil {
		return 0, err
	}
	return c, nil
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var req hotelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	price, err := parsePrice(req.PricePerNight)
	if err != nil {
		writeError(w, err)
		return
	}
	hotel, err := h.Hotels.Create(r.Context(), domain.Hotel{
		Name: req.Name, Description: req.Description, Address: req.Address,
		City: req.City, Stars: req.Stars, PricePerNight: price,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHotelJSON(hotel))
}

type hotelPatchRequest struct {
	Name          *string         `json:"name"`
	Description   *string         `json:"description"`
	Address       *string         `json:"address"`
	City          *string         `json:"city"`
	Stars         *int            `json:"stars"`
	PricePerNight json.RawMessage `json:"price_per_night"`
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	var req hotelPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	patch := domain.HotelPatch{
		Name: req.Name, Description: req.Description,
		Address: req.Address, City: req.City, Stars: req.Stars,
	}
	if len(req.PricePerNight) > 0 {
		price, err := parsePrice(req.PricePerNight)
		if err != nil {
			writeError(w, err)
			return
		}
		patch.PricePerNight = &price
	}
	hotel, err := h.Hotels.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toHotelJSON(hotel))
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Hotels.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// ---- booking handlers ----

func (h *Handlers) occupied(w http.ResponseWriter, r *http.Request) {
	hotelID, err := pathID(r, "hotelID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	ranges, err := h.Bookings.OccupiedRanges(r.Context(), hotelID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]rangeJSON, 0, len(ranges))
	for _, dr := range ranges {
		out = append(out, rangeJSON{From: dr.From.Format(domain.DateLayout), To: dr.To.Format(domain.DateLayout)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	p, _ := principal(r)
	var req struct {
		HotelID  int64  `json:"hotelId"`
		CheckIn  string `json:"checkIn"`
		CheckOut string `json:"checkOut"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	b, err := h.Bookings.Create(r.Context(), p.UserID, req.HotelID, req.CheckIn, req.CheckOut)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingJSON(b))
}

func (h *Handlers) myBookings(w http.ResponseWriter, r *http.Request) {
	p, _ := principal(r)
	views, err := h.Bookings.MyBookings(r.Context(), p.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingViewsJSON(views))
}

func (h *Handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	p, _ := principal(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.Bookings.Get(r.Context(), id, p.UserID, p.IsAdmin())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingJSON(b))
}

func (h *Handlers) cancelBooking(w http.ResponseWriter, r *http.Request) {
	p, _ := principal(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.Bookings.Cancel(r.Context(), id, p.UserID, p.IsAdmin())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingJSON(b))
}

func (h *Handlers) allBookings(w http.ResponseWriter, r *http.Request) {
	views, err := h.Bookings.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingViewsJSON(views))
}

func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Bookings.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var out statsJSON
	out.Revenue.TotalCollected = st.TotalCollected
	out.Revenue.TotalPotential = st.TotalPotential
	out.Counts.TotalReservations = st.TotalReservations
	writeJSON(w, http.StatusOK, out)
}

// ---- payment handler ----

func (h *Handlers) pay(w http.ResponseWriter, r *http.Request) {
	p, _ := principal(r)
	bookingID, err := pathID(r, "bookingID")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Name   string `json:"name"`
		Number string `json:"number"`
		Expiry string `json:"expiry"`
		CVV    string `json:"cvv"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	receipt, err := h.Payments.Charge(r.Context(), bookingID, p.UserID, domain.CardDetails{
		Name: req.Name, Number: req.Number, Expiry: req.Expiry, CVV: req.CVV,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"receipt_id": receipt.ID,
		"amount":     receipt.Amount,
	})
}

// ---- review handlers ----

func (h *Handlers) createReview(w http.ResponseWriter, r *http.Request) {
	p, _ := principal(r)
	var req struct {
		HotelID int64  `json:"hotelId"`
		Content string `json:"content"`
		Rating  int    `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rv, err := h.Hotels.AddReview(r.Context(), domain.Review{
		HotelID: req.HotelID, UserID: p.UserID, Content: req.Content, Rating: req.Rating,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reviewJSON{
		ID: rv.ID, HotelID: rv.HotelID, UserID: rv.UserID,
		Content: rv.Content, Rating: rv.Rating, CreatedAt: rv.CreatedAt,
	})
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	rvs, err := h.Hotels.ListReviews(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]reviewJSON, 0, len(rvs))
	for _, rv := range rvs {
		out = append(out, reviewJSON{
			ID: rv.ID, HotelID: rv.HotelID, UserID: rv.UserID,
			Content: rv.Content, Rating: rv.Rating, CreatedAt: rv.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- contact handlers ----

func (h *Handlers) submitContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	m, err := h.Hotels.SubmitMessage(r.Context(), domain.ContactMessage{
		Name: req.Name, Email: req.Email, Subject: req.Subject, Message: req.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContactJSON(m))
}

func (h *Handlers) listContacts(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Hotels.ListMessages(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]contactJSON, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toContactJSON(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) markContactRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.Hotels.MarkMessageRead(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContactJSON(m))
}
