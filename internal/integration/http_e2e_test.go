//go:build integration || !unit

package integration

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"sistema_hotel/internal/adapters/auth"
	"sistema_hotel/internal/adapters/gateway"
	httpserver "sistema_hotel/internal/adapters/http_server"
	"sistema_hotel/internal/adapters/notify"
	redisad "sistema_hotel/internal/adapters/redis"
	"sistema_hotel/internal/app"
	mysqlrepo "sistema_hotel/internal/storage/mysql"
)

// ---------- helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		c.t.Fatalf("read body: %v", err)
	}
	return res, raw
}

func (c *client) decode(raw []byte, v any) {
	c.t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		c.t.Fatalf("decode %s: %v", string(raw), err)
	}
}

// ---------- the test ----------

func TestHTTP_EndToEnd_BookingFlow(t *testing.T) {
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=reserva",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "reserva")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	// Full stack: real repo, in-memory redis, simulated gateway.
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	repo := mysqlrepo.New(db)
	mailer := notify.New(2)
	t.Cleanup(mailer.Close)

	bookings := app.NewBookingService(repo, cache, time.Minute)
	payments := app.NewPaymentService(repo, bookings, gateway.NewSimulator(), mailer)
	hotels := app.NewHotelService(repo, repo, cache, time.Minute)

	tokens := auth.New("e2e-secret", 0)

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{
		Bookings: bookings, Payments: payments, Hotels: hotels, Tokens: tokens,
	})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	adminTok, err := tokens.Issue(1, auth.RoleAdmin)
	if err != nil {
		t.Fatalf("issue admin token: %v", err)
	}
	userTok, err := tokens.Issue(42, "user")
	if err != nil {
		t.Fatalf("issue user token: %v", err)
	}

	anon := &client{t: t, base: ts.URL}
	admin := &client{t: t, base: ts.URL, token: adminTok}
	user := &client{t: t, base: ts.URL, token: userTok}

	// Admin creates a hotel; price accepted as a decimal string.
	res, raw := admin.do("POST", "/hotels", map[string]any{
		"name": "Hotel Plaza", "description": "Centro", "address": "Portal Unión 1",
		"city": "Ayacucho", "stars": 4, "price_per_night": "150.00",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create hotel: %d %s", res.StatusCode, raw)
	}
	var hotel struct {
		ID            int64  `json:"id"`
		PricePerNight string `json:"price_per_night"`
	}
	admin.decode(raw, &hotel)
	if hotel.PricePerNight != "150.00" {
		t.Fatalf("price = %q, want 150.00", hotel.PricePerNight)
	}

	// Regular users cannot create hotels.
	if res, _ := user.do("POST", "/hotels", map[string]any{"name": "x"}); res.StatusCode != http.StatusForbidden {
		t.Fatalf("user create hotel: %d, want 403", res.StatusCode)
	}
	if res, _ := anon.do("POST", "/hotels", map[string]any{"name": "x"}); res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anon create hotel: %d, want 401", res.StatusCode)
	}

	// User books four nights.
	res, raw = user.do("POST", "/bookings", map[string]any{
		"hotelId": hotel.ID, "checkIn": "2025-07-01", "checkOut": "2025-07-05",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create booking: %d %s", res.StatusCode, raw)
	}
	var booking struct {
		ID         int64  `json:"id"`
		Status     string `json:"status"`
		TotalPrice string `json:"total_price"`
	}
	user.decode(raw, &booking)
	if booking.Status != "pending" || booking.TotalPrice != "600.00" {
		t.Fatalf("booking = %+v", booking)
	}

	// Overlap is rejected with 409.
	res, raw = user.do("POST", "/bookings", map[string]any{
		"hotelId": hotel.ID, "checkIn": "2025-07-04", "checkOut": "2025-07-06",
	})
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("overlap booking: %d %s", res.StatusCode, raw)
	}
	var apiErr struct {
		Message string `json:"message"`
	}
	user.decode(raw, &apiErr)
	if apiErr.Message == "" {
		t.Fatal("conflict response has no message")
	}

	// Occupied calendar is public.
	res, raw = anon.do("GET", fmt.Sprintf("/bookings/occupied/%d", hotel.ID), nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("occupied: %d %s", res.StatusCode, raw)
	}
	var ranges []struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	anon.decode(raw, &ranges)
	if len(ranges) != 1 || ranges[0].From != "2025-07-01" || ranges[0].To != "2025-07-05" {
		t.Fatalf("ranges = %+v", ranges)
	}

	// Payment through the simulated gateway.
	card := map[string]any{
		"name": "Juan Pérez", "number": "4111111111111111", "expiry": "12/99", "cvv": "123",
	}
	res, raw = user.do("POST", fmt.Sprintf("/payments/%d", booking.ID), card)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("pay: %d %s", res.StatusCode, raw)
	}
	var payment struct {
		Success   bool   `json:"success"`
		ReceiptID string `json:"receipt_id"`
		Amount    string `json:"amount"`
	}
	user.decode(raw, &payment)
	if !payment.Success || payment.ReceiptID == "" || payment.Amount != "600.00" {
		t.Fatalf("payment = %+v", payment)
	}

	// Paying twice conflicts.
	if res, _ = user.do("POST", fmt.Sprintf("/payments/%d", booking.ID), card); res.StatusCode != http.StatusConflict {
		t.Fatalf("second payment: %d, want 409", res.StatusCode)
	}

	// Admin stats reflect the paid booking only.
	res, raw = admin.do("GET", "/bookings/admin/stats", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("stats: %d %s", res.StatusCode, raw)
	}
	var stats struct {
		Revenue struct {
			TotalCollected string `json:"total_collected"`
			TotalPotential string `json:"total_potential"`
		} `json:"revenue"`
		Counts struct {
			TotalReservations int `json:"total_reservations"`
		} `json:"counts"`
	}
	admin.decode(raw, &stats)
	if stats.Revenue.TotalCollected != "600.00" || stats.Counts.TotalReservations != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	// Cancel is idempotent and frees the dates.
	res, raw = user.do("PATCH", fmt.Sprintf("/bookings/%d/cancel", booking.ID), nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("cancel: %d %s", res.StatusCode, raw)
	}
	user.decode(raw, &booking)
	if booking.Status != "cancelled" {
		t.Fatalf("status after cancel = %s", booking.Status)
	}
	if res, _ = user.do("PATCH", fmt.Sprintf("/bookings/%d/cancel", booking.ID), nil); res.StatusCode != http.StatusOK {
		t.Fatalf("second cancel: %d, want 200", res.StatusCode)
	}
	res, raw = anon.do("GET", fmt.Sprintf("/bookings/occupied/%d", hotel.ID), nil)
	anon.decode(raw, &ranges)
	if len(ranges) != 0 {
		t.Fatalf("ranges after cancel = %+v", ranges)
	}

	// Reviews and contact round out the public surface.
	res, raw = user.do("POST", "/reviews", map[string]any{
		"hotelId": hotel.ID, "content": "Excelente atención y ubicación.", "rating": 5,
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("review: %d %s", res.StatusCode, raw)
	}
	res, raw = anon.do("POST", "/contacts", map[string]any{
		"name": "Ana", "email": "ana@example.com", "subject": "Consulta", "message": "¿Aceptan mascotas?",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("contact: %d %s", res.StatusCode, raw)
	}
}
