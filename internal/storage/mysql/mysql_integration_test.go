//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"sistema_hotel/internal/domain"
	mysqlrepo "sistema_hotel/internal/storage/mysql"
)

// ---------- small helpers ----------

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

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
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
	return db
}

func seedHotel(t *testing.T, repo *mysqlrepo.Repo, price string) domain.Hotel {
	t.Helper()
	c, err := domain.ParseCents(price)
	if err != nil {
		t.Fatalf("parse price: %v", err)
	}
	h, err := repo.CreateHotel(context.Background(), domain.Hotel{
		Name: "Hotel Integración", Description: "Desc", Address: "Jr. Lima 1",
		City: "Ayacucho", Stars: 4, PricePerNight: c,
	})
	if err != nil {
		t.Fatalf("CreateHotel: %v", err)
	}
	return h
}

func parseDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

// ---------- the tests ----------

func TestRepo_BookingConflictAndLifecycle(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	h := seedHotel(t, repo, "150.00")

	in := parseDate(t, "2025-07-01")
	out := parseDate(t, "2025-07-05")

	b, err := repo.CreateBooking(ctx, domain.Booking{HotelID: h.ID, UserID: 10, CheckIn: in, CheckOut: out})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.Status != domain.StatusPending {
		t.Fatalf("status = %s, want pending", b.Status)
	}
	if b.TotalPrice != 60000 { // 4 nights x 150.00
		t.Fatalf("total = %s, want 600.00", b.TotalPrice)
	}

	// overlapping request fails
	_, err = repo.CreateBooking(ctx, domain.Booking{
		HotelID: h.ID, UserID: 11,
		CheckIn: parseDate(t, "2025-07-04"), CheckOut: parseDate(t, "2025-07-06"),
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// adjacent request succeeds
	if _, err := repo.CreateBooking(ctx, domain.Booking{
		HotelID: h.ID, UserID: 11,
		CheckIn: parseDate(t, "2025-07-05"), CheckOut: parseDate(t, "2025-07-07"),
	}); err != nil {
		t.Fatalf("adjacent booking: %v", err)
	}

	// occupied ranges reflect both bookings
	ranges, err := repo.OccupiedRanges(ctx, h.ID)
	if err != nil {
		t.Fatalf("OccupiedRanges: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("ranges = %d, want 2", len(ranges))
	}

	// guarded transitions: pending -> paid once, not twice
	ok, err := repo.TransitionStatus(ctx, b.ID, domain.StatusPending, domain.StatusPaid)
	if err != nil || !ok {
		t.Fatalf("first transition: ok=%v err=%v", ok, err)
	}
	ok, err = repo.TransitionStatus(ctx, b.ID, domain.StatusPending, domain.StatusPaid)
	if err != nil {
		t.Fatalf("second transition: %v", err)
	}
	if ok {
		t.Fatal("second pending->paid transition must not match a row")
	}

	// cancelled bookings free their dates
	ok, err = repo.TransitionStatus(ctx, b.ID, domain.StatusPaid, domain.StatusCancelled)
	if err != nil || !ok {
		t.Fatalf("cancel transition: ok=%v err=%v", ok, err)
	}
	if _, err := repo.CreateBooking(ctx, domain.Booking{
		HotelID: h.ID, UserID: 12,
		CheckIn: parseDate(t, "2025-07-02"), CheckOut: parseDate(t, "2025-07-04"),
	}); err != nil {
		t.Fatalf("booking over cancelled dates: %v", err)
	}
}

func TestRepo_DeleteHotelWithBookingsConflicts(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	h := seedHotel(t, repo, "80.00")
	if _, err := repo.CreateBooking(ctx, domain.Booking{
		HotelID: h.ID, UserID: 1,
		CheckIn: parseDate(t, "2025-08-01"), CheckOut: parseDate(t, "2025-08-03"),
	}); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	err := repo.DeleteHotel(ctx, h.ID)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict deleting a hotel with bookings, got %v", err)
	}
}

func TestRepo_ContactReadMarking(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	m, err := repo.AddMessage(ctx, domain.ContactMessage{
		Name: "Ana", Email: "ana@example.com", Subject: "Consulta", Message: "Hola",
	})
	if err != nil {
		t.Fatalf("AddMessage: %v", err)
	}

	read, err := repo.MarkRead(ctx, m.ID)
	if err != nil || !read.IsRead {
		t.Fatalf("MarkRead: %+v, %v", read, err)
	}
	again, err := repo.MarkRead(ctx, m.ID)
	if err != nil || !again.IsRead {
		t.Fatalf("MarkRead twice: %+v, %v", again, err)
	}
	if _, err := repo.MarkRead(ctx, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
