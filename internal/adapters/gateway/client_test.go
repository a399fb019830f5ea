package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sistema_hotel/internal/adapters/gateway"
	"sistema_hotel/internal/domain"
)

var testCard = domain.CardDetails{Name: "JUAN PEREZ", Number: "4111111111111111", Expiry: "12/30", CVV: "123"}

func TestClient_Authorize_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			var req map[string]any
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req["reference"] != "bk-77" || req["amount"] != "400.00" {
				t.Errorf("unexpected request: %+v", req)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"approved": true, "auth_code": "A1"})
		}
	}))
	defer ts.Close()

	cl, err := gateway.New(ts.URL, "test-key", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := cl.Authorize(ctx, "bk-77", 40000, testCard)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if code != "A1" {
		t.Fatalf("auth code = %q, want A1", code)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_Authorize_Declined(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]any{"approved": false, "reason": "declined"})
	}))
	defer ts.Close()

	cl, _ := gateway.New(ts.URL, "test-key", 100)
	_, err := cl.Authorize(context.Background(), "bk-1", 1000, testCard)
	if !errors.Is(err, domain.ErrCardDeclined) {
		t.Fatalf("expected ErrCardDeclined, got %v", err)
	}
}

func TestClient_Authorize_ExpiredCard(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with approved=false also counts as a rejection
		_ = json.NewEncoder(w).Encode(map[string]any{"approved": false, "reason": "expired_card"})
	}))
	defer ts.Close()

	cl, _ := gateway.New(ts.URL, "test-key", 100)
	_, err := cl.Authorize(context.Background(), "bk-1", 1000, testCard)
	if !errors.Is(err, domain.ErrCardExpired) {
		t.Fatalf("expected ErrCardExpired, got %v", err)
	}
}

func TestSimulator(t *testing.T) {
	sim := gateway.NewSimulator()

	code, err := sim.Authorize(context.Background(), "bk-1", 1000, testCard)
	if err != nil || code == "" {
		t.Fatalf("expected approval, got code=%q err=%v", code, err)
	}

	bad := testCard
	bad.Number = "4000000000000002"
	_, err = sim.Authorize(context.Background(), "bk-2", 1000, bad)
	if !errors.Is(err, domain.ErrCardDeclined) {
		t.Fatalf("expected ErrCardDeclined, got %v", err)
	}
}
