package gateway

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sistema_hotel/internal/adapters/observability"
	"sistema_hotel/internal/domain"
)

// Client talks to the external card-authorization network. Charges are
// keyed by a caller-supplied reference, so retrying a transient failure
// cannot double-charge.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var ErrUnavailable = errors.New("gateway: unavailable")

type authRequest struct {
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
	Name      string `json:"name"`
	Number    string `json:"number"`
	Expiry    string `json:"expiry"`
	CVV       string `json:"cvv"`
}

type authResponse struct {
	Approved bool   `json:"approved"`
	AuthCode string `json:"auth_code"`
	Reason   string `json:"reason"` // declined|expired_card|...
}

func (c *Client) Authorize(ctx context.Context, ref string, amount domain.Cents, card domain.CardDetails) (string, error) {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(authRequest{
		Reference: ref,
		Amount:    amount.String(),
		Name:      card.Name,
		Number:    card.Number,
		Expiry:    card.Expiry,
		CVV:       card.CVV,
	})
	if err != nil {
		return "", err
	}
	url := c.base + "/authorize"

	var lastErr error
	for i := 0; i < 4; i++ {
		// fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("X-API-Key", c.key)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "sistema-hotel/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
		}
		observability.ObserveExternal("gateway", "authorize", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			var out authResponse
			err := json.NewDecoder(resp.Body).Decode(&out)
			resp.Body.Close()
			if err != nil {
				return "", err
			}
			if !out.Approved {
				return "", rejectionError(out.Reason)
			}
			return out.AuthCode, nil

		case http.StatusPaymentRequired, http.StatusUnprocessableEntity:
			var out authResponse
			_ = json.NewDecoder(resp.Body).Decode(&out)
			resp.Body.Close()
			return "", rejectionError(out.Reason)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: remote %d", ErrUnavailable, resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return "", fmt.Errorf("gateway: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return "", lastErr
}

func rejectionError(reason string) error {
	switch reason {
	case "expired_card":
		return fmt.Errorf("%w", domain.ErrCardExpired)
	default:
		return fmt.Errorf("%w: %s", domain.ErrCardDeclined, reason)
	}
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
