package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"sistema_hotel/internal/domain"
)

// Mailer delivers booking confirmations out-of-band. Dispatch never
// blocks the payment path: each confirmation runs on its own goroutine,
// with a semaphore bounding how many sends are in flight.
type Mailer struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func New(workers int) *Mailer {
	if workers <= 0 {
		workers = 4
	}
	return &Mailer{sem: semaphore.NewWeighted(int64(workers))}
}

func (m *Mailer) BookingPaid(b domain.Booking, receipt string) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer m.sem.Release(1)
		m.send(b, receipt)
	}()
}

// send is where a real mail provider would be called. Shipping the
// receipt to the log keeps the flow observable without an SMTP dep.
func (m *Mailer) send(b domain.Booking, receipt string) {
	log.Info().
		Int64("booking", b.ID).
		Int64("user", b.UserID).
		Str("receipt", receipt).
		Str("total", b.TotalPrice.String()).
		Msg("booking confirmation sent")
}

// Close waits for in-flight confirmations to drain.
func (m *Mailer) Close() { m.wg.Wait() }
