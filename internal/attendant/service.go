// Package attendant runs the car-wash bay for concurrent callers: it serializes
// access to the bay, books billed washes in the store and announces finished ones.
package attendant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"carwash-backend/internal/metrics"
	"carwash-backend/internal/model"
	"carwash-backend/internal/store"
	"carwash-backend/internal/washbay"
)

// Notifier is told the ticket of every wash that finished.
type Notifier interface {
	Dispatch(ticket string)
}

// Flusher drops cached data derived from the wash ledger.
type Flusher interface {
	Flush()
}

// Status is the bay state plus the ticket of the wash in flight.
type Status struct {
	washbay.Snapshot
	Ticket string `json:"ticket,omitempty"`
	// PendingBookings counts billed washes the store has not accepted yet.
	PendingBookings int `json:"pending_bookings,omitempty"`
}

// Service owns the single bay of the site.
type Service struct {
	mu     sync.Mutex
	bay    *washbay.Bay
	ticket string

	store    store.Store
	notifier Notifier
	metrics  *metrics.Metrics
	flushers []Flusher
	pending  []model.Wash // billed but not yet stored, oldest first

	now       func() time.Time
	newTicket func() string
}

// NewService wraps bay. notifier may be nil when notifications are disabled.
func NewService(bay *washbay.Bay, s store.Store, notifier Notifier, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.New()
	}
	m.SetRevenue(bay.Revenue())
	m.SetBusy(bay.Busy())
	return &Service{
		bay:       bay,
		store:     s,
		notifier:  notifier,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
		newTicket: func() string { return uuid.NewString() },
	}
}

// RestoreBay builds a bay whose revenue continues from every wash already booked in the store.
func RestoreBay(ctx context.Context, s store.Store, prices washbay.PriceList) (*washbay.Bay, error) {
	total, err := s.TotalRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore revenue: %w", err)
	}
	log.Printf("Restored bay revenue: %s", total.StringFixed(2))
	return washbay.New(washbay.WithPrices(prices), washbay.WithRevenue(total)), nil
}

// InvalidateOnBilling registers caches to flush whenever a wash is booked.
func (s *Service) InvalidateOnBilling(f Flusher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushers = append(s.flushers, f)
}

// Start begins a wash and issues its ticket.
func (s *Service) Start(ctx context.Context, extras washbay.Extras) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.bay.Start(extras); err != nil {
		switch {
		case errors.Is(err, washbay.ErrConflict):
			s.metrics.StartRejected(metrics.ReasonConflict)
		case errors.Is(err, washbay.ErrInvalidRequest):
			s.metrics.StartRejected(metrics.ReasonInvalidRequest)
		}
		return s.status(), fmt.Errorf("start wash: %w", err)
	}

	s.ticket = s.newTicket()
	s.metrics.WashStarted()
	log.Printf("Wash %s started (extras: %s)", s.ticket, metrics.ExtrasLabel(extras))
	return s.status(), nil
}

// Advance moves the bay one phase forward. Advancing an idle bay is a no-op.
//
// A failure to book the charge is returned, but the bay keeps the transition it
// already applied; the charge stays in the in-memory revenue and the wash is
// queued. Queued washes are retried on every later Advance, idle ones included.
func (s *Service) Advance(ctx context.Context) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.retryPending(ctx)

	ticket := s.ticket
	t := s.bay.Advance()
	if !t.Moved() {
		return s.status(), nil
	}

	var bookErr error
	if t.Charge != nil {
		bookErr = s.book(ctx, ticket, *t.Charge)
	}

	if t.Finished() {
		s.ticket = ""
		s.metrics.SetBusy(false)
		log.Printf("Wash %s finished", ticket)
		if s.notifier != nil {
			s.notifier.Dispatch(ticket)
		}
	}
	return s.status(), bookErr
}

// Reset aborts the wash in flight, if any. Revenue is kept.
func (s *Service) Reset(ctx context.Context) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bay.Busy() {
		log.Printf("Wash %s aborted in phase %s", s.ticket, s.bay.Phase())
	}
	s.bay.Reset()
	s.ticket = ""
	s.metrics.SetBusy(false)
	return s.status()
}

// Status returns the current bay state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

func (s *Service) status() Status {
	return Status{Snapshot: s.bay.Snapshot(), Ticket: s.ticket, PendingBookings: len(s.pending)}
}

func (s *Service) book(ctx context.Context, ticket string, c washbay.Charge) error {
	s.metrics.WashBilled(c, s.bay.Revenue())

	wash := model.Wash{
		Ticket:        ticket,
		PreWashByHand: c.Extras.PreWashByHand,
		HandDry:       c.Extras.HandDry,
		Waxing:        c.Extras.Waxing,
		Amount:        c.Amount,
		BilledAt:      s.now(),
	}
	err := s.store.RecordWash(ctx, wash)
	s.flush()
	if err != nil {
		s.pending = append(s.pending, wash)
		log.Printf("Error booking wash %s (%s), queued for retry: %v", ticket, c.Amount.StringFixed(2), err)
		return fmt.Errorf("book wash: %w", err)
	}
	log.Printf("Wash %s billed %s", ticket, c.Amount.StringFixed(2))
	return nil
}

// retryPending stores queued washes in order and stops at the first failure.
func (s *Service) retryPending(ctx context.Context) {
	if len(s.pending) == 0 {
		return
	}
	booked := 0
	for _, wash := range s.pending {
		if err := s.store.RecordWash(ctx, wash); err != nil {
			log.Printf("Retry of wash %s failed, %d booking(s) still pending: %v", wash.Ticket, len(s.pending)-booked, err)
			break
		}
		log.Printf("Wash %s billed %s (retried)", wash.Ticket, wash.Amount.StringFixed(2))
		booked++
	}
	if booked > 0 {
		s.pending = s.pending[booked:]
		s.flush()
	}
}

func (s *Service) flush() {
	for _, f := range s.flushers {
		f.Flush()
	}
}
