// Package washbay models a single car-wash bay as a caller-driven state machine.
//
// A Bay is not safe for concurrent use; hosts that share one between
// goroutines must serialize calls to Start, Advance and Reset.
package washbay

import "github.com/shopspring/decimal"

// Charge is the amount booked when a wash enters PhaseBilling.
type Charge struct {
	Extras Extras
	Amount decimal.Decimal
}

// Transition describes the edge taken by a single Advance call.
type Transition struct {
	From   Phase
	To     Phase
	Charge *Charge // set only on the edge entering PhaseBilling
}

// Moved reports whether Advance changed the phase.
func (t Transition) Moved() bool {
	return t.From != t.To
}

// Finished reports whether this edge completed a wash and returned the bay to idle.
func (t Transition) Finished() bool {
	return t.From == PhaseBilling && t.To == PhaseIdle
}

// Snapshot is a read-only copy of the bay state.
type Snapshot struct {
	Phase    Phase           `json:"phase"`
	Busy     bool            `json:"busy"`
	Revenue  decimal.Decimal `json:"revenue"`
	Extras   Extras          `json:"extras"`
	Sequence []Phase         `json:"sequence,omitempty"`
}

// Option configures a Bay.
type Option func(*Bay)

// WithPrices overrides DefaultPrices.
func WithPrices(p PriceList) Option {
	return func(b *Bay) { b.prices = p }
}

// WithRevenue seeds the accumulated revenue, e.g. from persisted washes.
// Negative amounts are ignored.
func WithRevenue(amount decimal.Decimal) Option {
	return func(b *Bay) {
		if amount.IsPositive() {
			b.revenue = amount
		}
	}
}

// Bay is a single car-wash bay.
type Bay struct {
	prices  PriceList
	revenue decimal.Decimal

	extras Extras
	seq    []Phase // nil while idle
	step   int
}

// New returns an idle bay with no revenue.
func New(opts ...Option) *Bay {
	b := &Bay{prices: DefaultPrices, revenue: decimal.Zero}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start begins a wash with the given extras.
func (b *Bay) Start(e Extras) error {
	if b.Busy() {
		return ErrConflict
	}
	if err := e.Validate(); err != nil {
		return err
	}
	b.extras = e
	b.seq = e.Sequence()
	b.step = 0
	return nil
}

// Advance moves the wash in flight one phase forward. On an idle bay it does nothing.
func (b *Bay) Advance() Transition {
	from := b.Phase()
	if !b.Busy() {
		return Transition{From: from, To: from}
	}
	if from == PhaseBilling {
		b.Reset()
		return Transition{From: from, To: PhaseIdle}
	}

	b.step++
	t := Transition{From: from, To: b.seq[b.step]}
	if t.To == PhaseBilling {
		charge := &Charge{Extras: b.extras, Amount: b.prices.Quote(b.extras)}
		b.revenue = b.revenue.Add(charge.Amount)
		t.Charge = charge
	}
	return t
}

// Reset aborts any wash in flight. Revenue is kept.
func (b *Bay) Reset() {
	b.seq = nil
	b.step = 0
	b.extras = Extras{}
}

// Phase returns the current phase.
func (b *Bay) Phase() Phase {
	if b.seq == nil {
		return PhaseIdle
	}
	return b.seq[b.step]
}

// Busy reports whether a wash is in flight.
func (b *Bay) Busy() bool {
	return b.seq != nil
}

// Revenue returns the revenue accumulated over the bay's lifetime.
func (b *Bay) Revenue() decimal.Decimal {
	return b.revenue
}

// Extras returns the extras of the wash in flight, zero when idle.
func (b *Bay) Extras() Extras {
	return b.extras
}

// Sequence returns a copy of the phase sequence of the wash in flight.
func (b *Bay) Sequence() []Phase {
	if b.seq == nil {
		return nil
	}
	out := make([]Phase, len(b.seq))
	copy(out, b.seq)
	return out
}

// Snapshot returns a copy of the current state.
func (b *Bay) Snapshot() Snapshot {
	return Snapshot{
		Phase:    b.Phase(),
		Busy:     b.Busy(),
		Revenue:  b.revenue,
		Extras:   b.extras,
		Sequence: b.Sequence(),
	}
}
