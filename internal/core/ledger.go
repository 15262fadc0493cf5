package core

import (
	"sync"
	"time"
)

// Entity names the tables whose ids are assigned from the ledger sequence.
type Entity string

const (
	EntityCertificate Entity = "certificate"
	EntityProject     Entity = "project"
	EntityListing     Entity = "listing"
	EntityAuction     Entity = "auction"
	EntityOffer       Entity = "offer"
	EntityEscrow      Entity = "escrow"
)

// Ledger serializes every state-changing operation against shared marketplace
// state and hands out monotonic entity ids. Callers are expected to impose a
// total order over state-changing calls; the operation guard exists to reject
// a nested (reentrant) invocation that fires while a guarded operation is
// still executing, before it can observe half-applied state. Read surfaces go
// through View, which waits out an in-flight operation instead of racing it.
type Ledger struct {
	opMu    sync.Mutex
	stateMu sync.RWMutex
	now     func() time.Time
	seqMu   sync.Mutex
	seq     map[Entity]int64
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the wall clock. Tests use this to pin expiry checks.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates a ledger with ids starting at 1.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		now: time.Now,
		seq: make(map[Entity]int64),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes one state-changing operation under the guard. A call that
// arrives while another guarded operation is in flight fails ErrReentrantCall
// and has no effect. The operation itself must either complete in full or
// return an error before mutating anything.
func (l *Ledger) Run(op func() error) error {
	if !l.opMu.TryLock() {
		return ErrReentrantCall
	}
	defer l.opMu.Unlock()
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	return op()
}

// View executes a read-only operation against shared state. Readers block
// until an in-flight guarded operation finishes; they never fail it. The
// operation must not call Run or View.
func (l *Ledger) View(op func()) {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	op()
}

// NextID assigns the next id for an entity table. Ids are monotonic per
// entity and never reused, including after burn.
func (l *Ledger) NextID(entity Entity) int64 {
	l.seqMu.Lock()
	defer l.seqMu.Unlock()
	l.seq[entity]++
	return l.seq[entity]
}

// Now returns the ledger clock time.
func (l *Ledger) Now() time.Time {
	return l.now()
}
