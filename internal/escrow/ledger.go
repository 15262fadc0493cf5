// Package escrow holds funds pledged against listings, auctions, and offers.
// Every record moves exactly once out of Pledged: either the full amount is
// released to the recipients of an exact split, or the full amount returns to
// the payer. There is no third outcome and no reopening.
package escrow

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"carbonmark/marketplace-backend/internal/core"
	"carbonmark/marketplace-backend/internal/events"
	"carbonmark/marketplace-backend/internal/treasury"
)

// Status of an escrow record.
type Status string

const (
	StatusPledged  Status = "pledged"
	StatusReleased Status = "released"
	StatusRefunded Status = "refunded"
)

// Record is one pledge of funds.
type Record struct {
	ID        int64     `json:"id"`
	Payer     string    `json:"payer"`
	Amount    int64     `json:"amount"`
	Asset     string    `json:"asset"`
	Status    Status    `json:"status"`
	PledgedAt time.Time `json:"pledged_at"`
	SettledAt time.Time `json:"settled_at,omitempty"`
}

// Split routes part of a released escrow to one recipient.
type Split struct {
	Recipient string
	Amount    int64
}

type Ledger struct {
	ledger   *core.Ledger
	accounts *treasury.Book
	events   events.Emitter
	logger   *zap.Logger
	records  map[int64]*Record
}

func NewLedger(ledger *core.Ledger, accounts *treasury.Book, emitter events.Emitter, logger *zap.Logger) *Ledger {
	return &Ledger{
		ledger:   ledger,
		accounts: accounts,
		events:   emitter,
		logger:   logger,
		records:  make(map[int64]*Record),
	}
}

// Deposit pledges a payer's funds. Called only by market components while
// they hold the operation guard; the debit and the record appear together.
func (l *Ledger) Deposit(payer string, amount int64, asset string) (int64, error) {
	if amount <= 0 {
		return 0, core.ErrInvalidAmount
	}
	if err := l.accounts.Debit(payer, asset, amount); err != nil {
		return 0, err
	}
	id := l.ledger.NextID(core.EntityEscrow)
	l.records[id] = &Record{
		ID:        id,
		Payer:     payer,
		Amount:    amount,
		Asset:     asset,
		Status:    StatusPledged,
		PledgedAt: l.ledger.Now(),
	}
	l.events.Emit(events.Stamp(events.Event{
		Operation: "escrow.deposit",
		Entity:    "escrow",
		EntityID:  id,
		Actors:    map[string]string{"payer": payer},
		Amounts:   map[string]int64{"amount": amount},
		Asset:     asset,
	}, l.ledger.Now()))
	return id, nil
}

// Release pays out a pledged escrow to the given recipients. The splits must
// sum to the escrowed amount exactly; all transfers apply or none do. Caller
// must hold the operation guard.
func (l *Ledger) Release(id int64, splits []Split) error {
	rec, ok := l.records[id]
	if !ok {
		return fmt.Errorf("%w: escrow %d", core.ErrNotFound, id)
	}
	if rec.Status != StatusPledged {
		return fmt.Errorf("%w: escrow %d is %s", core.ErrAlreadySettled, id, rec.Status)
	}
	var sum int64
	for _, s := range splits {
		if s.Recipient == "" {
			return core.ErrInvalidRecipient
		}
		if s.Amount < 0 {
			return core.ErrInvalidAmount
		}
		sum += s.Amount
	}
	if sum != rec.Amount {
		return fmt.Errorf("%w: splits %d, escrowed %d", core.ErrSplitMismatch, sum, rec.Amount)
	}
	amounts := make(map[string]int64, len(splits))
	for _, s := range splits {
		l.accounts.Credit(s.Recipient, rec.Asset, s.Amount)
		amounts[s.Recipient] += s.Amount
	}
	rec.Status = StatusReleased
	rec.SettledAt = l.ledger.Now()
	l.events.Emit(events.Stamp(events.Event{
		Operation: "escrow.release",
		Entity:    "escrow",
		EntityID:  id,
		Actors:    map[string]string{"payer": rec.Payer},
		Amounts:   amounts,
		Asset:     rec.Asset,
	}, l.ledger.Now()))
	return nil
}

// Refund returns the full escrowed amount to the payer. Caller must hold the
// operation guard.
func (l *Ledger) Refund(id int64) error {
	rec, ok := l.records[id]
	if !ok {
		return fmt.Errorf("%w: escrow %d", core.ErrNotFound, id)
	}
	if rec.Status != StatusPledged {
		return fmt.Errorf("%w: escrow %d is %s", core.ErrAlreadySettled, id, rec.Status)
	}
	l.accounts.Credit(rec.Payer, rec.Asset, rec.Amount)
	rec.Status = StatusRefunded
	rec.SettledAt = l.ledger.Now()
	l.events.Emit(events.Stamp(events.Event{
		Operation: "escrow.refund",
		Entity:    "escrow",
		EntityID:  id,
		Actors:    map[string]string{"payer": rec.Payer},
		Amounts:   map[string]int64{"amount": rec.Amount},
		Asset:     rec.Asset,
	}, l.ledger.Now()))
	return nil
}

// Get returns a copy of an escrow record.
func (l *Ledger) Get(id int64) (Record, error) {
	var rec Record
	var err error
	l.ledger.View(func() {
		stored, ok := l.records[id]
		if !ok {
			err = fmt.Errorf("%w: escrow %d", core.ErrNotFound, id)
			return
		}
		rec = *stored
	})
	return rec, err
}
