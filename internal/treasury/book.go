// Package treasury keeps the per-identity, per-asset balance book that the
// escrow ledger draws on. How balances are funded (fiat on-ramp, bridged
// tokens) is an external concern; inside the engine a deposit is an
// owner-gated credit.
package treasury

import (
	"fmt"

	"go.uber.org/zap"

	"carbonmark/marketplace-backend/internal/core"
	"carbonmark/marketplace-backend/internal/events"
)

type Book struct {
	ledger   *core.Ledger
	events   events.Emitter
	logger   *zap.Logger
	owner    string
	balances map[string]map[string]int64
}

func NewBook(ledger *core.Ledger, owner string, emitter events.Emitter, logger *zap.Logger) *Book {
	return &Book{
		ledger:   ledger,
		events:   emitter,
		logger:   logger,
		owner:    owner,
		balances: make(map[string]map[string]int64),
	}
}

// Deposit credits an identity's balance. Owner-only: the on-ramp collaborator
// calls this after it has actually collected funds.
func (b *Book) Deposit(caller, identity, asset string, amount int64) error {
	return b.ledger.Run(func() error {
		if caller != b.owner {
			return core.ErrNotOwner
		}
		if identity == "" {
			return core.ErrInvalidRecipient
		}
		if asset == "" {
			return core.ErrInvalidField
		}
		if amount <= 0 {
			return core.ErrInvalidAmount
		}
		b.Credit(identity, asset, amount)
		b.events.Emit(events.Stamp(events.Event{
			Operation: "treasury.deposit",
			Entity:    "account",
			Actors:    map[string]string{"identity": identity},
			Amounts:   map[string]int64{"amount": amount},
			Asset:     asset,
		}, b.ledger.Now()))
		return nil
	})
}

// Balance returns the available balance for an identity and asset.
func (b *Book) Balance(identity, asset string) int64 {
	var balance int64
	b.ledger.View(func() { balance = b.BalanceLocked(identity, asset) })
	return balance
}

// BalanceLocked is Balance for callers already holding the operation guard
// (the auction bid path pre-checks bidder funds with it).
func (b *Book) BalanceLocked(identity, asset string) int64 {
	if held, ok := b.balances[identity]; ok {
		return held[asset]
	}
	return 0
}

// Credit adds to a balance. Caller must hold the operation guard. Credits
// cannot fail; refund paths rely on that.
func (b *Book) Credit(identity, asset string, amount int64) {
	held, ok := b.balances[identity]
	if !ok {
		held = make(map[string]int64)
		b.balances[identity] = held
	}
	held[asset] += amount
}

// Debit removes from a balance, failing ErrInsufficientFunds without any
// change when the balance cannot cover it. Caller must hold the operation
// guard.
func (b *Book) Debit(identity, asset string, amount int64) error {
	if amount <= 0 {
		return core.ErrInvalidAmount
	}
	if b.BalanceLocked(identity, asset) < amount {
		return fmt.Errorf("%w: %s needs %d %s", core.ErrInsufficientFunds, identity, amount, asset)
	}
	b.balances[identity][asset] -= amount
	return nil
}
