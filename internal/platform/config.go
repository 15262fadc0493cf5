// Package platform holds the owner-configurable marketplace parameters: the
// platform fee, its recipient, the supported payment assets, and the pause
// switch. Trades read whatever is currently configured; the bounds are
// enforced at the setter, not re-validated per trade.
package platform

import (
	"go.uber.org/zap"

	"carbonmark/marketplace-backend/internal/core"
	"carbonmark/marketplace-backend/internal/events"
)

// MaxFeeBps caps the platform fee at 10%.
const MaxFeeBps = 1000

type Config struct {
	ledger *core.Ledger
	events events.Emitter
	logger *zap.Logger

	owner        string
	feeBps       int64
	feeRecipient string
	assets       map[string]bool
	paused       bool
}

// Params seeds the admin configuration at startup.
type Params struct {
	Owner        string
	FeeBps       int64
	FeeRecipient string
	Assets       []string
}

func NewConfig(ledger *core.Ledger, params Params, emitter events.Emitter, logger *zap.Logger) *Config {
	assets := make(map[string]bool, len(params.Assets))
	for _, a := range params.Assets {
		assets[a] = true
	}
	return &Config{
		ledger:       ledger,
		events:       emitter,
		logger:       logger,
		owner:        params.Owner,
		feeBps:       params.FeeBps,
		feeRecipient: params.FeeRecipient,
		assets:       assets,
	}
}

// SetFee updates the platform fee. Owner-only, bounded [0, MaxFeeBps].
func (c *Config) SetFee(caller string, bps int64) error {
	return c.ledger.Run(func() error {
		if caller != c.owner {
			return core.ErrNotOwner
		}
		if bps < 0 || bps > MaxFeeBps {
			return core.ErrFeeTooHigh
		}
		c.feeBps = bps
		c.emit("platform.fee_set", map[string]int64{"fee_bps": bps})
		return nil
	})
}

// SetFeeRecipient updates where fees are routed. Owner-only, non-empty.
func (c *Config) SetFeeRecipient(caller, recipient string) error {
	return c.ledger.Run(func() error {
		if caller != c.owner {
			return core.ErrNotOwner
		}
		if recipient == "" {
			return core.ErrInvalidRecipient
		}
		c.feeRecipient = recipient
		c.emit("platform.fee_recipient_set", nil)
		return nil
	})
}

// SetSupportedAsset enables or disables a payment asset. Owner-only.
func (c *Config) SetSupportedAsset(caller, asset string, supported bool) error {
	return c.ledger.Run(func() error {
		if caller != c.owner {
			return core.ErrNotOwner
		}
		if asset == "" {
			return core.ErrInvalidField
		}
		c.assets[asset] = supported
		c.emit("platform.asset_set", map[string]int64{"supported": boolToInt(supported)})
		return nil
	})
}

// Pause halts every market state-changing operation. Owner-only.
func (c *Config) Pause(caller string) error {
	return c.ledger.Run(func() error {
		if caller != c.owner {
			return core.ErrNotOwner
		}
		c.paused = true
		c.emit("platform.paused", nil)
		return nil
	})
}

// Unpause resumes market operations. Owner-only.
func (c *Config) Unpause(caller string) error {
	return c.ledger.Run(func() error {
		if caller != c.owner {
			return core.ErrNotOwner
		}
		c.paused = false
		c.emit("platform.unpaused", nil)
		return nil
	})
}

// Owner returns the platform owner identity. The owner is fixed at startup,
// so no guard is needed.
func (c *Config) Owner() string { return c.owner }

// FeeBps returns the current fee in basis points.
func (c *Config) FeeBps() int64 {
	var bps int64
	c.ledger.View(func() { bps = c.feeBps })
	return bps
}

// FeeBpsLocked is FeeBps for settlement paths already holding the operation
// guard.
func (c *Config) FeeBpsLocked() int64 { return c.feeBps }

// FeeRecipient returns the current fee recipient.
func (c *Config) FeeRecipient() string {
	var recipient string
	c.ledger.View(func() { recipient = c.feeRecipient })
	return recipient
}

// FeeRecipientLocked is FeeRecipient for settlement paths already holding the
// operation guard.
func (c *Config) FeeRecipientLocked() string { return c.feeRecipient }

// AssetSupported reports whether an asset may be used for payment.
func (c *Config) AssetSupported(asset string) bool {
	var supported bool
	c.ledger.View(func() { supported = c.assets[asset] })
	return supported
}

// Paused reports whether market operations are halted.
func (c *Config) Paused() bool {
	var paused bool
	c.ledger.View(func() { paused = c.paused })
	return paused
}

// PausedLocked is Paused for callers already holding the operation guard.
func (c *Config) PausedLocked() bool { return c.paused }

// CheckTrade gates a market state-change: not paused, supported asset.
// Caller must hold the operation guard.
func (c *Config) CheckTrade(asset string) error {
	if c.paused {
		return core.ErrPaused
	}
	if !c.assets[asset] {
		return core.ErrUnsupportedAsset
	}
	return nil
}

func (c *Config) emit(op string, amounts map[string]int64) {
	c.events.Emit(events.Stamp(events.Event{
		Operation: op,
		Entity:    "platform",
		Actors:    map[string]string{"owner": c.owner},
		Amounts:   amounts,
	}, c.ledger.Now()))
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
