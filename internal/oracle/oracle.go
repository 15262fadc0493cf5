// Package oracle wraps an external price feed behind a staleness bound. The
// converter is an auxiliary pricing helper; no settlement path depends on it.
package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"carbonmark/marketplace-backend/internal/core"
)

// Quote is one observation from the external feed.
type Quote struct {
	Price decimal.Decimal `json:"price"`
	AsOf  time.Time       `json:"as_of"`
}

// PriceFeed returns the price of one unit of base denominated in quote.
type PriceFeed interface {
	Quote(ctx context.Context, base, quote string) (Quote, error)
}

// Converter turns amounts of one asset into another, rejecting quotes older
// than the configured bound.
type Converter struct {
	feed   PriceFeed
	maxAge time.Duration
	now    func() time.Time
}

func NewConverter(feed PriceFeed, maxAge time.Duration) *Converter {
	return &Converter{feed: feed, maxAge: maxAge, now: time.Now}
}

// WithClock overrides the wall clock for tests.
func (c *Converter) WithClock(now func() time.Time) *Converter {
	c.now = now
	return c
}

// Convert prices amount of the base asset in the quote asset, flooring to
// the fixed-precision integer representation.
func (c *Converter) Convert(ctx context.Context, amount int64, base, quote string) (int64, error) {
	if amount < 0 {
		return 0, core.ErrInvalidAmount
	}
	q, err := c.feed.Quote(ctx, base, quote)
	if err != nil {
		return 0, fmt.Errorf("quoting %s/%s: %w", base, quote, err)
	}
	if age := c.now().Sub(q.AsOf); age > c.maxAge {
		return 0, fmt.Errorf("%w: %s/%s quote is %s old", core.ErrStalePrice, base, quote, age)
	}
	return decimal.NewFromInt(amount).Mul(q.Price).Floor().IntPart(), nil
}

// StaticFeed serves fixed quotes; used in tests and local development.
type StaticFeed struct {
	Quotes map[string]Quote // keyed "BASE/QUOTE"
}

func (f *StaticFeed) Quote(_ context.Context, base, quote string) (Quote, error) {
	q, ok := f.Quotes[base+"/"+quote]
	if !ok {
		return Quote{}, fmt.Errorf("%w: no quote for %s/%s", core.ErrNotFound, base, quote)
	}
	return q, nil
}
