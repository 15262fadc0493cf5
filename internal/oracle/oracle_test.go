package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbonmark/marketplace-backend/internal/core"
)

func TestConvertFloors(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	feed := &StaticFeed{Quotes: map[string]Quote{
		"USDC/EURC": {Price: decimal.RequireFromString("0.91"), AsOf: now},
	}}
	conv := NewConverter(feed, 5*time.Minute).WithClock(func() time.Time { return now })

	// 1000 * 0.91 = 910 exactly.
	out, err := conv.Convert(context.Background(), 1000, "USDC", "EURC")
	require.NoError(t, err)
	assert.Equal(t, int64(910), out)

	// 33 * 0.91 = 30.03 floors to 30.
	out, err = conv.Convert(context.Background(), 33, "USDC", "EURC")
	require.NoError(t, err)
	assert.Equal(t, int64(30), out)

	out, err = conv.Convert(context.Background(), 0, "USDC", "EURC")
	require.NoError(t, err)
	assert.Equal(t, int64(0), out)
}

func TestConvertRejectsStaleQuote(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	feed := &StaticFeed{Quotes: map[string]Quote{
		"USDC/EURC": {Price: decimal.RequireFromString("0.91"), AsOf: now.Add(-10 * time.Minute)},
	}}
	conv := NewConverter(feed, 5*time.Minute).WithClock(func() time.Time { return now })

	_, err := conv.Convert(context.Background(), 1000, "USDC", "EURC")
	assert.ErrorIs(t, err, core.ErrStalePrice)
}

func TestConvertUnknownPair(t *testing.T) {
	conv := NewConverter(&StaticFeed{}, 5*time.Minute)

	_, err := conv.Convert(context.Background(), 1000, "USDC", "JPYC")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = conv.Convert(context.Background(), -1, "USDC", "JPYC")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}
