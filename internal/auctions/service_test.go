package auctions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carbonmark/marketplace-backend/internal/core"
	"carbonmark/marketplace-backend/internal/escrow"
	"carbonmark/marketplace-backend/internal/events"
	"carbonmark/marketplace-backend/internal/platform"
	"carbonmark/marketplace-backend/internal/registry"
	"carbonmark/marketplace-backend/internal/treasury"
)

type testEnv struct {
	now      time.Time
	ledger   *core.Ledger
	registry *registry.Service
	accounts *treasury.Book
	escrow   *escrow.Ledger
	platform *platform.Config
	service  *Service

	certID int64
}

func newTestEnv(t *testing.T, feeBps int64) *testEnv {
	t.Helper()
	env := &testEnv{now: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}
	env.ledger = core.NewLedger(core.WithClock(func() time.Time { return env.now }))
	logger := zap.NewNop()
	sinks := events.Multi{}
	env.platform = platform.NewConfig(env.ledger, platform.Params{
		Owner:        "platform-admin",
		FeeBps:       feeBps,
		FeeRecipient: "platform-treasury",
		Assets:       []string{"USDC"},
	}, sinks, logger)
	env.accounts = treasury.NewBook(env.ledger, "platform-admin", sinks, logger)
	env.escrow = escrow.NewLedger(env.ledger, env.accounts, sinks, logger)
	env.registry = registry.NewService(env.ledger, sinks, logger)
	env.service = NewService(env.ledger, env.registry, env.escrow, env.accounts, env.platform, sinks, logger)

	var err error
	env.certID, err = env.registry.Issue(registry.IssueRequest{
		Issuer:           "issuer-1",
		Recipient:        "seller",
		Amount:           100,
		ProjectType:      "reforestation",
		Location:         "Rondonia, Brazil",
		Methodology:      "VM0007",
		VerificationBody: "verra",
	})
	require.NoError(t, err)
	require.NoError(t, env.registry.Verify("issuer-1", env.certID, true))
	require.NoError(t, env.registry.SetApproval("seller", env.certID, Operator, true))
	require.NoError(t, env.accounts.Deposit("platform-admin", "bidder-a", "USDC", 500))
	require.NoError(t, env.accounts.Deposit("platform-admin", "bidder-b", "USDC", 500))
	return env
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t, 250)

	_, err := env.service.Create("bidder-a", env.certID, 100, 150, 24*time.Hour)
	assert.ErrorIs(t, err, core.ErrNotOwner)

	_, err = env.service.Create("seller", env.certID, 0, 150, 24*time.Hour)
	assert.ErrorIs(t, err, core.ErrInvalidQuantity)

	_, err = env.service.Create("seller", env.certID, 100, 0, 24*time.Hour)
	assert.ErrorIs(t, err, core.ErrInvalidPrice)

	_, err = env.service.Create("seller", env.certID, 100, 150, 30*time.Minute)
	assert.ErrorIs(t, err, core.ErrInvalidDuration)

	_, err = env.service.Create("seller", env.certID, 100, 150, 31*24*time.Hour)
	assert.ErrorIs(t, err, core.ErrInvalidDuration)

	require.NoError(t, env.registry.SetApproval("seller", env.certID, Operator, false))
	_, err = env.service.Create("seller", env.certID, 100, 150, 24*time.Hour)
	assert.ErrorIs(t, err, core.ErrNotApproved)
}

// Outbidding refunds the previous bidder exactly once, and settlement pays
// the seller the winning bid minus the fee.
func TestOutbidRefundAndSettle(t *testing.T) {
	env := newTestEnv(t, 250)
	id, err := env.service.Create("seller", env.certID, 100, 100, 24*time.Hour)
	require.NoError(t, err)

	require.NoError(t, env.service.Bid("bidder-a", id, 150, "USDC"))
	assert.Equal(t, int64(350), env.accounts.Balance("bidder-a", "USDC"))

	require.NoError(t, env.service.Bid("bidder-b", id, 200, "USDC"))
	assert.Equal(t, int64(500), env.accounts.Balance("bidder-a", "USDC"), "outbid refund restores the full pledge")
	assert.Equal(t, int64(300), env.accounts.Balance("bidder-b", "USDC"))

	env.now = env.now.Add(25 * time.Hour)
	require.NoError(t, env.service.End("anyone", id))

	// fee = floor(200 * 250 / 10000) = 5
	assert.Equal(t, int64(195), env.accounts.Balance("seller", "USDC"))
	assert.Equal(t, int64(5), env.accounts.Balance("platform-treasury", "USDC"))
	assert.Equal(t, int64(500), env.accounts.Balance("bidder-a", "USDC"))
	assert.Equal(t, int64(300), env.accounts.Balance("bidder-b", "USDC"))

	cert, err := env.registry.Get(env.certID)
	require.NoError(t, err)
	assert.Equal(t, "bidder-b", cert.Holder)

	auction, _ := env.service.Get(id)
	assert.Equal(t, StatusSold, auction.Status)
}

func TestBidMonotonicity(t *testing.T) {
	env := newTestEnv(t, 250)
	id, err := env.service.Create("seller", env.certID, 100, 100, 24*time.Hour)
	require.NoError(t, err)

	assert.ErrorIs(t, env.service.Bid("bidder-a", id, 99, "USDC"), core.ErrBelowStartingPrice)

	require.NoError(t, env.service.Bid("bidder-a", id, 150, "USDC"))
	assert.ErrorIs(t, env.service.Bid("bidder-b", id, 150, "USDC"), core.ErrBidTooLow)
	assert.ErrorIs(t, env.service.Bid("bidder-b", id, 120, "USDC"), core.ErrBidTooLow)

	// Rejected bids leave the standing bid and its escrow untouched.
	assert.Equal(t, int64(350), env.accounts.Balance("bidder-a", "USDC"))
	assert.Equal(t, int64(500), env.accounts.Balance("bidder-b", "USDC"))
	auction, _ := env.service.Get(id)
	assert.Equal(t, "bidder-a", auction.CurrentBidder)
	assert.Equal(t, int64(150), auction.CurrentBid)
}

func TestBidInsufficientFundsKeepsPreviousBidder(t *testing.T) {
	env := newTestEnv(t, 250)
	id, err := env.service.Create("seller", env.certID, 100, 100, 24*time.Hour)
	require.NoError(t, err)

	require.NoError(t, env.service.Bid("bidder-a", id, 150, "USDC"))
	err = env.service.Bid("bidder-b", id, 600, "USDC")
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)

	// The failed bid must not have refunded bidder-a.
	assert.Equal(t, int64(350), env.accounts.Balance("bidder-a", "USDC"))
	auction, _ := env.service.Get(id)
	assert.Equal(t, "bidder-a", auction.CurrentBidder)
}

func TestBidAfterEndTime(t *testing.T) {
	env := newTestEnv(t, 250)
	id, err := env.service.Create("seller", env.certID, 100, 100, 24*time.Hour)
	require.NoError(t, err)

	env.now = env.now.Add(24 * time.Hour)
	assert.ErrorIs(t, env.service.Bid("bidder-a", id, 150, "USDC"), core.ErrAuctionClosed)
}

func TestEndUnsold(t *testing.T) {
	env := newTestEnv(t, 250)
	id, err := env.service.Create("seller", env.certID, 100, 100, 24*time.Hour)
	require.NoError(t, err)

	// Only the seller may end early.
	assert.ErrorIs(t, env.service.End("anyone", id), core.ErrAuctionClosed)
	require.NoError(t, env.service.End("seller", id))

	auction, _ := env.service.Get(id)
	assert.Equal(t, StatusUnsold, auction.Status)
	cert, _ := env.registry.Get(env.certID)
	assert.Equal(t, "seller", cert.Holder)

	assert.ErrorIs(t, env.service.End("seller", id), core.ErrAlreadySettled)
}

func TestEndKeepsBidEscrowedWhenTransferBlocked(t *testing.T) {
	env := newTestEnv(t, 250)
	id, err := env.service.Create("seller", env.certID, 100, 100, 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, env.service.Bid("bidder-a", id, 150, "USDC"))

	require.NoError(t, env.registry.Verify("issuer-1", env.certID, false))

	env.now = env.now.Add(25 * time.Hour)
	err = env.service.End("anyone", id)
	assert.ErrorIs(t, err, core.ErrNotVerified)

	// The auction stays open and the pledge stays escrowed; nothing was paid.
	auction, _ := env.service.Get(id)
	assert.Equal(t, StatusOpen, auction.Status)
	assert.Equal(t, int64(0), env.accounts.Balance("seller", "USDC"))
	assert.Equal(t, int64(350), env.accounts.Balance("bidder-a", "USDC"))

	// Once the issuer restores verification the same auction settles.
	require.NoError(t, env.registry.Verify("issuer-1", env.certID, true))
	require.NoError(t, env.service.End("anyone", id))
	auction, _ = env.service.Get(id)
	assert.Equal(t, StatusSold, auction.Status)
}

// Expiry is a gate nobody can lift. Ending the auction then refunds the
// standing bid and closes unsold instead of stranding the pledge in escrow.
func TestEndRefundsBidWhenCertificateExpired(t *testing.T) {
	env := newTestEnv(t, 250)

	expiry := env.now.Add(12 * time.Hour)
	certID, err := env.registry.Issue(registry.IssueRequest{
		Issuer:           "issuer-1",
		Recipient:        "seller",
		Amount:           100,
		ProjectType:      "reforestation",
		Location:         "Rondonia, Brazil",
		Methodology:      "VM0007",
		VerificationBody: "verra",
		ExpiresAt:        &expiry,
	})
	require.NoError(t, err)
	require.NoError(t, env.registry.Verify("issuer-1", certID, true))
	require.NoError(t, env.registry.SetApproval("seller", certID, Operator, true))

	id, err := env.service.Create("seller", certID, 100, 100, 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, env.service.Bid("bidder-a", id, 150, "USDC"))
	assert.Equal(t, int64(350), env.accounts.Balance("bidder-a", "USDC"))

	env.now = env.now.Add(25 * time.Hour)
	require.NoError(t, env.service.End("anyone", id))

	auction, _ := env.service.Get(id)
	assert.Equal(t, StatusUnsold, auction.Status)
	assert.Equal(t, int64(500), env.accounts.Balance("bidder-a", "USDC"))
	assert.Equal(t, int64(0), env.accounts.Balance("seller", "USDC"))
	assert.Equal(t, int64(0), env.accounts.Balance("platform-treasury", "USDC"))

	cert, err := env.registry.Get(certID)
	require.NoError(t, err)
	assert.Equal(t, "seller", cert.Holder)

	assert.ErrorIs(t, env.service.End("anyone", id), core.ErrAlreadySettled)
}

// A burned certificate is equally unrecoverable.
func TestEndRefundsBidWhenCertificateBurned(t *testing.T) {
	env := newTestEnv(t, 250)
	id, err := env.service.Create("seller", env.certID, 100, 100, 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, env.service.Bid("bidder-a", id, 150, "USDC"))

	_, err = env.registry.Burn("seller", env.certID)
	require.NoError(t, err)

	env.now = env.now.Add(25 * time.Hour)
	require.NoError(t, env.service.End("anyone", id))

	auction, _ := env.service.Get(id)
	assert.Equal(t, StatusUnsold, auction.Status)
	assert.Equal(t, int64(500), env.accounts.Balance("bidder-a", "USDC"))
	assert.Equal(t, int64(0), env.accounts.Balance("seller", "USDC"))
}

func TestCancelOnlyBeforeBids(t *testing.T) {
	env := newTestEnv(t, 250)
	id, err := env.service.Create("seller", env.certID, 100, 100, 24*time.Hour)
	require.NoError(t, err)

	assert.ErrorIs(t, env.service.Cancel("bidder-a", id), core.ErrNotOwner)

	require.NoError(t, env.service.Bid("bidder-a", id, 150, "USDC"))
	assert.ErrorIs(t, env.service.Cancel("seller", id), core.ErrHasBids)

	id2, err := env.service.Create("seller", env.certID, 100, 100, 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, env.service.Cancel("seller", id2))
	assert.ErrorIs(t, env.service.Bid("bidder-b", id2, 150, "USDC"), core.ErrAuctionClosed)
}

func TestBidGates(t *testing.T) {
	env := newTestEnv(t, 250)
	id, err := env.service.Create("seller", env.certID, 100, 100, 24*time.Hour)
	require.NoError(t, err)

	assert.ErrorIs(t, env.service.Bid("bidder-a", id, 150, "EURC"), core.ErrUnsupportedAsset)
	assert.ErrorIs(t, env.service.Bid("bidder-a", 999, 150, "USDC"), core.ErrNotFound)

	require.NoError(t, env.platform.Pause("platform-admin"))
	assert.ErrorIs(t, env.service.Bid("bidder-a", id, 150, "USDC"), core.ErrPaused)
	assert.ErrorIs(t, env.service.End("seller", id), core.ErrPaused)

	// Withdrawing a bid-free auction stays possible while paused.
	require.NoError(t, env.service.Cancel("seller", id))
	auction, _ := env.service.Get(id)
	assert.Equal(t, StatusCancelled, auction.Status)
}
