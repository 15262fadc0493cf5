package offers

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
	env.service = NewService(env.ledger, env.registry, env.escrow, env.platform, sinks, logger)

	var err error
	env.certID, err = env.registry.Issue(registry.IssueRequest{
		Issuer:           "issuer-1",
		Recipient:        "holder",
		Amount:           100,
		ProjectType:      "reforestation",
		Location:         "Rondonia, Brazil",
		Methodology:      "VM0007",
		VerificationBody: "verra",
	})
	require.NoError(t, err)
	require.NoError(t, env.registry.Verify("issuer-1", env.certID, true))
	require.NoError(t, env.accounts.Deposit("platform-admin", "offerer", "USDC", 1000))
	return env
}

func (e *testEnv) expiry() time.Time { return e.now.Add(7 * 24 * time.Hour) }

func TestCreateEscrowsFullTotal(t *testing.T) {
	env := newTestEnv(t, 250)

	id, err := env.service.Create("offerer", env.certID, 1, 50, env.expiry(), "USDC")
	require.NoError(t, err)

	assert.Equal(t, int64(950), env.accounts.Balance("offerer", "USDC"))
	offer, err := env.service.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, offer.Status)
	assert.Equal(t, int64(50), offer.Total)
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t, 250)

	_, err := env.service.Create("offerer", 999, 1, 50, env.expiry(), "USDC")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = env.service.Create("offerer", env.certID, 0, 50, env.expiry(), "USDC")
	assert.ErrorIs(t, err, core.ErrInvalidQuantity)

	_, err = env.service.Create("offerer", env.certID, 1, 0, env.expiry(), "USDC")
	assert.ErrorIs(t, err, core.ErrInvalidPrice)

	_, err = env.service.Create("offerer", env.certID, 1, 50, env.now.Add(-time.Hour), "USDC")
	assert.ErrorIs(t, err, core.ErrInvalidExpiry)

	_, err = env.service.Create("offerer", env.certID, 1, 50, env.expiry(), "EURC")
	assert.ErrorIs(t, err, core.ErrUnsupportedAsset)

	_, err = env.service.Create("offerer", env.certID, 1, 5000, env.expiry(), "USDC")
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)

	assert.Equal(t, int64(1000), env.accounts.Balance("offerer", "USDC"))
}

// Accepting pays the holder minus the fee, moves the certificate, and closes
// the offer for good.
func TestAcceptSettlesOnce(t *testing.T) {
	env := newTestEnv(t, 250)
	id, err := env.service.Create("offerer", env.certID, 1, 50, env.expiry(), "USDC")
	require.NoError(t, err)

	assert.ErrorIs(t, env.service.Accept("offerer", id), core.ErrNotHolder)

	require.NoError(t, env.service.Accept("holder", id))

	// fee = floor(50 * 250 / 10000) = 1
	assert.Equal(t, int64(49), env.accounts.Balance("holder", "USDC"))
	assert.Equal(t, int64(1), env.accounts.Balance("platform-treasury", "USDC"))
	assert.Equal(t, int64(950), env.accounts.Balance("offerer", "USDC"))

	cert, err := env.registry.Get(env.certID)
	require.NoError(t, err)
	assert.Equal(t, "offerer", cert.Holder)

	// The settled offer cannot be accepted or cancelled again, even by the
	// new holder.
	assert.ErrorIs(t, env.service.Accept("offerer", id), core.ErrNotActive)
	assert.ErrorIs(t, env.service.Cancel("offerer", id), core.ErrNotActive)
}

func TestAcceptExpiredOffer(t *testing.T) {
	env := newTestEnv(t, 250)
	id, err := env.service.Create("offerer", env.certID, 1, 50, env.expiry(), "USDC")
	require.NoError(t, err)

	env.now = env.now.Add(8 * 24 * time.Hour)
	assert.ErrorIs(t, env.service.Accept("holder", id), core.ErrOfferExpired)

	// The escrow stays pledged until the offerer cancels.
	assert.Equal(t, int64(950), env.accounts.Balance("offerer", "USDC"))
	require.NoError(t, env.service.Cancel("offerer", id))
	assert.Equal(t, int64(1000), env.accounts.Balance("offerer", "USDC"))
}

func TestAcceptBlockedByTransferGates(t *testing.T) {
	env := newTestEnv(t, 250)
	id, err := env.service.Create("offerer", env.certID, 1, 50, env.expiry(), "USDC")
	require.NoError(t, err)

	require.NoError(t, env.registry.SetTransferable("issuer-1", env.certID, false))
	assert.ErrorIs(t, env.service.Accept("holder", id), core.ErrNotTransferable)

	// Nothing settled; the offer is still live.
	assert.Equal(t, int64(0), env.accounts.Balance("holder", "USDC"))
	offer, _ := env.service.Get(id)
	assert.Equal(t, StatusActive, offer.Status)

	require.NoError(t, env.registry.SetTransferable("issuer-1", env.certID, true))
	require.NoError(t, env.service.Accept("holder", id))
}

func TestCancelRefundsOffererOnly(t *testing.T) {
	env := newTestEnv(t, 250)
	id, err := env.service.Create("offerer", env.certID, 2, 30, env.expiry(), "USDC")
	require.NoError(t, err)
	assert.Equal(t, int64(940), env.accounts.Balance("offerer", "USDC"))

	assert.ErrorIs(t, env.service.Cancel("holder", id), core.ErrNotOwner)

	require.NoError(t, env.service.Cancel("offerer", id))
	assert.Equal(t, int64(1000), env.accounts.Balance("offerer", "USDC"))

	assert.ErrorIs(t, env.service.Cancel("offerer", id), core.ErrNotActive)
	assert.ErrorIs(t, env.service.Accept("holder", id), core.ErrNotActive)
}

func TestAcceptWhilePaused(t *testing.T) {
	env := newTestEnv(t, 250)
	id, err := env.service.Create("offerer", env.certID, 1, 50, env.expiry(), "USDC")
	require.NoError(t, err)

	require.NoError(t, env.platform.Pause("platform-admin"))
	assert.ErrorIs(t, env.service.Accept("holder", id), core.ErrPaused)
	_, err = env.service.Create("offerer", env.certID, 1, 50, env.expiry(), "USDC")
	assert.ErrorIs(t, err, core.ErrPaused)

	// A pause must not trap the escrowed offer funds.
	require.NoError(t, env.service.Cancel("offerer", id))
	assert.Equal(t, int64(1000), env.accounts.Balance("offerer", "USDC"))
}
