package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carbonmark/marketplace-backend/internal/events"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) SaveBatch(ctx context.Context, records []EventRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockRepository) CountByOperation(ctx context.Context, operation string) (int64, error) {
	args := m.Called(ctx, operation)
	return args.Get(0).(int64), args.Error(1)
}

func sampleEvent(op string) events.Event {
	return events.Stamp(events.Event{
		Operation: op,
		Entity:    "listing",
		EntityID:  3,
		Actors:    map[string]string{"buyer": "alice", "seller": "bob"},
		Amounts:   map[string]int64{"total": 30, "fee": 0},
		Asset:     "USDC",
	}, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestFlushDrainsFeedIntoRepository(t *testing.T) {
	feed := events.NewFeed(16)
	feed.Emit(sampleEvent("listing.purchased"))
	feed.Emit(sampleEvent("listing.cancelled"))

	repo := new(MockRepository)
	var saved []EventRecord
	repo.On("SaveBatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).([]EventRecord)
	}).Return(nil)

	NewFlusher(feed, repo, zap.NewNop()).Flush()

	repo.AssertNumberOfCalls(t, "SaveBatch", 1)
	require.Len(t, saved, 2)
	assert.Equal(t, "listing.purchased", saved[0].Operation)
	assert.Equal(t, "listing.cancelled", saved[1].Operation)
	assert.NotEqual(t, uuid.Nil, saved[0].ID)
	assert.JSONEq(t, `{"buyer":"alice","seller":"bob"}`, string(saved[0].Actors))
	assert.JSONEq(t, `{"total":30,"fee":0}`, string(saved[0].Amounts))
	assert.Equal(t, "USDC", saved[0].Asset)

	// The feed is empty afterwards; a second flush writes nothing.
	NewFlusher(feed, repo, zap.NewNop()).Flush()
	repo.AssertNumberOfCalls(t, "SaveBatch", 1)
}

func TestFlushKeepsGoingAfterRepositoryError(t *testing.T) {
	feed := events.NewFeed(16)
	feed.Emit(sampleEvent("escrow.release"))

	repo := new(MockRepository)
	repo.On("SaveBatch", mock.Anything, mock.Anything).Return(assert.AnError)

	flusher := NewFlusher(feed, repo, zap.NewNop())
	flusher.Flush()
	repo.AssertNumberOfCalls(t, "SaveBatch", 1)

	// A later event still reaches the repository.
	feed.Emit(sampleEvent("escrow.refund"))
	flusher.Flush()
	repo.AssertNumberOfCalls(t, "SaveBatch", 2)
}

func TestFeedDropsOldestWhenFull(t *testing.T) {
	feed := events.NewFeed(2)
	feed.Emit(sampleEvent("first"))
	feed.Emit(sampleEvent("second"))
	feed.Emit(sampleEvent("third"))

	drained := feed.Drain(10)
	require.Len(t, drained, 2)
	assert.Equal(t, "second", drained[0].Operation)
	assert.Equal(t, "third", drained[1].Operation)
}
