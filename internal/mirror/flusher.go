package mirror

import (
	"context"
	"encoding/json"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"carbonmark/marketplace-backend/internal/events"
)

const drainBatch = 500

// Flusher drains the buffered event feed into the relational mirror on a
// cron schedule. Mirror lag is acceptable; entity expiry is never driven
// from here, it stays lazy in the settlement core.
type Flusher struct {
	feed   *events.Feed
	repo   Repository
	logger *zap.Logger
	cron   *cron.Cron
}

func NewFlusher(feed *events.Feed, repo Repository, logger *zap.Logger) *Flusher {
	return &Flusher{
		feed:   feed,
		repo:   repo,
		logger: logger,
		cron:   cron.New(cron.WithSeconds()),
	}
}

// Start begins flushing on the given cron spec (e.g. "*/10 * * * * *").
func (f *Flusher) Start(spec string) error {
	if _, err := f.cron.AddFunc(spec, f.Flush); err != nil {
		return err
	}
	f.cron.Start()
	return nil
}

// Stop halts the schedule and flushes whatever is still buffered.
func (f *Flusher) Stop() {
	ctx := f.cron.Stop()
	<-ctx.Done()
	f.Flush()
}

// Flush drains one batch of events into the mirror.
func (f *Flusher) Flush() {
	evs := f.feed.Drain(drainBatch)
	if len(evs) == 0 {
		return
	}
	records := make([]EventRecord, 0, len(evs))
	for _, ev := range evs {
		records = append(records, toRecord(ev))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := f.repo.SaveBatch(ctx, records); err != nil {
		f.logger.Error("mirror flush failed", zap.Int("events", len(records)), zap.Error(err))
		return
	}
	f.logger.Debug("mirror flushed", zap.Int("events", len(records)))
}

func toRecord(ev events.Event) EventRecord {
	actors, _ := json.Marshal(ev.Actors)
	amounts, _ := json.Marshal(ev.Amounts)
	return EventRecord{
		ID:         ev.ID,
		Operation:  ev.Operation,
		Entity:     ev.Entity,
		EntityID:   ev.EntityID,
		Actors:     datatypes.JSON(actors),
		Amounts:    datatypes.JSON(amounts),
		Asset:      ev.Asset,
		OccurredAt: ev.At,
	}
}
