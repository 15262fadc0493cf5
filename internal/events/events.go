package events

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is the structured record emitted by every state-changing operation.
// The analytics mirror and the metadata indexer consume these events; the
// settlement core never calls into those systems directly.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Operation string            `json:"operation"`
	Entity    string            `json:"entity"`
	EntityID  int64             `json:"entity_id"`
	Actors    map[string]string `json:"actors,omitempty"`
	Amounts   map[string]int64  `json:"amounts,omitempty"`
	Asset     string            `json:"asset,omitempty"`
	At        time.Time         `json:"at"`
}

// Emitter receives events. Emit must not block settlement.
type Emitter interface {
	Emit(ev Event)
}

// Stamp fills the id and timestamp if the producing service left them zero.
func Stamp(ev Event, at time.Time) Event {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.At.IsZero() {
		ev.At = at
	}
	return ev
}

// LogEmitter writes events as structured log lines.
type LogEmitter struct {
	logger *zap.Logger
}

func NewLogEmitter(logger *zap.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(ev Event) {
	fields := []zap.Field{
		zap.String("event_id", ev.ID.String()),
		zap.String("entity", ev.Entity),
		zap.Int64("entity_id", ev.EntityID),
		zap.Time("at", ev.At),
	}
	if ev.Asset != "" {
		fields = append(fields, zap.String("asset", ev.Asset))
	}
	for role, identity := range ev.Actors {
		fields = append(fields, zap.String(role, identity))
	}
	for name, amount := range ev.Amounts {
		fields = append(fields, zap.Int64(name, amount))
	}
	e.logger.Info(ev.Operation, fields...)
}

// Feed buffers events for the analytics mirror flusher. When the buffer is
// full the oldest events are dropped rather than blocking settlement; the
// mirror is eventually consistent, the ledger is not allowed to stall.
type Feed struct {
	ch chan Event
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 1024
	}
	return &Feed{ch: make(chan Event, size)}
}

func (f *Feed) Emit(ev Event) {
	for {
		select {
		case f.ch <- ev:
			return
		default:
			select {
			case <-f.ch:
			default:
			}
		}
	}
}

// Drain removes up to max buffered events.
func (f *Feed) Drain(max int) []Event {
	out := make([]Event, 0, max)
	for len(out) < max {
		select {
		case ev := <-f.ch:
			out = append(out, ev)
		default:
			return out
		}
	}
	return out
}

// Multi fans one event out to several sinks.
type Multi []Emitter

func (m Multi) Emit(ev Event) {
	for _, e := range m {
		e.Emit(ev)
	}
}
