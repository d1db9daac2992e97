package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/walfleet/walfleet/internal/logging"
)

// Emitter publishes task lifecycle events through a Publisher. Delivery
// is advisory: publish failures are logged and dropped so a broker
// outage never fails a backup task.
type Emitter struct {
	pub    Publisher
	logger *logging.Logger
}

// NewEmitter creates an emitter on top of a publisher.
func NewEmitter(pub Publisher) *Emitter {
	return &Emitter{
		pub:    pub,
		logger: logging.Global().With("component", "events"),
	}
}

// Emit encodes and publishes one event. A zero Time is stamped with the
// current time.
func (e *Emitter) Emit(ctx context.Context, ev TaskEvent) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		e.logger.Error("failed to encode task event",
			"type", string(ev.Type), "task_id", ev.ID, "error", err)
		return
	}
	if err := e.pub.Publish(ctx, ev.Subject(), data); err != nil {
		e.logger.Warn("failed to publish task event",
			"type", string(ev.Type), "subject", ev.Subject(), "task_id", ev.ID, "error", err)
	}
}

// Close closes the underlying publisher.
func (e *Emitter) Close() error {
	return e.pub.Close()
}
