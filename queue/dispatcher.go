package queue

import (
	"context"
	"time"

	"github.com/travelmind/booking/config"
	"github.com/travelmind/booking/repository"
	"go.uber.org/zap"
)

// BrokerPublisher is implemented by Publisher and by test fakes.
type BrokerPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// Dispatcher drains the outbox: claim due rows, enrich them through the
// bridge, publish, then delete. A row is deleted only after the broker
// accepts the message, so a crash anywhere in the loop leads to a retry,
// never to a lost event. Consumers are expected to deduplicate by id.
type Dispatcher struct {
	outbox     repository.OutboxRepository
	bridge     *EventBridge
	publisher  BrokerPublisher
	interval   time.Duration
	batchSize  int
	backoff    time.Duration
	maxBackoff time.Duration
	log        *zap.SugaredLogger
}

func NewDispatcher(
	outbox repository.OutboxRepository,
	bridge *EventBridge,
	publisher BrokerPublisher,
	cfg config.Outbox,
	log *zap.SugaredLogger,
) *Dispatcher {
	return &Dispatcher{
		outbox:     outbox,
		bridge:     bridge,
		publisher:  publisher,
		interval:   time.Duration(cfg.IntervalMs) * time.Millisecond,
		batchSize:  cfg.BatchSize,
		backoff:    time.Duration(cfg.BackoffMs) * time.Millisecond,
		maxBackoff: time.Duration(cfg.MaxBackoffMs) * time.Millisecond,
		log:        log,
	}
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Infow("outbox dispatcher started", "interval", d.interval, "batch_size", d.batchSize)
	for {
		select {
		case <-ctx.Done():
			d.log.Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
			d.DrainOnce(ctx)
		}
	}
}

// DrainOnce processes one batch of due events.
func (d *Dispatcher) DrainOnce(ctx context.Context) {
	events, err := d.outbox.ClaimDue(time.Now().UTC(), d.batchSize)
	if err != nil {
		d.log.Errorw("failed to claim outbox events", "error", err)
		return
	}

	for _, ev := range events {
		body, err := d.bridge.Message(ev)
		if err != nil {
			d.reschedule(ev.ID, ev.Attempts)
			d.log.Errorw("failed to build event message", "event_id", ev.ID, "event_type", ev.EventType, "error", err)
			continue
		}
		if body == nil {
			if err := d.outbox.Delete(ev.ID); err != nil {
				d.log.Errorw("failed to drop stale outbox event", "event_id", ev.ID, "error", err)
			}
			continue
		}

		if err := d.publisher.Publish(ctx, ev.EventType, body); err != nil {
			d.reschedule(ev.ID, ev.Attempts)
			d.log.Errorw("failed to publish event", "event_id", ev.ID, "event_type", ev.EventType, "error", err)
			continue
		}

		if err := d.outbox.Delete(ev.ID); err != nil {
			// The message is out but the row survived; the next pass will
			// publish a duplicate, which consumers dedupe by id.
			d.log.Errorw("failed to delete dispatched outbox event", "event_id", ev.ID, "error", err)
			continue
		}
		d.log.Debugw("event dispatched", "event_id", ev.ID, "event_type", ev.EventType)
	}
}

func (d *Dispatcher) reschedule(eventID string, attempts int) {
	next := time.Now().UTC().Add(d.backoffFor(attempts))
	if err := d.outbox.Reschedule(eventID, attempts+1, next); err != nil {
		d.log.Errorw("failed to reschedule outbox event", "event_id", eventID, "error", err)
	}
}

// backoffFor doubles the delay per prior attempt, capped at maxBackoff.
func (d *Dispatcher) backoffFor(attempts int) time.Duration {
	delay := d.backoff
	for i := 0; i < attempts && delay < d.maxBackoff; i++ {
		delay *= 2
	}
	if delay > d.maxBackoff {
		delay = d.maxBackoff
	}
	return delay
}
