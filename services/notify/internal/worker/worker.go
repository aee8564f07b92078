// Package worker consumes notification events and hands them to a mailer.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/cinelist/pkg/events"
	"github.com/diagnosis/cinelist/pkg/logger"
	"github.com/diagnosis/cinelist/services/notify/internal/mailer"
)

const sendTimeout = 15 * time.Second

// Deduper remembers delivered event IDs so a redelivery after a lost ack
// does not email the recipient twice.
type Deduper interface {
	Delivered(ctx context.Context, id string) (bool, error)
	MarkDelivered(ctx context.Context, id string) error
}

type Worker struct {
	sub    events.Subscriber
	mailer mailer.Mailer
	dedupe Deduper
	queue  string
}

func New(sub events.Subscriber, m mailer.Mailer, dedupe Deduper, queue string) *Worker {
	return &Worker{sub: sub, mailer: m, dedupe: dedupe, queue: queue}
}

// Start joins the queue group so each event is delivered by one worker.
func (w *Worker) Start() error {
	if err := w.sub.QueueSubscribe(events.NotifySend, w.queue, w.Handle); err != nil {
		return err
	}
	logger.Info("Notify worker subscribed", "subject", events.NotifySend, "queue", w.queue)
	return nil
}

// Handle delivers one notification. A returned error leaves the message
// unacknowledged so JetStream redelivers it; malformed payloads are dropped.
func (w *Worker) Handle(msg *events.Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	var ev events.NotificationEvent
	if err := msg.Decode(&ev); err != nil {
		logger.Error("Dropping malformed notification", "error", err, "msg_id", msg.ID)
		return nil
	}
	if ev.ID == "" {
		ev.ID = msg.ID
	}

	if w.dedupe != nil {
		done, err := w.dedupe.Delivered(ctx, ev.ID)
		if err != nil {
			logger.Warn("Dedupe check failed, sending anyway", "error", err, "event_id", ev.ID)
		} else if done {
			logger.Debug("Skipping duplicate notification", "event_id", ev.ID)
			return nil
		}
	}

	if err := w.mailer.Send(ctx, ev.Recipient, ev.Subject, ev.Body); err != nil {
		logger.Error("Failed to deliver notification",
			"error", err,
			"event_id", ev.ID,
			"type", ev.Type,
			"to", ev.Recipient,
			"attempt", msg.Attempt,
		)
		return fmt.Errorf("deliver %s: %w", ev.ID, err)
	}

	if w.dedupe != nil {
		if err := w.dedupe.MarkDelivered(ctx, ev.ID); err != nil {
			logger.Warn("Failed to record delivery", "error", err, "event_id", ev.ID)
		}
	}

	logger.Info("Notification delivered", "event_id", ev.ID, "type", ev.Type, "to", ev.Recipient)
	return nil
}

// RedisDeduper records delivered IDs with a TTL.
type RedisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

func dedupeKey(id string) string { return "notify:sent:" + id }

func (d *RedisDeduper) Delivered(ctx context.Context, id string) (bool, error) {
	n, err := d.rdb.Exists(ctx, dedupeKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDeduper) MarkDelivered(ctx context.Context, id string) error {
	return d.rdb.Set(ctx, dedupeKey(id), 1, d.ttl).Err()
}
