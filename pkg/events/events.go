package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/diagnosis/cinelist/pkg/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

// Handler processes one delivery. A nil error acknowledges the message; an
// error asks the server to redeliver it.
type Handler func(msg *Message) error

type Subscriber interface {
	QueueSubscribe(subject, queue string, handler Handler) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
	Attempt   uint64
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v interface{}) error {
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s message: %w", m.Subject, err)
	}
	return nil
}

// headerMsgID doubles as the JetStream publish dedupe key.
const headerMsgID = nats.MsgIdHdr

const (
	ackWait     = 30 * time.Second
	maxDeliver  = 5
	retryDelay  = 10 * time.Second
	dedupWindow = 2 * time.Minute
)

type NATSEventBus struct {
	conn *nats.Conn
	js   nats.JetStreamContext

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewNATSEventBus(url, name string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open JetStream context: %w", err)
	}

	return &NATSEventBus{conn: conn, js: js}, nil
}

// EnsureStream creates the stream capturing subjects unless it already exists.
func (n *NATSEventBus) EnsureStream(name string, subjects ...string) error {
	_, err := n.js.StreamInfo(name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream %s info: %w", name, err)
	}

	_, err = n.js.AddStream(&nats.StreamConfig{
		Name:       name,
		Subjects:   subjects,
		Storage:    nats.FileStorage,
		Retention:  nats.WorkQueuePolicy,
		MaxAge:     24 * time.Hour,
		Duplicates: dedupWindow,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("create stream %s: %w", name, err)
	}
	logger.Info("JetStream stream ready", "stream", name, "subjects", subjects)
	return nil
}

// Publish stores the event in JetStream. The Msg-Id header lets the server
// drop a retried publish of the same event.
func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set(headerMsgID, uuid.NewString())
	if requestID := logger.RequestID(ctx); requestID != "" {
		msg.Header.Set("X-Request-ID", requestID)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject)

	if _, err := n.js.PublishMsg(msg, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// QueueSubscribe binds a durable consumer named after queue. Each message is
// acked only after handler succeeds; failures are redelivered up to maxDeliver times.
func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler Handler) error {
	sub, err := n.js.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		m := toMessage(msg)
		if err := handler(m); err != nil {
			if m.Attempt >= maxDeliver {
				logger.Error("Giving up on message", "subject", m.Subject, "msg_id", m.ID, "attempt", m.Attempt, "error", err)
				_ = msg.Term()
				return
			}
			_ = msg.NakWithDelay(retryDelay)
			return
		}
		if err := msg.Ack(); err != nil {
			logger.Warn("Ack failed", "subject", m.Subject, "msg_id", m.ID, "error", err)
		}
	},
		nats.Durable(queue),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.AckWait(ackWait),
		nats.MaxDeliver(maxDeliver),
	)
	if err != nil {
		return err
	}
	n.track(sub)
	return nil
}

func (n *NATSEventBus) track(sub *nats.Subscription) {
	n.mu.Lock()
	n.subs = append(n.subs, sub)
	n.mu.Unlock()
}

// Close drains subscriptions so in-flight handlers finish before the connection closes.
func (n *NATSEventBus) Close() error {
	n.mu.Lock()
	subs := n.subs
	n.subs = nil
	n.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			logger.Warn("NATS subscription drain failed", "subject", sub.Subject, "error", err)
		}
	}
	return n.conn.Drain()
}

func toMessage(msg *nats.Msg) *Message {
	id := ""
	if msg.Header != nil {
		id = msg.Header.Get(headerMsgID)
	}
	if id == "" {
		id = uuid.NewString()
	}
	attempt := uint64(1)
	if meta, err := msg.Metadata(); err == nil {
		attempt = meta.NumDelivered
	}
	return &Message{
		Subject:   msg.Subject,
		Data:      msg.Data,
		Timestamp: time.Now(),
		ID:        id,
		Attempt:   attempt,
	}
}

// Streams and subjects
const (
	NotifyStream = "NOTIFY"
	NotifySend   = "notify.send"
)

// Notification types carried on NotifySend.
const (
	NotificationOTP              = "otp"
	NotificationReviewAdded      = "review_added"
	NotificationWatchlistAdded   = "watchlist_added"
	NotificationWatchlistRemoved = "watchlist_removed"
)

type NotificationEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
