// Package notifier sends transactional email on behalf of the API services.
// Delivery itself happens in the notify service; callers here only hand messages off.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/cinelist/pkg/events"
	"github.com/diagnosis/cinelist/pkg/logger"
	"github.com/google/uuid"
)

var ErrDelivery = errors.New("notification delivery failed")

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

type Message struct {
	Type    string
	To      string
	Subject string
	Body    string
}

// EventNotifier publishes messages to the notify.send subject.
type EventNotifier struct {
	publisher events.Publisher
	now       func() time.Time
}

func NewEventNotifier(publisher events.Publisher) *EventNotifier {
	return &EventNotifier{publisher: publisher, now: time.Now}
}

func (n *EventNotifier) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("%w: empty recipient", ErrDelivery)
	}

	ev := events.NotificationEvent{
		ID:        uuid.NewString(),
		Type:      msg.Type,
		Recipient: msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		CreatedAt: n.now().UTC(),
	}
	if err := n.publisher.Publish(ctx, events.NotifySend, ev); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

// Isolated wraps a Notifier so delivery failures are logged and never returned.
type Isolated struct {
	next Notifier
}

func NewIsolated(next Notifier) *Isolated {
	return &Isolated{next: next}
}

func (i *Isolated) Send(ctx context.Context, msg Message) error {
	if err := i.next.Send(ctx, msg); err != nil {
		logger.WarnContext(ctx, "Notification not sent",
			"error", err,
			"type", msg.Type,
			"to", msg.To,
		)
	}
	return nil
}

// Discard drops every message. Used when no event bus is configured.
type Discard struct{}

func (Discard) Send(context.Context, Message) error { return nil }
