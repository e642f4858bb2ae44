// Package notifications delivers best-effort messages to users. Sending
// never fails the operation that triggered it.
package notifications

import (
	"context"
	"sync"
	"time"

	"facilitybook/pkg/kafka"
	"facilitybook/pkg/logger"
	"facilitybook/pkg/middleware"
	"facilitybook/pkg/model"
)

const (
	EventNotificationRequested = "notification.requested"
	SchemaVersion              = "1"
	sourceName                 = "bookings"
)

// Notifier is fire-and-forget: implementations log and drop failures.
type Notifier interface {
	Notify(ctx context.Context, recipientID, title, body string)
}

type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string, string, string) {}

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaNotifier publishes each notification from its own goroutine with a
// detached context bounded by timeout.
type KafkaNotifier struct {
	publisher Publisher
	timeout   time.Duration
	log       *logger.Logger
	clock     func() time.Time
	wg        sync.WaitGroup
}

func NewKafkaNotifier(publisher Publisher, timeout time.Duration, log *logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		publisher: publisher,
		timeout:   timeout,
		log:       log,
		clock:     time.Now,
	}
}

func (n *KafkaNotifier) Notify(ctx context.Context, recipientID, title, body string) {
	if recipientID == "" {
		return
	}

	notification := model.Notification{
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
		CreatedAt:   n.clock().UTC(),
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()

		msg, err := kafka.NewMessage().
			WithKey(recipientID).
			WithEventType(EventNotificationRequested).
			WithSchemaVersion(SchemaVersion).
			WithSource(sourceName).
			WithCorrelationID(middleware.RequestIDFromContext(ctx)).
			WithValue(notification).
			BuildE()
		if err == nil {
			err = n.publisher.Publish(sendCtx, msg)
		}
		if err != nil {
			n.log.Warn("Failed to send notification",
				"recipient_id", recipientID,
				"title", title,
				"error", err,
			)
			return
		}
		n.log.Debug("Notification sent", "recipient_id", recipientID, "event_id", msg.GetEventID())
	}()
}

// Wait blocks until in-flight sends finish. Called on shutdown.
func (n *KafkaNotifier) Wait() {
	n.wg.Wait()
}
