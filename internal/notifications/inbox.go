package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"facilitybook/pkg/config"
	"facilitybook/pkg/kafka"
	"facilitybook/pkg/logger"
	"facilitybook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const InboxCollectionName = "Messages"

// ErrDuplicateEvent means the event was already stored; redelivery is a no-op.
var ErrDuplicateEvent = errors.New("notification event already delivered")

type InboxRepository interface {
	Insert(ctx context.Context, msg *model.InboxMessage) error
}

type mongoInboxRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoInboxRepository(cfg *config.Config) InboxRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoInboxRepository{
		cfg:        cfg,
		collection: db.Collection(InboxCollectionName),
	}
}

func (r *mongoInboxRepository) Insert(ctx context.Context, msg *model.InboxMessage) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("failed to store inbox message: %w", err)
	}
	return nil
}

// InboxHandler stores notification events in the receiver's inbox. Malformed
// events are permanent failures; store errors are retried.
func InboxHandler(repo InboxRepository, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		if eventType := msg.GetEventType(); eventType != EventNotificationRequested {
			log.Debug("Skipping unrelated event", "event_type", eventType, "event_id", msg.GetEventID())
			return nil
		}

		var n model.Notification
		if err := msg.DecodeValue(&n); err != nil {
			return kafka.NewPermanentError("deserialization failed", err)
		}
		if n.RecipientID == "" {
			return kafka.NewPermanentError("invalid message: missing recipient", nil)
		}

		createdAt := n.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		inbox := &model.InboxMessage{
			EventID:    msg.GetEventID(),
			ReceiverID: n.RecipientID,
			Title:      n.Title,
			Content:    n.Body,
			CreatedAt:  createdAt,
		}
		err := repo.Insert(ctx, inbox)
		switch {
		case err == nil:
			log.Info("Notification delivered to inbox", "receiver_id", n.RecipientID, "event_id", inbox.EventID)
			return nil
		case errors.Is(err, ErrDuplicateEvent):
			log.Debug("Notification already delivered", "event_id", inbox.EventID)
			return nil
		default:
			return kafka.NewTransientError("failed to store inbox message", err)
		}
	}
}
