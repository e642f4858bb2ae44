package notifications

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"facilitybook/pkg/kafka"
	"facilitybook/pkg/logger"
	"facilitybook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	deadline bool
}

func (p *recordingPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, p.deadline = ctx.Deadline()
	p.messages = append(p.messages, msg)
	return p.err
}

func TestKafkaNotifier_PublishesNotification(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewKafkaNotifier(pub, time.Second, testLogger())
	n.clock = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }

	ctx, cancel := context.WithCancel(context.Background())
	n.Notify(ctx, "u1", "Booking approved", "Your booking was approved.")
	cancel()
	n.Wait()

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	assert.Equal(t, "u1", msg.Key)
	assert.Equal(t, EventNotificationRequested, msg.GetEventType())
	assert.True(t, pub.deadline, "publish runs under its own timeout")

	var decoded model.Notification
	require.NoError(t, msg.DecodeValue(&decoded))
	assert.Equal(t, "Booking approved", decoded.Title)
	assert.Equal(t, "Your booking was approved.", decoded.Body)
}

func TestKafkaNotifier_SwallowsFailures(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	n := NewKafkaNotifier(pub, time.Second, testLogger())

	assert.NotPanics(t, func() {
		n.Notify(context.Background(), "u1", "t", "b")
		n.Wait()
	})
}

func TestKafkaNotifier_SkipsEmptyRecipient(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewKafkaNotifier(pub, time.Second, testLogger())

	n.Notify(context.Background(), "", "t", "b")
	n.Wait()
	assert.Empty(t, pub.messages)
}

type fakeInbox struct {
	stored []*model.InboxMessage
	seen   map[string]bool
	err    error
}

func (f *fakeInbox) Insert(_ context.Context, msg *model.InboxMessage) error {
	if f.err != nil {
		return f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[msg.EventID] {
		return ErrDuplicateEvent
	}
	f.seen[msg.EventID] = true
	f.stored = append(f.stored, msg)
	return nil
}

func notificationMessage(t *testing.T, eventID string, n model.Notification) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey(n.RecipientID).
		WithEventID(eventID).
		WithEventType(EventNotificationRequested).
		WithValue(n).
		BuildE()
	require.NoError(t, err)
	return msg
}

func TestInboxHandler_StoresOnceWithoutSender(t *testing.T) {
	inbox := &fakeInbox{}
	handle := InboxHandler(inbox, testLogger())
	msg := notificationMessage(t, "evt-1", model.Notification{RecipientID: "u1", Title: "Booking rejected", Body: "Reason: full"})

	require.NoError(t, handle(context.Background(), msg))
	require.NoError(t, handle(context.Background(), msg), "redelivery is idempotent")

	require.Len(t, inbox.stored, 1)
	stored := inbox.stored[0]
	assert.Equal(t, "u1", stored.ReceiverID)
	assert.Nil(t, stored.SenderID)
	assert.Equal(t, "Reason: full", stored.Content)
	assert.False(t, stored.Read)
}

func TestInboxHandler_ErrorClassification(t *testing.T) {
	handle := InboxHandler(&fakeInbox{}, testLogger())

	bad := kafka.NewMessage().WithKey("u1").WithEventType(EventNotificationRequested).Build()
	bad.Value = []byte("{not json")
	err := handle(context.Background(), bad)
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))

	missing := notificationMessage(t, "evt-2", model.Notification{Title: "x"})
	err = handle(context.Background(), missing)
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))

	storeDown := InboxHandler(&fakeInbox{err: errors.New("server selection error")}, testLogger())
	err = storeDown(context.Background(), notificationMessage(t, "evt-3", model.Notification{RecipientID: "u1"}))
	assert.Equal(t, kafka.ErrorTypeTransient, kafka.ClassifyError(err))
}

func TestInboxHandler_IgnoresOtherEvents(t *testing.T) {
	inbox := &fakeInbox{}
	msg := kafka.NewMessage().WithKey("u1").WithEventType("something.else").WithValue(map[string]string{}).Build()

	require.NoError(t, InboxHandler(inbox, testLogger())(context.Background(), msg))
	assert.Empty(t, inbox.stored)
}
