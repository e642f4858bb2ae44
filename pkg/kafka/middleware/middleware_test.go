package kafka_middleware

import (
	"context"
	"errors"
	"io"
	"testing"

	"facilitybook/pkg/kafka"
	"facilitybook/pkg/logger"
)

func TestMetricsMiddleware(t *testing.T) {
	m := NewMetrics()
	publish := m.ProducerMiddleware()
	consume := m.ConsumerMiddleware()
	msg := kafka.NewMessage().WithKey("k").Build()

	_ = publish(context.Background(), msg, func(context.Context, kafka.Message) error { return nil })
	_ = publish(context.Background(), msg, func(context.Context, kafka.Message) error { return errors.New("down") })
	_ = consume(context.Background(), msg, func(context.Context, kafka.Message) error { return nil })

	s := m.Snapshot()
	if s.Published != 1 || s.PublishFailed != 1 || s.Consumed != 1 || s.ConsumeFailed != 0 {
		t.Errorf("unexpected snapshot %+v", s)
	}
}

func TestLoggingMiddlewarePassesErrorThrough(t *testing.T) {
	log := logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
	boom := errors.New("boom")

	err := LoggingConsumerMiddleware(log)(context.Background(), kafka.Message{}, func(context.Context, kafka.Message) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}
