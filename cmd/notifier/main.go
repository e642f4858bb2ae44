package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"facilitybook/internal/notifications"
	"facilitybook/pkg/config"
	"facilitybook/pkg/kafka"
	kafka_config "facilitybook/pkg/kafka/config"
	kafka_middleware "facilitybook/pkg/kafka/middleware"
)

const ServiceName = "notifier"

// The notifier consumes notification events and stores them in user inboxes.
func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	inbox := notifications.NewMongoInboxRepository(cfg)
	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.NotificationTopic,
		kafkaCfg.ConsumerGroupID,
		kafkaCfg.DLQTopic(cfg.NotificationTopic),
		notifications.InboxHandler(inbox, cfg.Log),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create inbox consumer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(metrics.ConsumerMiddleware())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting notification inbox consumer",
		"topic", cfg.NotificationTopic,
		"group_id", kafkaCfg.ConsumerGroupID,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Inbox consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close inbox consumer", "error", err)
	}
	snapshot := metrics.Snapshot()
	cfg.Log.Info("Notification inbox consumer stopped",
		"consumed", snapshot.Consumed,
		"failed", snapshot.ConsumeFailed,
		"avg_consume_duration", snapshot.AvgConsumeDuration,
	)
}
