package main

import (
	"context"

	"facilitybook/internal/bookings/handler"
	"facilitybook/internal/bookings/lock"
	"facilitybook/internal/bookings/repository"
	"facilitybook/internal/bookings/service"
	"facilitybook/internal/bookings/validator"
	"facilitybook/internal/directory"
	"facilitybook/internal/notifications"
	"facilitybook/pkg/app"
	"facilitybook/pkg/auth"
	"facilitybook/pkg/config"
	"facilitybook/pkg/kafka"
	kafka_config "facilitybook/pkg/kafka/config"
	kafka_middleware "facilitybook/pkg/kafka/middleware"
	"facilitybook/pkg/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)

	locker := initLocker(cfg)
	notifier := initNotifier(cfg, serverApp)
	bookingService := initServices(cfg, locker, notifier)

	tokens := auth.NewTokenManager(cfg.JWTSecret, auth.DefaultIssuer)
	users := directory.New(directory.NewMongoUserStore(cfg))

	serverApp.SetApp(
		handler.NewBookingHandler(bookingService, cfg.Location, cfg.Log),
		handler.NewHealthHandler(initHealthChecks(cfg), cfg.Log),
		middleware.Authenticate(tokens, users, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config, locker lock.Locker, notifier notifications.Notifier) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	facilityRepo := repository.NewMongoFacilityRepository(cfg)
	bookingService := service.NewBookingService(
		bookingRepo,
		facilityRepo,
		locker,
		notifier,
		bookingValidator,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

func initLocker(cfg *config.Config) lock.Locker {
	switch cfg.LockBackend {
	case config.LockBackendRedis:
		cfg.SetRedis()
		cfg.Log.Info("Using Redis decision locks")
		return lock.NewRedisLocker(cfg.Client.Redis)
	case config.LockBackendMemory:
		cfg.Log.Warn("Using in-process decision locks; run a single replica only")
		return lock.NewMemoryLocker()
	default:
		cfg.Log.Info("Using MongoDB decision locks")
		return lock.NewMongoLocker(repository.NewBookingLockRepository(cfg))
	}
}

func initNotifier(cfg *config.Config, serverApp *app.Application) notifications.Notifier {
	if !cfg.NotificationsEnabled {
		cfg.Log.Info("Notifications disabled")
		return notifications.NoopNotifier{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotificationTopic, kafkaCfg.DLQTopic(cfg.NotificationTopic), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create notification producer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(metrics.ProducerMiddleware())
	}

	notifier := notifications.NewKafkaNotifier(producer, cfg.NotifyTimeout, cfg.Log)
	serverApp.OnShutdown(func() {
		notifier.Wait()
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close notification producer", "error", err)
		}
		snapshot := metrics.Snapshot()
		cfg.Log.Info("Notification producer stopped",
			"published", snapshot.Published,
			"failed", snapshot.PublishFailed,
			"avg_publish_duration", snapshot.AvgPublishDuration,
		)
	})

	cfg.Log.Info("Kafka notifications enabled", "topic", cfg.NotificationTopic)
	return notifier
}

func initHealthChecks(cfg *config.Config) map[string]handler.Check {
	checks := map[string]handler.Check{
		"mongo": func(ctx context.Context) error {
			return cfg.Client.Mongo.Ping(ctx, nil)
		},
	}
	if cfg.Client.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return cfg.Client.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
