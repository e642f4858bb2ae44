package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "facilitybook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisURL = "redis://localhost:6379/0"

	DefaultPort     = "8080"
	DefaultLogLevel = "info"
	DefaultTimezone = "Asia/Seoul"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultLockBackend     = LockBackendMongo
	DefaultLockTTL         = 10 * time.Second
	DefaultLockWaitTimeout = 3 * time.Second

	DefaultNotificationsEnabled = false
	DefaultNotificationTopic    = "booking-notifications"
	DefaultNotifyTimeout        = 5 * time.Second

	DefaultPaginationLimit = 100
)

const (
	LockBackendMongo  = "mongo"
	LockBackendRedis  = "redis"
	LockBackendMemory = "memory"
)
