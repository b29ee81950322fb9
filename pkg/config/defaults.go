package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "stayhub"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"

	DefaultPort = "8080"

	DefaultRateLimitRequests = 20
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultStoreReadTimeout    = 5 * time.Second
	DefaultStoreWriteTimeout   = 5 * time.Second
	DefaultStoreMaxAttempts    = 3
	DefaultStoreRetryBaseDelay = 50 * time.Millisecond

	DefaultReservationLockTTL = 10 * time.Second

	DefaultPropertyCacheTTL = 30 * time.Minute

	DefaultBookingEventsTopic  = "stayhub.bookings"
	DefaultPropertyEventsTopic = "stayhub.properties"

	DefaultPaginationLimit = 100

	DefaultLogLevel = "info"
)
