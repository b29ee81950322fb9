package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvStoreReadTimeout    = "STORE_READ_TIMEOUT"
	EnvStoreWriteTimeout   = "STORE_WRITE_TIMEOUT"
	EnvStoreMaxAttempts    = "STORE_MAX_ATTEMPTS"
	EnvStoreRetryBaseDelay = "STORE_RETRY_BASE_DELAY"

	EnvReservationLockTTL = "RESERVATION_LOCK_TTL"

	EnvPropertyCacheTTL = "PROPERTY_CACHE_TTL"

	EnvBookingEventsTopic  = "BOOKING_EVENTS_TOPIC"
	EnvPropertyEventsTopic = "PROPERTY_EVENTS_TOPIC"
)
