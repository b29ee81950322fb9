package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

type RetryFunc func(ctx context.Context) error

// Retryer re-executes store operations that failed transiently (network
// faults, timeouts, throttling). Conditional-check failures such as
// duplicate keys are never retried: they are the store's answer, not a
// fault.
type Retryer interface {
	Execute(ctx context.Context, fn RetryFunc) error
}

type backoffRetryer struct {
	maxAttempts int
	baseDelay   time.Duration
}

func NewRetryer(maxAttempts int, baseDelay time.Duration) Retryer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &backoffRetryer{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

func (r *backoffRetryer) Execute(ctx context.Context, fn RetryFunc) error {
	var err error
	delay := r.baseDelay

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt == r.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}

// IsTransient reports whether err is worth retrying. Context cancellation
// and conditional-check failures are final.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return false
	}
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}
