package storage

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// RetryPolicy bounds Connect's attempts.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries five times starting at half a second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxTries:        5,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// Connect calls open until it succeeds, ctx ends or the policy runs out.
// Each failure is logged with the wait before the next attempt.
func Connect[T any](ctx context.Context, logger *zap.Logger, name string, policy RetryPolicy, open func(context.Context) (T, error)) (T, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MaxTries == 0 {
		policy.MaxTries = 1
	}

	expo := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		expo.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		expo.MaxInterval = policy.MaxInterval
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("storage connect failed, retrying",
			zap.String("backend", name),
			zap.Error(err),
			zap.Duration("backoff", wait),
		)
	}

	return backoff.Retry(ctx, func() (T, error) { return open(ctx) },
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(policy.MaxTries),
		backoff.WithNotify(notify),
	)
}
