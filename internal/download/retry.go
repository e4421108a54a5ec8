package download

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
)

// RetryPolicy defines how failed part downloads are retried.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// NewRetryPolicy builds a policy from the configured settings.
func NewRetryPolicy(settings entities.RetrySettings) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  settings.MaxAttempts,
		InitialDelay: settings.InitialDelay,
		MaxDelay:     settings.MaxDelay,
		Multiplier:   settings.Multiplier,
	}
}

// Execute runs fn until it succeeds, returns a non-retryable error, the
// attempts are exhausted, or the context is done. Missing artifacts are
// never retried.
func (it RetryPolicy) Execute(ctx context.Context, operation string, fn func() error) error {
	attempts := max(it.MaxAttempts, 1)

	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = it.InitialDelay
	exponential.MaxInterval = it.MaxDelay
	if it.Multiplier > 1 {
		exponential.Multiplier = it.Multiplier
	}
	exponential.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(exponential, uint64(attempts-1)), ctx) //nolint:gosec // attempts >= 1

	attempt := 0
	err := backoff.RetryNotify(
		func() error {
			attempt++
			opErr := fn()
			if opErr != nil && errors.Is(opErr, entities.ErrNotFound) {
				return backoff.Permanent(opErr)
			}
			return opErr
		},
		policy,
		func(err error, delay time.Duration) {
			logger.Warnf("[download] %s failed (attempt %d/%d), retrying in %s: %v",
				operation, attempt, attempts, delay, err)
		},
	)
	if err != nil {
		return fmt.Errorf("%s failed after %d attempt(s): %w", operation, attempt, err)
	}
	return nil
}
