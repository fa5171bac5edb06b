// Package retry re-runs operations that lost a conditional-write race.
// Only apperr.ErrWriteConflict is retried; every other error returns at once.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/ghuser/storefront/pkg/apperr"
)

const (
	// MaxConflictTries bounds attempts of one logical operation.
	MaxConflictTries = 3

	initialInterval = 20 * time.Millisecond
	maxInterval     = 200 * time.Millisecond
)

// OnConflict calls op until it succeeds, fails with a non-conflict error, or
// MaxConflictTries attempts have been made. The last conflict is returned
// unchanged so callers can still match apperr.ErrWriteConflict.
func OnConflict[T any](ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op(ctx)
		if err != nil && !errors.Is(err, apperr.ErrWriteConflict) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(newExponential(initialInterval, maxInterval)),
		backoff.WithMaxTries(MaxConflictTries),
	)
}

// Until polls op with exponential backoff until it succeeds, fails with a
// non-conflict error, or maxWait elapses.
func Until[T any](ctx context.Context, maxWait time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op(ctx)
		if err != nil && !errors.Is(err, apperr.ErrWriteConflict) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(newExponential(initialInterval, time.Second)),
		backoff.WithMaxElapsedTime(maxWait),
	)
}

func newExponential(initial, ceiling time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = ceiling
	return b
}
