package database

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrUnavailable is returned once transient failures outlast the retry budget.
var ErrUnavailable = errors.New("storage unavailable")

// Retry runs op until it succeeds, fails with a non-transient error, or
// maxRetries retries have been spent on transient errors.
func Retry(ctx context.Context, maxRetries int, op func() error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = 5 * time.Second

	err := backoff.Retry(func() error {
		err := op()
		if err != nil && !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(maxRetries)), ctx))

	if IsTransient(err) {
		return errors.Join(ErrUnavailable, err)
	}
	return err
}
