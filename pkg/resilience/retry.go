// SPDX-License-Identifier: Apache-2.0
// Package resilience provides retry and circuit breaker wrappers for
// backend synchronization calls.
package resilience

import (
	"context"
	goerrors "errors"
	"math"
	"math/rand"
	"time"

	"github.com/vibemonitor/vibemonitor-go/pkg/errors"
)

// RetryConfig controls retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (must be >= 1).
	MaxAttempts int

	// InitialDelay is the first backoff delay.
	InitialDelay time.Duration

	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration

	// Multiplier for exponential backoff (default 2.0).
	Multiplier float64

	// Jitter spreads the delay; 0.1 means up to ±10%.
	Jitter float64

	// IsRecoverable decides whether an error is worth retrying. When nil,
	// the VibeError Recoverable flag decides and unknown errors retry.
	IsRecoverable func(error) bool
}

// DefaultRetryConfig is tuned for interactive sync calls: short delays,
// few attempts, so the UI never stalls behind a long backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// WithMaxAttempts returns a copy with MaxAttempts set.
func (rc RetryConfig) WithMaxAttempts(n int) RetryConfig {
	rc.MaxAttempts = n
	return rc
}

// WithIsRecoverable returns a copy with IsRecoverable set.
func (rc RetryConfig) WithIsRecoverable(fn func(error) bool) RetryConfig {
	rc.IsRecoverable = fn
	return rc
}

// Do executes fn, retrying recoverable failures with backoff. The last
// error is returned when every attempt fails.
func (rc RetryConfig) Do(ctx context.Context, fn func() error) error {
	if rc.MaxAttempts < 1 {
		rc.MaxAttempts = 1
	}
	recoverable := rc.IsRecoverable
	if recoverable == nil {
		recoverable = isRecoverableDefault
	}

	var lastErr error
	for attempt := 0; attempt < rc.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.New(errors.CodeInternal, "retry aborted", ctx.Err()).
					WithContext("attempt", attempt)
			case <-time.After(rc.backoff(attempt)):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !recoverable(err) {
			return err
		}
	}
	return lastErr
}

// DoWithResult is Do for functions that produce a value.
func DoWithResult[T any](ctx context.Context, rc RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	err := rc.Do(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

func (rc RetryConfig) backoff(attempt int) time.Duration {
	multiplier := rc.Multiplier
	if multiplier == 0 {
		multiplier = 2.0
	}

	delay := time.Duration(float64(rc.InitialDelay) * math.Pow(multiplier, float64(attempt-1)))
	if rc.MaxDelay > 0 && delay > rc.MaxDelay {
		delay = rc.MaxDelay
	}
	if rc.Jitter > 0 {
		spread := float64(delay) * rc.Jitter * 2 * (rand.Float64() - 0.5)
		delay += time.Duration(spread)
		if delay < 0 {
			delay = 0
		}
	}
	return delay
}

// isRecoverableDefault trusts the typed error's Recoverable flag; errors
// of unknown type retry so transient stdlib failures are not dropped.
func isRecoverableDefault(err error) bool {
	if err == nil {
		return false
	}
	var ve *errors.VibeError
	if goerrors.As(err, &ve) {
		return ve.Recoverable
	}
	return true
}
