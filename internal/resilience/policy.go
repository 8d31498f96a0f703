// Package resilience wraps calls to external collaborators with a per-attempt
// timeout and a bounded number of retries.
package resilience

import (
	"context"
	"errors"
	"time"
)

// Policy describes how a single external call is attempted.
type Policy struct {
	// Timeout bounds each attempt. Zero leaves the caller's deadline in charge.
	Timeout time.Duration
	// Retries is the number of extra attempts after the first one fails.
	Retries int
	// Backoff is the wait before the first retry; it doubles for each further retry.
	Backoff time.Duration
	// Retryable decides whether an error is worth another attempt. Nil retries
	// everything except cancellation of the caller's context.
	Retryable func(error) bool
	// OnRetry is called before each retry with the attempt number that failed.
	OnRetry func(attempt int, err error)
}

// SingleRetry is the default policy for the assistant's collaborators: one
// retry after backoff, each attempt bounded by timeout.
func SingleRetry(timeout, backoff time.Duration) Policy {
	return Policy{Timeout: timeout, Retries: 1, Backoff: backoff}
}

// Do runs op under the policy and returns the first success or the last error.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	attempts := p.Retries + 1
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := runAttempt(ctx, p.Timeout, op)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts || ctx.Err() != nil || !p.retryable(err) {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if err := sleep(ctx, p.delay(attempt)); err != nil {
			return zero, lastErr
		}
	}
	return zero, lastErr
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx)
}

// permanentError marks a failure that will repeat on every attempt.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do returns it without retrying. errors.Is and
// errors.As still see the wrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var target *permanentError
	return errors.As(err, &target)
}

func (p Policy) retryable(err error) bool {
	if IsPermanent(err) {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return !errors.Is(err, context.Canceled)
}

func (p Policy) delay(attempt int) time.Duration {
	if p.Backoff <= 0 {
		return 0
	}
	return p.Backoff * time.Duration(1<<(attempt-1))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
