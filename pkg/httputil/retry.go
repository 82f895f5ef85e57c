package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Policy.Do] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks err as retryable. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err (or anything it wraps) is a [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Policy describes bounded exponential backoff. The zero value makes a
// single attempt.
type Policy struct {
	MaxAttempts int           // Total attempts including the first (minimum 1)
	BaseDelay   time.Duration // Wait before the second attempt
	Multiplier  float64       // Delay growth per attempt (values below 1 mean 1)
	MaxDelay    time.Duration // Upper bound for a single wait (0 = unbounded)

	// OnRetry, if set, is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy is used by repository clients unless configured otherwise:
// 3 attempts, 500ms initial delay, doubling, capped at 10s.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	Multiplier:  2,
	MaxDelay:    10 * time.Second,
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	mult := max(p.Multiplier, 1)
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= mult
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Do executes fn up to MaxAttempts times. It only retries errors wrapped
// with [RetryableError]; other errors are returned immediately. Returns the
// last error if all attempts fail, or ctx.Err() if cancelled while waiting.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := max(p.MaxAttempts, 1)
	var lastErr error

	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(i); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts {
			delay := p.Delay(i)
			if p.OnRetry != nil {
				p.OnRetry(i, lastErr, delay)
			}
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return lastErr
}
