// Package retry runs an operation again with exponential backoff until it
// succeeds, the attempts run out, or the context ends.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	// MaxDelay caps the doubling delay. Zero means no cap.
	MaxDelay time.Duration
	// OnRetry, when set, is called after a failed attempt that will be
	// retried, with the 1-based attempt number and the wait before the next.
	OnRetry func(attempt int, delay time.Duration, err error)
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do calls fn until it returns nil. It returns the last error from fn, or
// the context error if ctx ends first.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		if err = fn(ctx); err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt == attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return err
}
