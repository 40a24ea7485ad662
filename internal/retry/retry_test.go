package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsEventually(t *testing.T) {
	calls := 0
	err := Policy{Attempts: 5, BaseDelay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsLastError(t *testing.T) {
	calls := 0
	err := Policy{Attempts: 3, BaseDelay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("down")
	})
	assert.EqualError(t, err, "down")
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Policy{Attempts: 3, BaseDelay: time.Millisecond}.Do(ctx, func(context.Context) error {
		calls++
		return errors.New("down")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	bad := errors.New("bad dsn")
	calls := 0
	err := Policy{Attempts: 5, BaseDelay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(bad)
	})
	assert.Same(t, bad, err)
	assert.Equal(t, 1, calls)
}

func TestOnRetryReportsAttemptsAndCappedDelays(t *testing.T) {
	type call struct {
		attempt int
		delay   time.Duration
	}
	var calls []call

	p := Policy{
		Attempts:  4,
		BaseDelay: time.Millisecond,
		MaxDelay:  3 * time.Millisecond,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			require.EqualError(t, err, "down")
			calls = append(calls, call{attempt, delay})
		},
	}
	err := p.Do(context.Background(), func(context.Context) error { return errors.New("down") })
	require.Error(t, err)

	assert.Equal(t, []call{
		{1, time.Millisecond},
		{2, 2 * time.Millisecond},
		{3, 3 * time.Millisecond},
	}, calls)
}
