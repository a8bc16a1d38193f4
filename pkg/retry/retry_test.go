package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/storefront/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary")

func TestDo(t *testing.T) {
	cfg := retry.RetryConfig{
		MaxAttempts: 3,
		Backoff:     retry.LineareBackoff(time.Millisecond),
	}

	t.Run("SucceedsAfterRetries", func(t *testing.T) {
		var calls int
		err := retry.Do(t.Context(), cfg, func() error {
			calls++
			if calls < 3 {
				return errTemporary
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("ReturnsLastError", func(t *testing.T) {
		var calls int
		err := retry.Do(t.Context(), cfg, func() error {
			calls++
			return errTemporary
		})
		assert.ErrorIs(t, err, errTemporary)
		assert.Equal(t, 3, calls)
	})

	t.Run("StopsOnPermanentError", func(t *testing.T) {
		errPermanent := errors.New("permanent")
		c := cfg
		c.ShouldRetry = func(err error) bool { return errors.Is(err, errTemporary) }

		var calls int
		err := retry.Do(t.Context(), c, func() error {
			calls++
			return errPermanent
		})
		assert.ErrorIs(t, err, errPermanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		err := retry.Do(ctx, cfg, func() error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDoWithResult(t *testing.T) {
	v, err := retry.DoWithResult(t.Context(), retry.RetryConfig{}, func() (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestExponentialBackoff(t *testing.T) {
	b := retry.ExponentialBackoff(10 * time.Millisecond)
	for attempt, base := range map[int]time.Duration{
		1: 10 * time.Millisecond,
		2: 20 * time.Millisecond,
		3: 40 * time.Millisecond,
	} {
		d := b(attempt)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+base/2)
	}
}
