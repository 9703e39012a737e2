package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	start := time.Now()

	value, err := Do(context.Background(), 3, Constant(100*time.Millisecond), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, 3, calls)
	// Two failures mean two waits.
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}

func TestDoReturnsOriginalErrorAfterExhaustion(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	_, err := Do(context.Background(), 3, nil, func(context.Context) (int, error) {
		calls++
		return 0, boom
	})

	assert.Equal(t, 3, calls)
	// The last error is surfaced unchanged, not wrapped.
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "boom", err.Error())
}

func TestDoDoesNotRetryOnSuccess(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), 5, nil, func(context.Context) (int, error) {
		calls++
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoTreatsNonPositiveAttemptsAsOne(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), 0, nil, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("nope")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, 3, Constant(time.Hour), func(context.Context) (int, error) {
		return 0, errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExponentialBackoff(t *testing.T) {
	backoff := Exponential(100 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, backoff(1))
	assert.Equal(t, 200*time.Millisecond, backoff(2))
	assert.Equal(t, 400*time.Millisecond, backoff(3))
}
