package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunWithRetrySucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	err := RunWithRetry(context.Background(), zap.NewNop(), 3, time.Millisecond, func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestRunWithRetryRecoversAfterFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	err := RunWithRetry(context.Background(), zap.NewNop(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRunWithRetryExhaustsAttempts(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	calls := 0
	err := RunWithRetry(context.Background(), zap.NewNop(), 3, time.Millisecond, func(context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)
}

func TestRunWithRetryStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := RunWithRetry(ctx, zap.NewNop(), 5, time.Minute, func(context.Context) error {
		calls++
		return errors.New("always")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestRecurringRunsUntilStopped(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	job := NewRecurring(5*time.Millisecond, zap.NewNop(), func(context.Context) error {
		runs.Add(1)
		return nil
	})

	job.Start(context.Background())
	time.Sleep(40 * time.Millisecond)
	job.Stop()

	got := runs.Load()
	require.Greater(t, got, int32(1))

	// No further runs after Stop returns.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, got, runs.Load())
}

func TestRecurringKeepsGoingOnError(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	job := NewRecurring(5*time.Millisecond, zap.NewNop(), func(context.Context) error {
		runs.Add(1)
		return errors.New("transient")
	})

	job.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	job.Stop()

	require.Greater(t, runs.Load(), int32(1))
}
