// Package schedule provides small building blocks for background jobs: a
// bounded retry runner used at process startup and a fixed-interval loop used
// for recurring maintenance work.
package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunWithRetry invokes fn up to attempts times, waiting delay between
// attempts. It returns nil as soon as one attempt succeeds, the last error
// once the attempts are exhausted, or ctx.Err() if the context is cancelled
// while waiting.
func RunWithRetry(ctx context.Context, logger *zap.Logger, attempts int, delay time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		logger.Warn("job attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(lastErr))

		if attempt == attempts {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

// Recurring runs a job at a fixed interval until Stop is called or the
// context given to Start is cancelled. Errors from individual runs are logged
// and do not stop the loop.
type Recurring struct {
	interval time.Duration
	logger   *zap.Logger
	fn       func(context.Context) error

	stop chan struct{}
	done chan struct{}
}

// NewRecurring builds a recurring job. The job does not run until Start.
func NewRecurring(interval time.Duration, logger *zap.Logger, fn func(context.Context) error) *Recurring {
	return &Recurring{
		interval: interval,
		logger:   logger,
		fn:       fn,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the interval loop in its own goroutine. The first run
// happens after one full interval, not immediately; callers that need an
// immediate run invoke the job themselves before starting the loop.
func (r *Recurring) Start(ctx context.Context) {
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				if err := r.fn(ctx); err != nil {
					r.logger.Error("recurring job failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop terminates the loop and waits for the goroutine to exit. Safe to call
// only once.
func (r *Recurring) Stop() {
	close(r.stop)
	<-r.done
}
