// Package sweep revokes catalog access for owners whose subscription has
// lapsed. It is run once at startup and then on a fixed daily schedule.
package sweep

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vcp-platform/vcp-backend/domains/billing/be/repo"
	"github.com/vcp-platform/vcp-backend/platform/go/requesttrace"
)

// Report summarizes one sweep run. Updated counts owners whose access was
// revoked this run; Repaired counts owners whose fee flag was out of step
// with the access flag and got realigned.
type Report struct {
	Updated  int `json:"updated"`
	Repaired int `json:"repaired"`
}

// Sweeper flips access off for owners whose current payment expired before
// the sweep instant.
type Sweeper struct {
	repo   repo.Repository
	logger *zap.Logger
	now    func() time.Time
}

// Option customizes sweeper construction.
type Option func(*Sweeper)

// WithClock overrides the sweeper clock. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

// New constructs a Sweeper backed by the billing repository.
func New(r repo.Repository, logger *zap.Logger, opts ...Option) *Sweeper {
	if r == nil {
		panic("billing repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sweeper{repo: r, logger: logger, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOnce executes one sweep. The underlying repository applies all flag
// flips in a single transaction, so a run either lands completely or not at
// all. Running twice against the same state is a no-op the second time.
func (s *Sweeper) RunOnce(ctx context.Context) (Report, error) {
	started := s.now()

	// Sweeps run on behalf of nobody; audit trail records the system actor.
	runID := uuid.NewString()
	ctx = requesttrace.IntoContext(ctx, requesttrace.System(runID))

	result, err := s.repo.SweepExpired(ctx, started)
	if err != nil {
		s.logger.Error("expiry sweep failed", zap.String("run_id", runID), zap.Error(err))
		return Report{}, err
	}

	report := Report{Updated: result.Updated, Repaired: result.Repaired}
	s.logger.Info("expiry sweep finished",
		zap.String("run_id", runID),
		zap.Int("updated", report.Updated),
		zap.Int("repaired", report.Repaired),
		zap.Duration("elapsed", s.now().Sub(started)))
	return report, nil
}

// Run is the signature-adapted form used with the schedule package.
func (s *Sweeper) Run(ctx context.Context) error {
	_, err := s.RunOnce(ctx)
	return err
}
