package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"

	"github.com/br00kd0wnt0n/LENNYBOT/common/logger"
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron schedule. Runs never overlap: a tick that
// arrives while the job is still running is skipped.
type Scheduler struct {
	expr string
	name string
	job  Job
	now  func() time.Time

	// retryAfter is the pause when the next tick cannot be computed.
	retryAfter time.Duration

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewScheduler(name, expr string, job Job) (*Scheduler, error) {
	if !gronx.IsValid(expr) {
		return nil, fmt.Errorf("invalid cron expression %q for %s", expr, name)
	}

	return &Scheduler{
		expr:       expr,
		name:       name,
		job:        job,
		now:        time.Now,
		retryAfter: 30 * time.Second,
		stopCh:     make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}, nil
}

// Next returns the first tick strictly after t.
func (s *Scheduler) Next(t time.Time) (time.Time, error) {
	return gronx.NextTickAfter(s.expr, t, false)
}

// Run blocks until Stop is called or ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "pulse.worker.scheduler",
	})

	defer close(s.stoppedCh)

	slog.InfoContext(ctx, "scheduler started", "job", s.name, "cron", s.expr)

	for {
		wait := s.retryAfter
		next, err := s.Next(s.now().UTC())
		if err != nil {
			slog.ErrorContext(ctx, "computing next tick failed", "job", s.name, "error", err)
		} else {
			wait = time.Until(next)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stopCh:
			timer.Stop()
			slog.InfoContext(ctx, "scheduler stopping", "job", s.name)
			return
		case <-timer.C:
			if err == nil {
				s.runJob(ctx)
			}
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}

func (s *Scheduler) runJob(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "scheduled job panicked", "job", s.name, "panic", r)
		}
	}()

	start := time.Now()
	if err := s.job(ctx); err != nil {
		slog.ErrorContext(ctx, "scheduled job failed", "job", s.name, "error", err)
		return
	}
	slog.DebugContext(ctx, "scheduled job finished",
		"job", s.name,
		"duration_ms", time.Since(start).Milliseconds())
}
