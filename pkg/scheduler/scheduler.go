package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job is one collector cycle.
type Job func(ctx context.Context)

// Scheduler drives a job on a fixed interval with a coarse one-second
// poll. The next due time is set when a run starts, not when it finishes,
// so a slow cycle delays subsequent runs without stacking them: there is
// never more than one cycle in flight.
type Scheduler struct {
	interval time.Duration
	poll     time.Duration
	logger   *slog.Logger

	now func() time.Time
}

func New(interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		poll:     time.Second,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one primer cycle immediately, then loops until ctx is
// cancelled, checking once per poll period whether the next run is due.
func (s *Scheduler) Run(ctx context.Context, job Job) {
	nextDue := s.now().Add(s.interval)

	s.primer(ctx, job)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopping", "reason", ctx.Err())
			return
		case <-time.After(s.poll):
		}

		if s.now().Before(nextDue) {
			continue
		}

		nextDue = s.now().Add(s.interval)
		job(ctx)
	}
}

// primer isolates the startup run so an unexpected panic is logged instead
// of aborting the process before steady-state scheduling begins.
func (s *Scheduler) primer(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Initial run failed", "panic", r)
		}
	}()

	job(ctx)
}
