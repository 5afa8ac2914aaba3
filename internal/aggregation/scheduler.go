package aggregation

import (
	"context"
	"log/slog"
	"time"
)

// Job is a named unit of periodic work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler runs one job on a fixed interval.
// Each tick is independent; a failed run is logged and retried on the next tick.
type Scheduler struct {
	interval   time.Duration
	job        Job
	runOnStart bool
}

// NewScheduler creates a scheduler. When runOnStart is set the job also runs
// once immediately.
func NewScheduler(interval time.Duration, job Job, runOnStart bool) *Scheduler {
	if interval <= 0 {
		panic("aggregation: NewScheduler requires a positive interval")
	}
	if job.Run == nil {
		panic("aggregation: NewScheduler requires a job")
	}
	return &Scheduler{interval: interval, job: job, runOnStart: runOnStart}
}

// Start runs the job periodically until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting", "job", s.job.Name, "interval", s.interval)

	if s.runOnStart {
		s.runOnce(ctx)
	}

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)", "job", s.job.Name)
			return nil
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := s.job.Run(ctx); err != nil {
		slog.Error("[Scheduler] Job failed", "job", s.job.Name, "error", err, "elapsed", time.Since(start))
		return
	}
	slog.Debug("[Scheduler] Job finished", "job", s.job.Name, "elapsed", time.Since(start))
}
