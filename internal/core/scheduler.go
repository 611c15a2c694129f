package core

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs batch processing on a cron schedule (watch mode).
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{cron: cron.New(), logger: logger}
}

// Start registers run under the given cron spec (standard five-field syntax)
// and starts the scheduler in the background.
func (s *Scheduler) Start(spec string, run func()) error {
	if _, err := s.cron.AddFunc(spec, run); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", spec)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
