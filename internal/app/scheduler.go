/**
 * @description
 * Cron scheduler setup for the secondary jobs (backfill, due reminders). The
 * primary reconciliation loop is not cron-driven; it runs continuously with
 * its own randomized cadence.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron             *cron.Cron
	jobs             *Jobs
	logger           *slog.Logger
	backfillSchedule string
	reminderSchedule string
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, backfillSchedule, reminderSchedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:             c,
		jobs:             jobs,
		logger:           logger,
		backfillSchedule: backfillSchedule,
		reminderSchedule: reminderSchedule,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.backfillSchedule, s.jobs.BackfillStatementHistory); err != nil {
		s.logger.Error("failed to schedule statement backfill job", "error", err)
	} else {
		s.logger.Info("scheduled statement backfill job", "schedule", s.backfillSchedule)
	}

	if _, err := s.cron.AddFunc(s.reminderSchedule, s.jobs.SendDueReminders); err != nil {
		s.logger.Error("failed to schedule due reminder job", "error", err)
	} else {
		s.logger.Info("scheduled due reminder job", "schedule", s.reminderSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
