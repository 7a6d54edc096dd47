/**
 * @description
 * Scheduled job implementations for the reconciliation service: the weekly
 * statement history backfill and the daily due-date reminders.
 */
package app

import (
	"context"
	"log/slog"
)

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	service *Service
	logger  *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(service *Service, logger *slog.Logger) *Jobs {
	return &Jobs{
		service: service,
		logger:  logger,
	}
}

// BackfillStatementHistory extends the stored statement history backward
// from the oldest known statement. It yields when the reconciliation loop is
// mid-pull: the provider allows only one request stream, and the backfill is
// the less urgent of the two.
func (j *Jobs) BackfillStatementHistory() {
	j.logger.Info("starting statement backfill job")
	ctx := context.Background()

	account, err := j.service.repo.FindPollingAccount(ctx)
	if err != nil {
		j.logger.Error("failed to load polling account for backfill", "error", err)
		return
	}

	ran, err := j.service.TryPullAccountStatements(ctx, account, true, j.service.ProcessNewStatement)
	if err != nil {
		j.logger.Error("statement backfill failed", "error", err)
		return
	}
	if !ran {
		j.logger.Info("skipping backfill; a statement pull is already in flight")
		return
	}

	j.logger.Info("statement backfill job finished")
}

// SendDueReminders publishes a reminder event for every unpaid paycheck
// whose group payment due date has passed.
func (j *Jobs) SendDueReminders() {
	j.logger.Info("starting due reminder job")
	ctx := context.Background()

	paychecks, err := j.service.repo.ListUnpaidPaychecksDueBefore(ctx, j.service.now().UTC())
	if err != nil {
		j.logger.Error("failed to list overdue paychecks", "error", err)
		return
	}

	sent := 0
	for i := range paychecks {
		p := &paychecks[i]
		event := j.service.paycheckEvent(ctx, p, true)
		if err := j.service.notifier.PaycheckDueReminder(ctx, event); err != nil {
			j.logger.Warn("failed to publish reminder", "paycheck_id", p.ID, "error", err)
			continue
		}
		sent++
	}

	j.logger.Info("due reminder job finished", "overdue", len(paychecks), "sent", sent)
}
