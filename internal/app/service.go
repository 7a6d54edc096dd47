/**
 * @description
 * This file contains the core service for payment reconciliation. The
 * `Service` struct ties together the statement provider client, the
 * persistence repository, and the notification publisher, and hosts the four
 * reconciliation operations: statement polling, paycheck matching, group
 * payment fan-out, and the monitoring loop.
 *
 * @dependencies
 * - internal/store: Data access contract.
 * - internal/notify: Paycheck event publishing.
 * - pkg/monobank: Provider statement API types.
 */

package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mykolasolodukha/vilnyypay-bot/internal/domain"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/notify"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/store"
	"github.com/mykolasolodukha/vilnyypay-bot/pkg/monobank"
)

// StatementSource is the provider statement API surface the poller consumes.
// *monobank.Client satisfies it.
type StatementSource interface {
	ListStatements(ctx context.Context, token, accountID string, from, to time.Time) ([]monobank.Statement, error)
}

// Options tune the reconciliation cadence. Zero values fall back to the
// provider contract defaults.
type Options struct {
	// StatementWindowMonths is the width of one backward polling window.
	StatementWindowMonths int
	// MonitorSleepMin/Max bound the randomized pause between monitoring
	// cycles.
	MonitorSleepMin time.Duration
	MonitorSleepMax time.Duration
}

func (o Options) withDefaults() Options {
	if o.StatementWindowMonths <= 0 {
		o.StatementWindowMonths = 1
	}
	if o.MonitorSleepMin <= 0 {
		o.MonitorSleepMin = time.Minute
	}
	if o.MonitorSleepMax < o.MonitorSleepMin {
		o.MonitorSleepMax = o.MonitorSleepMin
	}
	return o
}

// Service provides the core reconciliation logic.
type Service struct {
	repo     store.Repository
	bank     StatementSource
	notifier notify.Notifier
	limiter  ProviderRateLimiter
	logger   *slog.Logger
	opts     Options

	// pullMu serializes statement pulls so the monitoring loop and the
	// backfill job never talk to the provider concurrently.
	pullMu sync.Mutex

	now func() time.Time
}

// NewService creates a new reconciliation service instance.
func NewService(
	repo store.Repository,
	bank StatementSource,
	notifier notify.Notifier,
	limiter ProviderRateLimiter,
	logger *slog.Logger,
	opts Options,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		bank:     bank,
		notifier: notifier,
		limiter:  limiter,
		logger:   logger,
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
}

// GetPaycheck returns one paycheck by its identifier.
func (s *Service) GetPaycheck(ctx context.Context, id uuid.UUID) (*domain.Paycheck, error) {
	return s.repo.FindPaycheckByID(ctx, id)
}

// paycheckEvent assembles the notification payload for a paycheck. The pay
// URL and group name are best-effort: a paycheck with a broken account
// reference still produces an event, just without a link.
func (s *Service) paycheckEvent(ctx context.Context, p *domain.Paycheck, withPayURL bool) domain.PaycheckEvent {
	event := domain.PaycheckEvent{
		PaycheckID:     p.ID.String(),
		UserID:         p.ForUserID,
		AccountID:      p.ToAccountID,
		Amount:         p.Amount,
		CurrencySymbol: p.CurrencySymbol,
		Comment:        p.Comment,
		OccurredAt:     s.now().UTC(),
	}

	var groupName string
	if p.GroupPaymentID != nil {
		id := p.GroupPaymentID.String()
		event.GroupPaymentID = &id

		if gp, err := s.repo.FindGroupPaymentByID(ctx, *p.GroupPaymentID); err == nil {
			due := gp.DueDate
			event.DueDate = &due
			if group, err := s.repo.FindGroupByID(ctx, gp.GroupID); err == nil {
				groupName = group.Name
			}
		}
	}

	if withPayURL {
		account, err := s.repo.FindAccountByID(ctx, p.ToAccountID)
		if err != nil {
			s.logger.Warn("failed to load account for payment link",
				"paycheck_id", p.ID, "account_id", p.ToAccountID, "error", err)
			return event
		}
		url, err := paycheckPayURL(account, p, groupName)
		if err != nil {
			s.logger.Warn("failed to build payment link", "paycheck_id", p.ID, "error", err)
			return event
		}
		event.PayURL = url
	}

	return event
}
