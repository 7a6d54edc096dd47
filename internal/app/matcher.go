/**
 * @description
 * Paycheck matcher: consumes every freshly ingested statement, extracts the
 * correlation token from its comment text, and settles the matching paycheck
 * exactly once. Every anomaly short of a persistence failure is logged and
 * absorbed here; an incoming bank transaction that cannot be matched must
 * never stop ingestion.
 */

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/mykolasolodukha/vilnyypay-bot/internal/domain"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/metrics"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/store"
)

// ProcessNewStatement matches one statement against outstanding paychecks.
// It is invoked synchronously by the poller for every new statement, so a
// paycheck is settled before the next statement is even considered.
func (s *Service) ProcessNewStatement(ctx context.Context, st *domain.Statement) error {
	paycheckID, ok := ExtractPaycheckID(st.MatchText())
	if !ok {
		// Routine: most transactions on the account are unrelated.
		metrics.MatchAnomalies.WithLabelValues(metrics.AnomalyNoToken).Inc()
		s.logger.Debug("statement carries no paycheck token", "statement_id", st.ID)
		return nil
	}

	logger := s.logger.With("statement_id", st.ID, "paycheck_id", paycheckID)

	paycheck, err := s.repo.FindPaycheckByID(ctx, paycheckID)
	if errors.Is(err, store.ErrPaycheckNotFound) {
		// A token without a paycheck behind it is a data-integrity
		// anomaly; the statement stays ingested and unmatched.
		metrics.MatchAnomalies.WithLabelValues(metrics.AnomalyPaycheckNotFound).Inc()
		logger.Error("statement references an unknown paycheck")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load paycheck %s: %w", paycheckID, err)
	}

	if paycheck.IsPaid {
		metrics.MatchAnomalies.WithLabelValues(metrics.AnomalyAlreadyPaid).Inc()
		logger.Error("paycheck is already paid")
		return nil
	}

	updated, err := s.repo.MarkPaycheckPaid(ctx, paycheck.ID)
	if err != nil {
		return fmt.Errorf("failed to mark paycheck %s paid: %w", paycheck.ID, err)
	}
	if !updated {
		// Another matcher got here between the load and the update; the
		// guard keeps the transition monotonic.
		metrics.MatchAnomalies.WithLabelValues(metrics.AnomalyAlreadyPaid).Inc()
		logger.Warn("paycheck was settled concurrently")
		return nil
	}

	if err := s.repo.AttachStatementToPaycheck(ctx, st.ID, paycheck.ID); err != nil {
		return fmt.Errorf("failed to attach statement %s to paycheck %s: %w", st.ID, paycheck.ID, err)
	}

	metrics.PaychecksMatched.Inc()
	logger.Info("paycheck settled", "amount", paycheck.Amount)

	paycheck.IsPaid = true
	event := s.paycheckEvent(ctx, paycheck, false)
	if err := s.notifier.PaycheckPaid(ctx, event); err != nil {
		// Notification delivery is fire-and-forget.
		logger.Warn("failed to publish paid notification", "error", err)
	}

	return nil
}
