/**
 * @description
 * Statement poller: walks one account's provider history backward through
 * monthly time windows, ingests every statement it has not seen before, and
 * hands each new statement to a callback synchronously, in provider-returned
 * order, before ingestion continues.
 *
 * Termination is driven by the idempotence boundary: the first duplicate-key
 * violation on insert means all older history is already stored, and an empty
 * window whose newest stored statement opened the account (balance equals
 * amount) means the full history has been walked. Each window moves strictly
 * backward in time, so a pull always terminates on a finite history.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mykolasolodukha/vilnyypay-bot/internal/domain"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/metrics"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/store"
	"github.com/mykolasolodukha/vilnyypay-bot/pkg/monobank"
)

// OnNewStatement is invoked for every freshly ingested statement, before the
// next one is considered. A non-nil error aborts the pull and propagates.
type OnNewStatement func(ctx context.Context, st *domain.Statement) error

// PullAccountStatements pulls all statements for the account the poller has
// not yet stored. With resumeFromOldest the walk starts at the oldest stored
// statement instead of now, extending the known history further back.
//
// Provider-side failures (network errors, rate-limit rejections, anomalous
// empty pages) end the pull early and are not returned: the next scheduled
// cycle retries naturally. Only persistence failures and callback errors
// propagate.
func (s *Service) PullAccountStatements(ctx context.Context, account *domain.Account, resumeFromOldest bool, onNew OnNewStatement) error {
	s.pullMu.Lock()
	defer s.pullMu.Unlock()

	return s.pullLocked(ctx, account, resumeFromOldest, onNew)
}

// TryPullAccountStatements is PullAccountStatements for opportunistic
// callers: when another pull is already in flight it reports false and does
// nothing, instead of queueing a second walk against the provider.
func (s *Service) TryPullAccountStatements(ctx context.Context, account *domain.Account, resumeFromOldest bool, onNew OnNewStatement) (bool, error) {
	if !s.pullMu.TryLock() {
		return false, nil
	}
	defer s.pullMu.Unlock()

	return true, s.pullLocked(ctx, account, resumeFromOldest, onNew)
}

func (s *Service) pullLocked(ctx context.Context, account *domain.Account, resumeFromOldest bool, onNew OnNewStatement) error {
	logger := s.logger.With("account_id", account.ID)
	logger.Info("pulling account statements", "resume_from_oldest", resumeFromOldest)

	to := s.now().UTC()
	if resumeFromOldest {
		oldest, err := s.repo.FindOldestStatement(ctx, account.ID)
		switch {
		case errors.Is(err, store.ErrStatementNotFound):
			// Nothing stored yet; fall through and start at now.
		case err != nil:
			return fmt.Errorf("failed to load oldest statement: %w", err)
		default:
			to = oldest.Time
		}
	}

	for {
		from := to.AddDate(0, -s.opts.StatementWindowMonths, 0)
		logger.Debug("pulling statement window", "from", from, "to", to)

		if err := s.limiter.Reserve(ctx); err != nil {
			return err
		}

		page, err := s.bank.ListStatements(ctx, account.Token, account.ID, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.ProviderRequests.WithLabelValues("error").Inc()
			// Transient by taxonomy: end the cycle, the next one retries.
			logger.Warn("statement request failed; ending cycle", "error", err)
			return nil
		}
		metrics.ProviderRequests.WithLabelValues("ok").Inc()

		if len(page) == 0 {
			done, err := s.historyExhausted(ctx, account.ID)
			if err != nil {
				return err
			}
			if done {
				logger.Info("account history fully ingested")
				return nil
			}
			// The window should hold data that the provider did not
			// return. Do not advance past it; the anomaly is logged and
			// the next cycle retries from the top.
			logger.Warn("provider returned an empty window before the history boundary",
				"from", from, "to", to)
			return nil
		}

		earliest, stop, err := s.ingestPage(ctx, logger, account.ID, page, onNew)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}

		// Advance strictly backward. The earliest ingested statement can
		// predate the requested window start when the provider returns
		// boundary rows, so take whichever is older.
		next := from
		if earliest.Before(next) {
			next = earliest
		}
		if !next.Before(to) {
			// Should be unreachable; guards the termination invariant.
			next = from
		}
		to = next
	}
}

// ingestPage stores one provider page in order. It reports the earliest
// statement time seen and whether the pull hit already-ingested history.
func (s *Service) ingestPage(ctx context.Context, logger *slog.Logger, accountID string, page []monobank.Statement, onNew OnNewStatement) (time.Time, bool, error) {
	var earliest time.Time

	for i := range page {
		st := statementFromProvider(accountID, &page[i])

		err := s.repo.CreateStatement(ctx, st)
		if errors.Is(err, store.ErrDuplicateStatement) {
			// The first duplicate means everything older is already
			// stored: the previous pull got here first.
			logger.Info("reached previously ingested history", "statement_id", st.ID)
			return earliest, true, nil
		}
		if err != nil {
			return earliest, false, fmt.Errorf("failed to create statement %s: %w", st.ID, err)
		}
		metrics.StatementsIngested.Inc()
		logger.Info("created account statement", "statement_id", st.ID, "time", st.Time)

		if earliest.IsZero() || st.Time.Before(earliest) {
			earliest = st.Time
		}

		if onNew != nil {
			if err := onNew(ctx, st); err != nil {
				return earliest, false, fmt.Errorf("statement callback failed for %s: %w", st.ID, err)
			}
		}
	}

	return earliest, false, nil
}

// historyExhausted reports whether the most recently stored statement is the
// first statement of the account's history, i.e. the transaction that opened
// the account: its resulting balance equals its amount.
func (s *Service) historyExhausted(ctx context.Context, accountID string) (bool, error) {
	newest, err := s.repo.FindNewestStatement(ctx, accountID)
	if errors.Is(err, store.ErrStatementNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load newest statement: %w", err)
	}
	return newest.Balance == newest.Amount, nil
}

// statementFromProvider normalizes a raw provider statement onto the domain
// model.
func statementFromProvider(accountID string, raw *monobank.Statement) *domain.Statement {
	return &domain.Statement{
		ID:              raw.ID,
		AccountID:       accountID,
		Time:            time.Unix(raw.Time, 0).UTC(),
		Description:     raw.Description,
		Comment:         raw.Comment,
		MCC:             raw.MCC,
		Hold:            raw.Hold,
		Amount:          raw.Amount,
		OperationAmount: raw.OperationAmount,
		CurrencyCode:    raw.CurrencyCode,
		CommissionRate:  raw.CommissionRate,
		CashbackAmount:  raw.CashbackAmount,
		Balance:         raw.Balance,
		CounterIBAN:     raw.CounterIBAN,
		CounterEDRPOU:   raw.CounterEDRPOU,
	}
}
