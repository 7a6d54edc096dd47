/**
 * @description
 * Group payment fan-out: issues one paycheck per current group member and
 * hands each to the notifier. The unique constraint on
 * (group payment, user) makes the operation safely re-runnable after a
 * partial failure, and every per-member failure is isolated so the rest of
 * the group still receives its paychecks.
 */

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mykolasolodukha/vilnyypay-bot/internal/domain"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/metrics"
	"github.com/mykolasolodukha/vilnyypay-bot/internal/store"
)

const (
	defaultCurrencySymbol = "UAH"
	defaultCurrencyCode   = 980
)

// FanOutResult summarizes one fan-out run.
type FanOutResult struct {
	Issued  int `json:"issued"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// SendGroupPayment issues paychecks for every member of the group payment's
// group. Members who already hold a paycheck for this group payment are
// skipped, so retrying after a partial failure is a no-op for them.
func (s *Service) SendGroupPayment(ctx context.Context, groupPaymentID uuid.UUID) (*FanOutResult, error) {
	gp, err := s.repo.FindGroupPaymentByID(ctx, groupPaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group payment: %w", err)
	}

	members, err := s.repo.ListGroupMembers(ctx, gp.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}

	logger := s.logger.With("group_payment_id", gp.ID, "group_id", gp.GroupID)
	logger.Info("fanning out group payment", "members", len(members))

	result := &FanOutResult{}
	for _, member := range members {
		switch issued, err := s.issuePaycheck(ctx, gp, member.ID); {
		case err != nil:
			result.Failed++
			logger.Error("failed to issue paycheck", "user_id", member.ID, "error", err)
		case issued:
			result.Issued++
		default:
			result.Skipped++
		}
	}

	logger.Info("group payment fan-out finished",
		"issued", result.Issued, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

// issuePaycheck creates and announces one member's paycheck. It reports
// false without error when the member already holds one.
func (s *Service) issuePaycheck(ctx context.Context, gp *domain.GroupPayment, userID int64) (bool, error) {
	exists, err := s.repo.PaycheckExists(ctx, gp.ID, userID)
	if err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	if exists {
		return false, nil
	}

	account, err := s.repo.FindPayoutAccountForUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("payout account lookup: %w", err)
	}

	groupPaymentID := gp.ID
	paycheck := &domain.Paycheck{
		ID:             uuid.New(),
		ForUserID:      userID,
		ToAccountID:    account.ID,
		Amount:         gp.Amount,
		CurrencySymbol: defaultCurrencySymbol,
		CurrencyCode:   defaultCurrencyCode,
		Comment:        gp.Comment,
		GroupPaymentID: &groupPaymentID,
	}

	if err := s.repo.CreatePaycheck(ctx, paycheck); err != nil {
		if errors.Is(err, store.ErrDuplicatePaycheck) {
			// A concurrent fan-out won the race; same outcome as the
			// existence check above.
			return false, nil
		}
		return false, fmt.Errorf("create: %w", err)
	}
	metrics.PaychecksIssued.Inc()

	event := s.paycheckEvent(ctx, paycheck, true)
	if err := s.notifier.PaycheckCreated(ctx, event); err != nil {
		// The paycheck exists either way; delivery is the consumer's
		// problem and a retry path exists through reminders.
		s.logger.Warn("failed to publish created notification",
			"paycheck_id", paycheck.ID, "user_id", userID, "error", err)
	}

	return true, nil
}

// CreateGroupPayment persists a new group payment and immediately fans it
// out.
func (s *Service) CreateGroupPayment(ctx context.Context, gp *domain.GroupPayment) (*FanOutResult, error) {
	if gp.ID == uuid.Nil {
		gp.ID = uuid.New()
	}
	if _, err := s.repo.FindGroupByID(ctx, gp.GroupID); err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	if err := s.repo.CreateGroupPayment(ctx, gp); err != nil {
		return nil, fmt.Errorf("failed to create group payment: %w", err)
	}
	return s.SendGroupPayment(ctx, gp.ID)
}
