/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access the reconciliation core requires: create-with-uniqueness-check,
 * get-by-id, get-oldest/newest-by-time, and single-field updates. Keeping the
 * contract this narrow decouples the poller, matcher, and fan-out generator
 * from the PostgreSQL implementation and makes them testable with stubs.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For paycheck and group payment identifiers.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mykolasolodukha/vilnyypay-bot/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Account methods
	// FindPollingAccount returns the account designated for statement
	// polling (the oldest registered one) with its client token populated.
	FindPollingAccount(ctx context.Context) (*domain.Account, error)
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	FindPayoutAccountForUser(ctx context.Context, userID int64) (*domain.Account, error)

	// Statement methods
	// CreateStatement inserts a new statement row. It returns
	// ErrDuplicateStatement when a row with the same provider-assigned ID
	// already exists; that violation is the poller's termination signal.
	CreateStatement(ctx context.Context, st *domain.Statement) error
	FindOldestStatement(ctx context.Context, accountID string) (*domain.Statement, error)
	FindNewestStatement(ctx context.Context, accountID string) (*domain.Statement, error)
	AttachStatementToPaycheck(ctx context.Context, statementID string, paycheckID uuid.UUID) error

	// Paycheck methods
	// CreatePaycheck inserts a new paycheck row. It returns
	// ErrDuplicatePaycheck when a paycheck already exists for the same
	// (group payment, user) pair.
	CreatePaycheck(ctx context.Context, p *domain.Paycheck) error
	FindPaycheckByID(ctx context.Context, id uuid.UUID) (*domain.Paycheck, error)
	PaycheckExists(ctx context.Context, groupPaymentID uuid.UUID, userID int64) (bool, error)
	// MarkPaycheckPaid flips is_paid to true. It reports false when the
	// paycheck was already paid, which keeps the transition monotonic even
	// if two matchers race on the same statement.
	MarkPaycheckPaid(ctx context.Context, id uuid.UUID) (bool, error)
	ListUnpaidPaychecksDueBefore(ctx context.Context, cutoff time.Time) ([]domain.Paycheck, error)

	// Group payment methods
	CreateGroupPayment(ctx context.Context, gp *domain.GroupPayment) error
	FindGroupPaymentByID(ctx context.Context, id uuid.UUID) (*domain.GroupPayment, error)
	FindGroupByID(ctx context.Context, groupID int64) (*domain.Group, error)
	ListGroupMembers(ctx context.Context, groupID int64) ([]domain.User, error)
}
