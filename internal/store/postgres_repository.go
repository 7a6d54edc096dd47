/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains all the SQL needed by the reconciliation core. The
 * unique constraint on account_statements is the sole concurrency-control
 * mechanism for ingestion: inserting a statement that already exists surfaces
 * as ErrDuplicateStatement rather than a generic database error.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mykolasolodukha/vilnyypay-bot/internal/domain"
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrStatementNotFound    = errors.New("statement not found")
	ErrDuplicateStatement   = errors.New("statement already exists")
	ErrPaycheckNotFound     = errors.New("paycheck not found")
	ErrDuplicatePaycheck    = errors.New("paycheck already exists for this group payment and user")
	ErrGroupPaymentNotFound = errors.New("group payment not found")
	ErrGroupNotFound        = errors.New("group not found")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const accountColumns = `a.id, a.client_id, a.name, a.iban, a.edrpou, c.token, a.date_added`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID,
		&account.ClientID,
		&account.Name,
		&account.IBAN,
		&account.EDRPOU,
		&account.Token,
		&account.DateAdded,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindPollingAccount returns the oldest registered account together with its
// client token. Polling is deliberately limited to one account at a time to
// stay inside the provider's global rate limit.
func (r *PostgresRepository) FindPollingAccount(ctx context.Context) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts a
		JOIN clients c ON c.id = a.client_id
		ORDER BY a.date_added
		LIMIT 1
	`
	return scanAccount(r.db.QueryRow(ctx, query))
}

// FindAccountByID retrieves an account by its provider-assigned identifier.
func (r *PostgresRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts a
		JOIN clients c ON c.id = a.client_id
		WHERE a.id = $1
	`
	return scanAccount(r.db.QueryRow(ctx, query, accountID))
}

// FindPayoutAccountForUser returns the account a user's paychecks are paid to.
func (r *PostgresRepository) FindPayoutAccountForUser(ctx context.Context, userID int64) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM user_settings s
		JOIN accounts a ON a.id = s.payout_account_id
		JOIN clients c ON c.id = a.client_id
		WHERE s.user_id = $1
	`
	return scanAccount(r.db.QueryRow(ctx, query, userID))
}

// CreateStatement inserts a statement row. The primary key on the
// provider-assigned ID turns "is this statement new" into an atomic,
// race-safe check at the persistence layer.
func (r *PostgresRepository) CreateStatement(ctx context.Context, st *domain.Statement) error {
	query := `
		INSERT INTO account_statements (
			id, account_id, time, description, comment, mcc, hold,
			amount, operation_amount, currency_code, commission_rate,
			cashback_amount, balance, counter_iban, counter_edrpou, date_added
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
		RETURNING date_added
	`
	err := r.db.QueryRow(ctx, query,
		st.ID,
		st.AccountID,
		st.Time,
		st.Description,
		st.Comment,
		st.MCC,
		st.Hold,
		st.Amount,
		st.OperationAmount,
		st.CurrencyCode,
		st.CommissionRate,
		st.CashbackAmount,
		st.Balance,
		st.CounterIBAN,
		st.CounterEDRPOU,
	).Scan(&st.DateAdded)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateStatement
		}
		return err
	}
	return nil
}

const statementColumns = `
	id, account_id, time, description, comment, mcc, hold,
	amount, operation_amount, currency_code, commission_rate,
	cashback_amount, balance, counter_iban, counter_edrpou,
	settles_paycheck_id, date_added
`

func scanStatement(row pgx.Row) (*domain.Statement, error) {
	var st domain.Statement
	err := row.Scan(
		&st.ID,
		&st.AccountID,
		&st.Time,
		&st.Description,
		&st.Comment,
		&st.MCC,
		&st.Hold,
		&st.Amount,
		&st.OperationAmount,
		&st.CurrencyCode,
		&st.CommissionRate,
		&st.CashbackAmount,
		&st.Balance,
		&st.CounterIBAN,
		&st.CounterEDRPOU,
		&st.SettlesPaycheckID,
		&st.DateAdded,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatementNotFound
		}
		return nil, err
	}
	return &st, nil
}

// FindOldestStatement returns the earliest ingested statement for an account.
// The poller resumes backfills from this row's timestamp.
func (r *PostgresRepository) FindOldestStatement(ctx context.Context, accountID string) (*domain.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM account_statements WHERE account_id = $1 ORDER BY time ASC LIMIT 1`
	return scanStatement(r.db.QueryRow(ctx, query, accountID))
}

// FindNewestStatement returns the most recently dated statement for an
// account. Used by the poller's end-of-history check.
func (r *PostgresRepository) FindNewestStatement(ctx context.Context, accountID string) (*domain.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM account_statements WHERE account_id = $1 ORDER BY time DESC LIMIT 1`
	return scanStatement(r.db.QueryRow(ctx, query, accountID))
}

// AttachStatementToPaycheck records the back-reference from a statement to
// the paycheck it settled.
func (r *PostgresRepository) AttachStatementToPaycheck(ctx context.Context, statementID string, paycheckID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE account_statements SET settles_paycheck_id = $2 WHERE id = $1`,
		statementID, paycheckID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStatementNotFound
	}
	return nil
}

// CreatePaycheck inserts a paycheck row. The unique constraint on
// (group_payment_id, for_user_id) makes the group fan-out safely re-runnable.
func (r *PostgresRepository) CreatePaycheck(ctx context.Context, p *domain.Paycheck) error {
	query := `
		INSERT INTO paychecks (
			id, for_user_id, to_account_id, amount, currency_symbol,
			currency_code, comment, is_paid, group_payment_id, date_added, date_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, NOW(), NOW())
		RETURNING date_added, date_updated
	`
	err := r.db.QueryRow(ctx, query,
		p.ID,
		p.ForUserID,
		p.ToAccountID,
		p.Amount,
		p.CurrencySymbol,
		p.CurrencyCode,
		p.Comment,
		p.GroupPaymentID,
	).Scan(&p.DateAdded, &p.DateUpdated)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePaycheck
		}
		return err
	}
	p.IsPaid = false
	return nil
}

// FindPaycheckByID retrieves a paycheck by its correlation identifier.
func (r *PostgresRepository) FindPaycheckByID(ctx context.Context, id uuid.UUID) (*domain.Paycheck, error) {
	query := `
		SELECT id, for_user_id, to_account_id, amount, currency_symbol,
		       currency_code, comment, is_paid, group_payment_id, date_added, date_updated
		FROM paychecks
		WHERE id = $1
	`
	var p domain.Paycheck
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.ForUserID,
		&p.ToAccountID,
		&p.Amount,
		&p.CurrencySymbol,
		&p.CurrencyCode,
		&p.Comment,
		&p.IsPaid,
		&p.GroupPaymentID,
		&p.DateAdded,
		&p.DateUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaycheckNotFound
		}
		return nil, err
	}
	return &p, nil
}

// PaycheckExists reports whether a paycheck already exists for the given
// (group payment, user) pair.
func (r *PostgresRepository) PaycheckExists(ctx context.Context, groupPaymentID uuid.UUID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM paychecks WHERE group_payment_id = $1 AND for_user_id = $2)`,
		groupPaymentID, userID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// MarkPaycheckPaid flips is_paid from false to true. The WHERE guard makes
// the transition a no-op when the paycheck is already paid, so a duplicate
// match can never re-apply it.
func (r *PostgresRepository) MarkPaycheckPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE paychecks SET is_paid = TRUE, date_updated = NOW() WHERE id = $1 AND is_paid = FALSE`,
		id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListUnpaidPaychecksDueBefore returns unpaid paychecks whose group payment
// due date has passed. Direct (non-group) paychecks carry no due date and are
// not included.
func (r *PostgresRepository) ListUnpaidPaychecksDueBefore(ctx context.Context, cutoff time.Time) ([]domain.Paycheck, error) {
	query := `
		SELECT p.id, p.for_user_id, p.to_account_id, p.amount, p.currency_symbol,
		       p.currency_code, p.comment, p.is_paid, p.group_payment_id, p.date_added, p.date_updated
		FROM paychecks p
		JOIN group_payments gp ON gp.id = p.group_payment_id
		WHERE p.is_paid = FALSE AND gp.due_date < $1
		ORDER BY p.date_added
	`
	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paychecks []domain.Paycheck
	for rows.Next() {
		var p domain.Paycheck
		if err := rows.Scan(
			&p.ID,
			&p.ForUserID,
			&p.ToAccountID,
			&p.Amount,
			&p.CurrencySymbol,
			&p.CurrencyCode,
			&p.Comment,
			&p.IsPaid,
			&p.GroupPaymentID,
			&p.DateAdded,
			&p.DateUpdated,
		); err != nil {
			return nil, err
		}
		paychecks = append(paychecks, p)
	}
	return paychecks, rows.Err()
}

// CreateGroupPayment inserts a group payment row.
func (r *PostgresRepository) CreateGroupPayment(ctx context.Context, gp *domain.GroupPayment) error {
	query := `
		INSERT INTO group_payments (id, group_id, amount, comment, due_date, date_added)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING date_added
	`
	return r.db.QueryRow(ctx, query, gp.ID, gp.GroupID, gp.Amount, gp.Comment, gp.DueDate).Scan(&gp.DateAdded)
}

// FindGroupPaymentByID retrieves a group payment by its identifier.
func (r *PostgresRepository) FindGroupPaymentByID(ctx context.Context, id uuid.UUID) (*domain.GroupPayment, error) {
	query := `SELECT id, group_id, amount, comment, due_date, date_added FROM group_payments WHERE id = $1`
	var gp domain.GroupPayment
	err := r.db.QueryRow(ctx, query, id).Scan(&gp.ID, &gp.GroupID, &gp.Amount, &gp.Comment, &gp.DueDate, &gp.DateAdded)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGroupPaymentNotFound
		}
		return nil, err
	}
	return &gp, nil
}

// FindGroupByID retrieves a group by its identifier.
func (r *PostgresRepository) FindGroupByID(ctx context.Context, groupID int64) (*domain.Group, error) {
	var g domain.Group
	err := r.db.QueryRow(ctx, `SELECT id, name FROM groups WHERE id = $1`, groupID).Scan(&g.ID, &g.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

// ListGroupMembers returns the current members of a group. Iteration order is
// insignificant for the fan-out; members are returned in join order for
// stable logs.
func (r *PostgresRepository) ListGroupMembers(ctx context.Context, groupID int64) ([]domain.User, error) {
	query := `
		SELECT u.id, u.username, u.language_code, u.is_active
		FROM group_memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.date_added
	`
	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.LanguageCode, &u.IsActive); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
