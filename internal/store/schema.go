/**
 * @description
 * Idempotent schema bootstrap for the reconciliation service. EnsureSchema is
 * run once at startup; every statement is IF NOT EXISTS so restarting against
 * an initialized database is a no-op.
 */
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS clients (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    token TEXT NOT NULL,
    date_added TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    client_id UUID NOT NULL REFERENCES clients(id),
    name TEXT NOT NULL DEFAULT '',
    iban TEXT NOT NULL DEFAULT '',
    edrpou TEXT NOT NULL DEFAULT '',
    date_added TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS users (
    id BIGINT PRIMARY KEY,
    username TEXT NOT NULL DEFAULT '',
    language_code TEXT NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS user_settings (
    user_id BIGINT PRIMARY KEY REFERENCES users(id),
    payout_account_id TEXT NOT NULL REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS groups (
    id BIGINT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS group_memberships (
    group_id BIGINT NOT NULL REFERENCES groups(id),
    user_id BIGINT NOT NULL REFERENCES users(id),
    date_added TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (group_id, user_id)
);

CREATE TABLE IF NOT EXISTS group_payments (
    id UUID PRIMARY KEY,
    group_id BIGINT NOT NULL REFERENCES groups(id),
    amount BIGINT NOT NULL,
    comment TEXT NOT NULL DEFAULT '',
    due_date TIMESTAMPTZ NOT NULL,
    date_added TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS paychecks (
    id UUID PRIMARY KEY,
    for_user_id BIGINT NOT NULL REFERENCES users(id),
    to_account_id TEXT NOT NULL REFERENCES accounts(id),
    amount BIGINT NOT NULL,
    currency_symbol TEXT NOT NULL DEFAULT 'UAH',
    currency_code INT NOT NULL DEFAULT 980,
    comment TEXT NOT NULL DEFAULT '',
    is_paid BOOLEAN NOT NULL DEFAULT FALSE,
    group_payment_id UUID REFERENCES group_payments(id),
    date_added TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    date_updated TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (group_payment_id, for_user_id)
);

CREATE TABLE IF NOT EXISTS account_statements (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL REFERENCES accounts(id),
    time TIMESTAMPTZ NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    comment TEXT NOT NULL DEFAULT '',
    mcc INT NOT NULL DEFAULT 0,
    hold BOOLEAN NOT NULL DEFAULT FALSE,
    amount BIGINT NOT NULL,
    operation_amount BIGINT NOT NULL DEFAULT 0,
    currency_code INT NOT NULL DEFAULT 980,
    commission_rate BIGINT NOT NULL DEFAULT 0,
    cashback_amount BIGINT NOT NULL DEFAULT 0,
    balance BIGINT NOT NULL DEFAULT 0,
    counter_iban TEXT NOT NULL DEFAULT '',
    counter_edrpou TEXT NOT NULL DEFAULT '',
    settles_paycheck_id UUID REFERENCES paychecks(id),
    date_added TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_account_statements_account_time
    ON account_statements (account_id, time);
CREATE INDEX IF NOT EXISTS idx_paychecks_unpaid
    ON paychecks (is_paid) WHERE is_paid = FALSE;
`

// EnsureSchema creates the service's tables if they do not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schema)
	return err
}
