/**
 * @description
 * This file defines the core domain models for the reconciliation service.
 * These structs represent the entities shared between the statement poller,
 * the paycheck matcher, the fan-out generator, and the persistence layer.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit (kopiykas),
 *   which avoids floating-point inaccuracies with financial data.
 * - User and Group IDs are Telegram identifiers and therefore int64.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client holds the credentials of one provider API token holder. Every
// account belongs to exactly one client.
type Client struct {
	ID        uuid.UUID
	Token     string
	DateAdded time.Time
}

// Account identifies a funding destination at the statement provider.
// The Token field is populated from the owning client when the account is
// loaded for polling.
type Account struct {
	ID        string
	ClientID  uuid.UUID
	Name      string
	IBAN      string
	EDRPOU    string
	Token     string
	DateAdded time.Time
}

// Statement is one immutable bank transaction record pulled from the
// provider. Rows are created exclusively by the statement poller and are
// never mutated except for the optional back-reference to the paycheck a
// statement settles.
type Statement struct {
	ID                string
	AccountID         string
	Time              time.Time
	Description       string
	Comment           string
	MCC               int
	Hold              bool
	Amount            int64
	OperationAmount   int64
	CurrencyCode      int
	CommissionRate    int64
	CashbackAmount    int64
	Balance           int64
	CounterIBAN       string
	CounterEDRPOU     string
	SettlesPaycheckID *uuid.UUID
	DateAdded         time.Time
}

// MatchText returns the free text the correlation token is searched in.
// The provider carries a user-entered comment separately from the generated
// description; the comment is preferred when present.
func (s *Statement) MatchText() string {
	if s.Comment != "" {
		return s.Comment
	}
	return s.Description
}

// Paycheck is an outstanding request for a specific user to pay a specific
// amount to a specific account. Its ID doubles as the correlation token
// embedded in transaction comments. IsPaid transitions false -> true exactly
// once and never reverses.
type Paycheck struct {
	ID             uuid.UUID
	ForUserID      int64
	ToAccountID    string
	Amount         int64
	CurrencySymbol string
	CurrencyCode   int
	Comment        string
	IsPaid         bool
	GroupPaymentID *uuid.UUID
	DateAdded      time.Time
	DateUpdated    time.Time
}

// GroupPayment is an amount/comment/due-date template that fans out into at
// most one paycheck per group member.
type GroupPayment struct {
	ID        uuid.UUID
	GroupID   int64
	Amount    int64
	Comment   string
	DueDate   time.Time
	DateAdded time.Time
}

// Group is a membership set used to determine fan-out recipients.
type Group struct {
	ID   int64
	Name string
}

// User is a fan-out recipient. IsActive is flipped off by notification
// consumers when the user becomes unreachable; this service only reads it.
type User struct {
	ID           int64
	Username     string
	LanguageCode string
	IsActive     bool
}
