package domain

import "time"

// Routing keys for paycheck notification events.
const (
	EventPaycheckCreated  = "paycheck.created"
	EventPaycheckPaid     = "paycheck.paid"
	EventPaycheckReminder = "paycheck.reminder"
)

// PaycheckEvent is the payload published to the notification exchange when a
// paycheck is issued, settled, or due. Delivery to the end user is owned by
// the consumer; this service only publishes.
type PaycheckEvent struct {
	PaycheckID     string     `json:"paycheck_id"`
	UserID         int64      `json:"user_id"`
	AccountID      string     `json:"account_id"`
	Amount         int64      `json:"amount"`
	CurrencySymbol string     `json:"currency_symbol"`
	Comment        string     `json:"comment"`
	PayURL         string     `json:"pay_url,omitempty"`
	GroupPaymentID *string    `json:"group_payment_id,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}
