/**
 * @description
 * This package defines the notifier the reconciliation core hands paychecks
 * to. Notification delivery is a fire-and-forget external concern: the AMQP
 * implementation publishes paycheck lifecycle events to a topic exchange and
 * downstream consumers own delivery to the end user. Publish failures are
 * surfaced to the caller, which logs and continues; they never abort matching
 * or fan-out.
 *
 * @dependencies
 * - internal/domain: Event payloads.
 * - pkg/rabbitmq: The AMQP producer.
 */
package notify

import (
	"context"

	"github.com/mykolasolodukha/vilnyypay-bot/internal/domain"
	"github.com/mykolasolodukha/vilnyypay-bot/pkg/rabbitmq"
)

// Notifier publishes paycheck lifecycle notifications.
type Notifier interface {
	PaycheckCreated(ctx context.Context, event domain.PaycheckEvent) error
	PaycheckPaid(ctx context.Context, event domain.PaycheckEvent) error
	PaycheckDueReminder(ctx context.Context, event domain.PaycheckEvent) error
}

// AMQPNotifier publishes paycheck events to a RabbitMQ topic exchange.
type AMQPNotifier struct {
	producer rabbitmq.Publisher
	exchange string
}

// NewAMQPNotifier creates a notifier publishing to the given exchange.
func NewAMQPNotifier(producer rabbitmq.Publisher, exchange string) *AMQPNotifier {
	return &AMQPNotifier{
		producer: producer,
		exchange: exchange,
	}
}

// PaycheckCreated announces a freshly issued paycheck.
func (n *AMQPNotifier) PaycheckCreated(ctx context.Context, event domain.PaycheckEvent) error {
	return n.producer.Publish(ctx, n.exchange, domain.EventPaycheckCreated, event)
}

// PaycheckPaid announces that a paycheck has been settled.
func (n *AMQPNotifier) PaycheckPaid(ctx context.Context, event domain.PaycheckEvent) error {
	return n.producer.Publish(ctx, n.exchange, domain.EventPaycheckPaid, event)
}

// PaycheckDueReminder announces an unpaid paycheck past its due date.
func (n *AMQPNotifier) PaycheckDueReminder(ctx context.Context, event domain.PaycheckEvent) error {
	return n.producer.Publish(ctx, n.exchange, domain.EventPaycheckReminder, event)
}
