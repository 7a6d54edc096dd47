/**
 * @description
 * This package provides the RabbitMQ event producer used to publish paycheck
 * notification events. It manages the AMQP connection and channel, declares a
 * durable topic exchange, and marshals event payloads to JSON.
 *
 * @dependencies
 * - context: For managing request-scoped deadlines and cancellations.
 * - encoding/json: To serialize event payloads.
 * - github.com/rabbitmq/amqp091-go: The official Go client for RabbitMQ.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/rabbitmq/amqp091-go"
)

// Publisher is the interface the application publishes events through.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body any) error
	Close()
}

// EventProducer is a client for publishing events to RabbitMQ.
type EventProducer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	if !strings.HasSuffix(clean, "/") {
		clean += "/"
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer creates and returns a new EventProducer.
func NewEventProducer(amqpURL string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp091.Dial(cleanURL)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{
		conn:    conn,
		channel: channel,
	}, nil
}

// Publish sends an event to a topic exchange with the given routing key.
func (p *EventProducer) Publish(ctx context.Context, exchange, routingKey string, body any) error {
	err := p.channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return err
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         jsonBody,
			DeliveryMode: amqp091.Persistent,
		},
	)
}

// Close shuts down the channel and connection.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
