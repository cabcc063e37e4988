// Package broker forwards selected CRM domain events to an AMQP topic
// exchange for downstream systems such as billing and BI.
package broker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultExchange = "ex.crm"

// RabbitMQ owns the connection and channel used for publishing.
type RabbitMQ struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// Dial connects to url and declares a durable topic exchange.
func Dial(url, exchange string) (*RabbitMQ, error) {
	if exchange == "" {
		exchange = defaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &RabbitMQ{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends body as a persistent JSON message under routingKey.
func (r *RabbitMQ) Publish(ctx context.Context, routingKey string, messageID string, body []byte) error {
	err := r.ch.PublishWithContext(ctx,
		r.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    messageID,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Ping reports whether the connection is still open.
func (r *RabbitMQ) Ping(context.Context) error {
	if r == nil || r.conn == nil || r.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection closed")
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	if r == nil || r.conn == nil {
		return nil
	}
	return r.conn.Close()
}
