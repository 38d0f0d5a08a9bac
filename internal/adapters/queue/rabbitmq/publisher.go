// Package rabbitmq publishes and consumes message status-change events over AMQP.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"sms-dispatch/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	exchangeName = "sms.events"
	queueName    = "sms.status.audit"
	routingKey   = "sms.message.status_changed"
)

// Publisher implements ports.EventPublisher using RabbitMQ.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher dials RabbitMQ and declares the events exchange.
func NewPublisher(amqpURL string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareExchange(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, channel: ch}, nil
}

// PublishStatusChanged serialises evt and publishes it to the events exchange.
func (p *Publisher) PublishStatusChanged(ctx context.Context, evt ports.StatusChanged) error {
	msg, err := encode(evt)
	if err != nil {
		return err
	}

	if err := p.channel.PublishWithContext(ctx, exchangeName, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish status change: %w", err)
	}
	return nil
}

// Close cleanly shuts down the channel and connection.
func (p *Publisher) Close() {
	p.channel.Close()
	p.conn.Close()
}

func encode(evt ports.StatusChanged) (amqp.Publishing, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.MessageID.String(),
		Type:         routingKey,
		Timestamp:    evt.OccurredAt,
		Body:         body,
	}, nil
}

func declareExchange(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	return nil
}

// declare idempotently sets up the exchange, the audit queue and its binding.
func declare(ch *amqp.Channel) error {
	if err := declareExchange(ch); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queueName, routingKey, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}
