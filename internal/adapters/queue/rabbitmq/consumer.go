package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"sms-dispatch/internal/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

const auditPrefetch = 10

// Consumer reads status-change events from the audit queue.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *slog.Logger
}

// NewConsumer binds the audit queue to the events exchange. At most ten
// events are in flight per consumer.
func NewConsumer(amqpURL string, log *slog.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("connect audit consumer: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit channel: %w", err)
	}

	if err := ch.Qos(auditPrefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("audit prefetch: %w", err)
	}

	if err := declare(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Consumer{conn: conn, channel: ch, log: log.With("component", "status_audit_consumer")}, nil
}

// Consume hands each event to handler until ctx ends. Events the handler
// rejects go back on the queue; undecodable ones are dropped.
func (c *Consumer) Consume(ctx context.Context, handler func(ctx context.Context, evt ports.StatusChanged) error) error {
	const autoAck, exclusive, noLocal, noWait = false, false, false, false
	deliveries, err := c.channel.Consume(queueName, "", autoAck, exclusive, noLocal, noWait, nil)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", queueName, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("%s subscription ended by broker", queueName)
			}

			evt, err := decode(d.Body)
			if err != nil {
				c.log.Error("drop undecodable status event", "delivery_tag", d.DeliveryTag, "err", err)
				_ = d.Nack(false, false)
				continue
			}

			if err := handler(ctx, evt); err != nil {
				c.log.Error("status audit failed", "msg_id", evt.MessageID, "to", evt.To, "err", err)
				_ = d.Nack(false, true)
				continue
			}

			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) Close() {
	c.channel.Close()
	c.conn.Close()
}

func decode(body []byte) (ports.StatusChanged, error) {
	var evt ports.StatusChanged
	if err := json.Unmarshal(body, &evt); err != nil {
		return ports.StatusChanged{}, fmt.Errorf("decode status event: %w", err)
	}
	return evt, nil
}
