// Package nats publishes and consumes message status-change events over core NATS.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"sms-dispatch/internal/ports"
)

// Subject carries every status-change event.
const Subject = "sms.message.status_changed"

// queueGroup load-balances consumers of the same deployment.
const queueGroup = "sms-status-auditor"

type publisher interface {
	Publish(subj string, data []byte) error
}

// Client implements ports.EventPublisher and ports.EventConsumer.
type Client struct {
	conn *nats.Conn
	pub  publisher
	log  *slog.Logger
}

// Connect dials natsURL with reconnect handling and returns a Client.
func Connect(natsURL, appName string, log *slog.Logger) (*Client, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name(appName),
		nats.Timeout(5*time.Second),
		nats.PingInterval(20*time.Second),
		nats.MaxPingsOutstanding(3),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Error("nats connection closed", "err", nc.LastError())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Client{conn: nc, pub: nc, log: log}, nil
}

// PublishStatusChanged publishes evt as JSON on Subject.
func (c *Client) PublishStatusChanged(_ context.Context, evt ports.StatusChanged) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := c.pub.Publish(Subject, body); err != nil {
		return fmt.Errorf("publish status change: %w", err)
	}
	return nil
}

// Consume subscribes to Subject in a queue group and blocks until ctx is cancelled.
// Core NATS has no redelivery, so handler errors are logged and dropped.
func (c *Client) Consume(ctx context.Context, handler func(ctx context.Context, evt ports.StatusChanged) error) error {
	sub, err := c.conn.QueueSubscribe(Subject, queueGroup, func(m *nats.Msg) {
		c.handle(ctx, m.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", Subject, err)
	}
	defer sub.Unsubscribe() //nolint:errcheck

	<-ctx.Done()
	return ctx.Err()
}

func (c *Client) handle(ctx context.Context, data []byte, handler func(ctx context.Context, evt ports.StatusChanged) error) {
	var evt ports.StatusChanged
	if err := json.Unmarshal(data, &evt); err != nil {
		c.log.Error("unmarshal event", "err", err)
		return
	}
	if err := handler(ctx, evt); err != nil {
		c.log.Error("handler error", "msg_id", evt.MessageID, "err", err)
	}
}

// Close drains pending publishes and closes the connection.
func (c *Client) Close() {
	if c.conn != nil && !c.conn.IsClosed() {
		_ = c.conn.Drain()
	}
}
