package ports

import (
	"context"
	"time"

	"sms-dispatch/internal/domain"

	"github.com/google/uuid"
)

// StatusChanged is emitted after a message status change has been persisted.
type StatusChanged struct {
	MessageID        uuid.UUID     `json:"message_id"`
	SenderID         uuid.UUID     `json:"sender_id"`
	GatewayMessageID string        `json:"gateway_message_id,omitempty"`
	From             domain.Status `json:"from"`
	To               domain.Status `json:"to"`
	OccurredAt       time.Time     `json:"occurred_at"`
}

// EventPublisher publishes status-change events to a broker.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, evt StatusChanged) error
}

// EventConsumer delivers status-change events to handler.
// Blocks until ctx is cancelled or a fatal error occurs.
type EventConsumer interface {
	Consume(ctx context.Context, handler func(ctx context.Context, evt StatusChanged) error) error
}
