package app

import (
	"context"
	"errors"
	"log/slog"

	"sms-dispatch/internal/domain"
	"sms-dispatch/internal/ports"
)

// Auditor records status-change events and checks them against the stored message.
type Auditor struct {
	repo ports.MessageRepository
	log  *slog.Logger
}

func NewAuditor(repo ports.MessageRepository, log *slog.Logger) *Auditor {
	return &Auditor{repo: repo, log: log.With("component", "status_auditor")}
}

// Handle logs evt. Events for unknown messages are dropped; a stored status
// that disagrees with evt is logged as a drift and still acknowledged.
func (a *Auditor) Handle(ctx context.Context, evt ports.StatusChanged) error {
	if !evt.From.Valid() || !evt.To.Valid() {
		a.log.WarnContext(ctx, "event with unknown status", "msg_id", evt.MessageID, "from", evt.From, "to", evt.To)
		return nil
	}

	msg, err := a.repo.GetMessage(ctx, evt.MessageID)
	if errors.Is(err, domain.ErrMessageNotFound) {
		a.log.WarnContext(ctx, "event for unknown message", "msg_id", evt.MessageID)
		return nil
	}
	if err != nil {
		return err
	}

	if msg.Status != evt.To && !evt.To.CanTransition(msg.Status) {
		a.log.WarnContext(ctx, "status drift",
			"msg_id", evt.MessageID, "event_status", evt.To, "stored_status", msg.Status)
		return nil
	}

	a.log.InfoContext(ctx, "status audit",
		"msg_id", evt.MessageID,
		"sender_id", evt.SenderID,
		"gateway_message_id", evt.GatewayMessageID,
		"from", evt.From,
		"status", evt.To,
		"occurred_at", evt.OccurredAt,
	)
	return nil
}
