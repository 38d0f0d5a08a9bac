package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"sms-dispatch/internal/domain"
	"sms-dispatch/internal/metrics"
	"sms-dispatch/internal/phone"
	"sms-dispatch/internal/ports"
)

// Dispatcher submits messages to the gateway and reconciles their delivery status.
type Dispatcher struct {
	repo    ports.MessageRepository
	gateway ports.Gateway
	events  ports.EventPublisher
	log     *slog.Logger
}

// NewDispatcher wires the dispatcher. events may be nil when no broker is configured.
func NewDispatcher(
	repo ports.MessageRepository,
	gateway ports.Gateway,
	events ports.EventPublisher,
	log *slog.Logger,
) *Dispatcher {
	if events == nil {
		events = noopPublisher{}
	}
	return &Dispatcher{
		repo:    repo,
		gateway: gateway,
		events:  events,
		log:     log.With("component", "dispatcher"),
	}
}

// SendRequest is the input for a single outbound SMS.
type SendRequest struct {
	SenderID        uuid.UUID
	RecipientNumber string
	Body            string
	ContactID       *uuid.UUID
}

// Send persists a pending message, submits it and records the outcome.
// On a gateway failure the message is stored as failed and the gateway error is returned
// together with the failed message.
func (d *Dispatcher) Send(ctx context.Context, req SendRequest) (*domain.Message, error) {
	if strings.TrimSpace(req.Body) == "" {
		metrics.ObserveSend("rejected")
		return nil, domain.NewValidationError("message body is empty")
	}
	ok, number := phone.Normalize(req.RecipientNumber)
	if !ok {
		metrics.ObserveSend("rejected")
		return nil, domain.NewValidationError("invalid recipient number %q", req.RecipientNumber)
	}

	msg := domain.NewMessage(req.SenderID, number, req.Body, req.ContactID)
	if err := d.repo.CreateMessage(ctx, &msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	result, submitErr := d.gateway.SubmitMessage(ctx, msg.RecipientNumber, msg.Content)
	if submitErr != nil {
		d.log.ErrorContext(ctx, "submit failed", "msg_id", msg.ID, "err", submitErr)
		metrics.ObserveSend("failed")

		if err := msg.Transition(domain.StatusFailed); err != nil {
			return &msg, submitErr
		}
		if err := d.repo.UpdateMessage(ctx, &msg); err != nil {
			d.log.ErrorContext(ctx, "mark failed", "msg_id", msg.ID, "err", err)
			return &msg, fmt.Errorf("mark failed: %w", errors.Join(submitErr, err))
		}
		d.publish(ctx, &msg, domain.StatusPending)
		return &msg, submitErr
	}

	if err := msg.MarkSent(result.GatewayMessageID); err != nil {
		return &msg, fmt.Errorf("mark sent: %w", err)
	}
	if err := d.repo.UpdateMessage(ctx, &msg); err != nil {
		// The gateway accepted the message; its id is only recoverable from this log line.
		d.log.ErrorContext(ctx, "persist sent failed", "msg_id", msg.ID, "gateway_message_id", msg.GatewayMessageID, "err", err)
		return &msg, fmt.Errorf("update message %s (gateway id %s): %w", msg.ID, msg.GatewayMessageID, err)
	}

	metrics.ObserveSend("sent")
	d.log.InfoContext(ctx, "message sent", "msg_id", msg.ID, "gateway_message_id", msg.GatewayMessageID)
	d.publish(ctx, &msg, domain.StatusPending)
	return &msg, nil
}

// CheckStatus queries the gateway for a message's delivery status and stores any
// forward transition. Gateway errors are returned without touching the stored status.
func (d *Dispatcher) CheckStatus(ctx context.Context, id uuid.UUID) (domain.DeliveryReport, error) {
	msg, err := d.repo.GetMessage(ctx, id)
	if err != nil {
		metrics.ObserveStatusCheck("error")
		return domain.DeliveryReport{}, err
	}
	if msg.GatewayMessageID == "" {
		metrics.ObserveStatusCheck("error")
		return domain.DeliveryReport{}, domain.ErrNoGatewayID
	}

	info, err := d.gateway.FetchDeliveryStatus(ctx, msg.GatewayMessageID)
	if err != nil {
		d.log.ErrorContext(ctx, "fetch delivery status", "msg_id", msg.ID, "err", err)
		metrics.ObserveStatusCheck("error")
		return domain.DeliveryReport{}, err
	}

	report := domain.DeliveryReport{
		GatewayMessageID: msg.GatewayMessageID,
		DeliveryStatus:   info.DeliveryStatus,
		Details:          info.Details,
	}

	mapped, known := MapDeliveryStatus(info.DeliveryStatus)
	if !known || mapped == msg.Status {
		metrics.ObserveStatusCheck("unchanged")
		report.Status = msg.Status
		return report, nil
	}

	from := msg.Status
	if err := msg.Transition(mapped); err != nil {
		d.log.WarnContext(ctx, "ignoring status regression",
			"msg_id", msg.ID, "status", from, "reported", mapped)
		metrics.ObserveStatusCheck("unchanged")
		report.Status = from
		return report, nil
	}
	if err := d.repo.UpdateMessage(ctx, msg); err != nil {
		metrics.ObserveStatusCheck("error")
		return domain.DeliveryReport{}, fmt.Errorf("update message: %w", err)
	}

	metrics.ObserveStatusCheck("changed")
	d.log.InfoContext(ctx, "status changed", "msg_id", msg.ID, "from", from, "status", msg.Status)
	d.publish(ctx, msg, from)

	report.Status = msg.Status
	return report, nil
}

// Get returns a message owned by senderID. Messages of other senders are reported as not found.
func (d *Dispatcher) Get(ctx context.Context, senderID, id uuid.UUID) (*domain.Message, error) {
	msg, err := d.repo.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != senderID {
		return nil, domain.ErrMessageNotFound
	}
	return msg, nil
}

// History returns the sender's messages, newest first.
func (d *Dispatcher) History(ctx context.Context, senderID uuid.UUID, page Page) ([]domain.Message, error) {
	page = page.normalize()
	msgs, err := d.repo.ListMessagesBySender(ctx, senderID, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// publish is best effort: a broker outage never fails the request.
func (d *Dispatcher) publish(ctx context.Context, msg *domain.Message, from domain.Status) {
	evt := ports.StatusChanged{
		MessageID:        msg.ID,
		SenderID:         msg.SenderID,
		GatewayMessageID: msg.GatewayMessageID,
		From:             from,
		To:               msg.Status,
		OccurredAt:       time.Now().UTC(),
	}
	if err := d.events.PublishStatusChanged(ctx, evt); err != nil {
		d.log.WarnContext(ctx, "publish status change", "msg_id", msg.ID, "err", err)
	}
}

// MapDeliveryStatus maps a gateway delivery status onto a local status.
// known is false for values the gateway may add later; callers keep the stored status.
func MapDeliveryStatus(deliveryStatus string) (status domain.Status, known bool) {
	switch deliveryStatus {
	case "DeliveredToTerminal", "DeliveredToNetwork":
		return domain.StatusDelivered, true
	case "MessageWaiting":
		return domain.StatusSending, true
	case "DeliveryImpossible":
		return domain.StatusFailed, true
	}
	return "", false
}

type noopPublisher struct{}

func (noopPublisher) PublishStatusChanged(context.Context, ports.StatusChanged) error { return nil }
