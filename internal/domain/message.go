package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the delivery state of an SMS message.
type Status string

const (
	StatusPending   Status = "pending"   // Persisted, not yet accepted by the gateway
	StatusSent      Status = "sent"      // Accepted by the gateway
	StatusSending   Status = "sending"   // Gateway reports the message is waiting for delivery
	StatusDelivered Status = "delivered" // Confirmed delivered to the network or terminal
	StatusFailed    Status = "failed"    // Submission failed or delivery impossible
)

// transitions lists the statuses reachable from each status.
var transitions = map[Status][]Status{
	StatusPending: {StatusSent, StatusFailed},
	StatusSent:    {StatusDelivered, StatusSending, StatusFailed},
	StatusSending: {StatusDelivered, StatusFailed},
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusSending, StatusDelivered, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusFailed
}

// CanTransition reports whether a message in status s may move to next.
func (s Status) CanTransition(next Status) bool {
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// Message is a single outbound SMS and its delivery history.
type Message struct {
	ID                 uuid.UUID  `json:"id"`
	Content            string     `json:"content"`
	RecipientNumber    string     `json:"recipient_number"`
	SenderID           uuid.UUID  `json:"sender_id"`
	RecipientContactID *uuid.UUID `json:"recipient_id,omitempty"`
	Status             Status     `json:"status"`
	GatewayMessageID   string     `json:"message_id,omitempty"` // Correlation id assigned by the gateway
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewMessage creates a pending Message owned by senderID.
func NewMessage(senderID uuid.UUID, recipient, content string, contactID *uuid.UUID) Message {
	now := time.Now().UTC()
	return Message{
		ID:                 uuid.New(),
		Content:            content,
		RecipientNumber:    recipient,
		SenderID:           senderID,
		RecipientContactID: contactID,
		Status:             StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Transition moves the message to next, refusing moves the state machine does not allow.
func (m *Message) Transition(next Status) error {
	if !m.Status.CanTransition(next) {
		return ErrInvalidTransition
	}
	m.Status = next
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkSent records a successful gateway submission.
func (m *Message) MarkSent(gatewayMessageID string) error {
	if gatewayMessageID == "" {
		return ErrInvalidTransition
	}
	if err := m.Transition(StatusSent); err != nil {
		return err
	}
	m.GatewayMessageID = gatewayMessageID
	return nil
}

// DeliveryReport is the result of a status check against the gateway.
type DeliveryReport struct {
	GatewayMessageID string          `json:"message_id"`
	Status           Status          `json:"status"`
	DeliveryStatus   string          `json:"delivery_status"`
	Details          json.RawMessage `json:"details"`
}
