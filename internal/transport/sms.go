package transport

import (
	"strings"

	"sms-dispatch/internal/app"
	"sms-dispatch/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type sendRequest struct {
	RecipientNumber string `json:"recipient_number"`
	Message         string `json:"message"`
	RecipientID     string `json:"recipient_id"`
}

// SendSMS submits one message to the gateway.
//
// POST /sms/send
// Body: { "recipient_number": "...", "message": "...", "recipient_id": "..." }
func (h *Handler) SendSMS(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	acc := currentAccount(c)

	var contactID *uuid.UUID
	if req.RecipientID != "" {
		id, err := uuid.Parse(req.RecipientID)
		if err != nil {
			return h.fail(c, domain.ErrContactNotFound)
		}
		contact, err := h.contacts.Get(c.Context(), acc.ID, id)
		if err != nil {
			return h.fail(c, err)
		}
		contactID = &contact.ID
		if strings.TrimSpace(req.RecipientNumber) == "" {
			req.RecipientNumber = contact.PhoneNumber
		}
	}

	msg, err := h.dispatcher.Send(c.Context(), app.SendRequest{
		SenderID:        acc.ID,
		RecipientNumber: req.RecipientNumber,
		Body:            req.Message,
		ContactID:       contactID,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// History lists the caller's messages, newest first.
//
// GET /sms/history?skip=0&limit=100
func (h *Handler) History(c *fiber.Ctx) error {
	msgs, err := h.dispatcher.History(c.Context(), currentAccount(c).ID, page(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(msgs)
}

// GetSMS returns one of the caller's messages.
//
// GET /sms/:id
func (h *Handler) GetSMS(c *fiber.Ctx) error {
	id, err := pathID(c, domain.ErrMessageNotFound)
	if err != nil {
		return h.fail(c, err)
	}
	msg, err := h.dispatcher.Get(c.Context(), currentAccount(c).ID, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(msg)
}

// CheckStatus refreshes a message's delivery status from the gateway.
//
// GET /sms/:id/status
func (h *Handler) CheckStatus(c *fiber.Ctx) error {
	id, err := pathID(c, domain.ErrMessageNotFound)
	if err != nil {
		return h.fail(c, err)
	}
	if _, err := h.dispatcher.Get(c.Context(), currentAccount(c).ID, id); err != nil {
		return h.fail(c, err)
	}

	report, err := h.dispatcher.CheckStatus(c.Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(report)
}
