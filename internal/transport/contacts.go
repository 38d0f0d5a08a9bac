package transport

import (
	"sms-dispatch/internal/app"
	"sms-dispatch/internal/domain"

	"github.com/gofiber/fiber/v2"
)

type contactRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Notes       string `json:"notes"`
}

func (r contactRequest) input() app.ContactInput {
	return app.ContactInput{Name: r.Name, PhoneNumber: r.PhoneNumber, Notes: r.Notes}
}

// GET /contacts?skip=0&limit=100
func (h *Handler) ListContacts(c *fiber.Ctx) error {
	list, err := h.contacts.List(c.Context(), currentAccount(c).ID, page(c))
	if err != nil {
		return h.fail(c, err)
	}
	if list == nil {
		list = []domain.Contact{}
	}
	return c.JSON(list)
}

// POST /contacts
func (h *Handler) CreateContact(c *fiber.Ctx) error {
	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	contact, err := h.contacts.Create(c.Context(), currentAccount(c).ID, req.input())
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(contact)
}

// GET /contacts/:id
func (h *Handler) GetContact(c *fiber.Ctx) error {
	id, err := pathID(c, domain.ErrContactNotFound)
	if err != nil {
		return h.fail(c, err)
	}
	contact, err := h.contacts.Get(c.Context(), currentAccount(c).ID, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(contact)
}

// PUT /contacts/:id
func (h *Handler) UpdateContact(c *fiber.Ctx) error {
	id, err := pathID(c, domain.ErrContactNotFound)
	if err != nil {
		return h.fail(c, err)
	}
	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	contact, err := h.contacts.Update(c.Context(), currentAccount(c).ID, id, req.input())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(contact)
}

// DELETE /contacts/:id
func (h *Handler) DeleteContact(c *fiber.Ctx) error {
	id, err := pathID(c, domain.ErrContactNotFound)
	if err != nil {
		return h.fail(c, err)
	}
	contact, err := h.contacts.Delete(c.Context(), currentAccount(c).ID, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(contact)
}
