package transport

import (
	"log/slog"

	"sms-dispatch/internal/app"

	"github.com/gofiber/fiber/v2"
)

// Handler holds all HTTP handlers of the SMS API.
type Handler struct {
	dispatcher *app.Dispatcher
	accounts   *app.AccountService
	contacts   *app.ContactService
	log        *slog.Logger
}

// NewHandler wires up a Handler with its dependencies.
func NewHandler(dispatcher *app.Dispatcher, accounts *app.AccountService, contacts *app.ContactService, log *slog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		accounts:   accounts,
		contacts:   contacts,
		log:        log.With("component", "http"),
	}
}

// Register mounts the API routes under router. sendMiddleware runs on
// POST /sms/send after authentication.
func (h *Handler) Register(router fiber.Router, sendMiddleware ...fiber.Handler) {
	authGroup := router.Group("/auth")
	authGroup.Post("/signup", h.Signup)
	authGroup.Post("/login/access-token", h.Login)
	authGroup.Get("/me", h.RequireAuth(), h.Me)

	contacts := router.Group("/contacts", h.RequireAuth())
	contacts.Get("/", h.ListContacts)
	contacts.Post("/", h.CreateContact)
	contacts.Get("/:id", h.GetContact)
	contacts.Put("/:id", h.UpdateContact)
	contacts.Delete("/:id", h.DeleteContact)

	sms := router.Group("/sms", h.RequireAuth())
	sms.Post("/send", append(sendMiddleware, h.SendSMS)...)
	sms.Get("/history", h.History)
	sms.Get("/:id", h.GetSMS)
	sms.Get("/:id/status", h.CheckStatus)
}

// Health reports liveness.
//
// GET /health
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func page(c *fiber.Ctx) app.Page {
	return app.Page{
		Skip:  c.QueryInt("skip", 0),
		Limit: c.QueryInt("limit", app.DefaultLimit),
	}
}
