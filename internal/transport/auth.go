package transport

import (
	"strings"

	"sms-dispatch/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const accountLocal = "account"

// RequireAuth resolves the bearer token to an active account and stores it in locals.
func (h *Handler) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok {
			return h.fail(c, domain.NewUnauthorizedError("missing bearer token"))
		}

		acc, err := h.accounts.Authenticate(c.Context(), strings.TrimSpace(token))
		if err != nil {
			return h.fail(c, err)
		}
		c.Locals(accountLocal, acc)
		return c.Next()
	}
}

// AccountKey returns the authenticated account id, or "" before authentication.
func AccountKey(c *fiber.Ctx) string {
	if acc, ok := c.Locals(accountLocal).(*domain.Account); ok {
		return acc.ID.String()
	}
	return ""
}

func currentAccount(c *fiber.Ctx) *domain.Account {
	acc, _ := c.Locals(accountLocal).(*domain.Account)
	return acc
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Signup creates an account.
//
// POST /auth/signup
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	acc, err := h.accounts.Signup(c.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(acc)
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for an access token. Accepts the OAuth2 password
// form (username, password) or JSON.
//
// POST /auth/login/access-token
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	email := req.Username
	if email == "" {
		email = req.Email
	}

	token, _, err := h.accounts.Login(c.Context(), email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Me returns the authenticated account.
//
// GET /auth/me
func (h *Handler) Me(c *fiber.Ctx) error {
	return c.JSON(currentAccount(c))
}

// pathID parses the :id route parameter. Malformed ids are reported as notFound.
func pathID(c *fiber.Ctx, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}
