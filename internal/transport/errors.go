package transport

import (
	"errors"

	"sms-dispatch/internal/domain"

	"github.com/gofiber/fiber/v2"
)

type errorResponse struct {
	Error          string `json:"error"`
	Detail         string `json:"detail"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindGatewayAuth, domain.KindGatewaySubmit, domain.KindGatewayStatus:
		return fiber.StatusBadGateway
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindInvalidState, domain.KindValidation:
		return fiber.StatusBadRequest
	case domain.KindUnauthorized:
		return fiber.StatusUnauthorized
	case domain.KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes err as a structured error response. Untagged errors are logged
// and reported without detail.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	resp := errorResponse{Error: string(kind)}

	var derr *domain.Error
	if errors.As(err, &derr) {
		resp.Detail = derr.Message
		resp.UpstreamStatus = derr.UpstreamStatus
		resp.UpstreamBody = derr.UpstreamBody
	} else {
		resp.Detail = "internal server error"
	}

	if status >= fiber.StatusInternalServerError {
		h.log.Error("request failed", "path", c.Path(), "request_id", c.Locals("request_id"), "err", err)
	}
	if kind == domain.KindUnauthorized {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	}
	return c.Status(status).JSON(resp)
}

func badRequest(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: string(domain.KindValidation), Detail: detail})
}
