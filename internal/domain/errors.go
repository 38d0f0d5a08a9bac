package domain

import (
	"errors"
	"fmt"
)

// Kind is the stable category of a failure, surfaced to API callers.
type Kind string

const (
	KindAuthConfig    Kind = "auth_config"
	KindGatewayAuth   Kind = "gateway_auth"
	KindGatewaySubmit Kind = "gateway_submit"
	KindGatewayStatus Kind = "gateway_status"
	KindNotFound      Kind = "not_found"
	KindInvalidState  Kind = "invalid_state"
	KindValidation    Kind = "validation"
	KindUnauthorized  Kind = "unauthorized"
	KindForbidden     Kind = "forbidden"
	KindInternal      Kind = "internal"
)

// Error is a failure tagged with a Kind. Gateway failures carry the upstream
// HTTP status and body when one was received.
type Error struct {
	Kind           Kind
	Message        string
	UpstreamStatus int
	UpstreamBody   string
	Cause          error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.UpstreamStatus != 0 {
		msg = fmt.Sprintf("%s (upstream status %d)", msg, e.UpstreamStatus)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same Kind, so sentinel errors below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// KindOf returns the Kind of err, or KindInternal for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewAuthConfigError(format string, args ...any) *Error {
	return newError(KindAuthConfig, format, args...)
}

func NewNotFoundError(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func NewInvalidStateError(format string, args ...any) *Error {
	return newError(KindInvalidState, format, args...)
}

func NewValidationError(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func NewUnauthorizedError(format string, args ...any) *Error {
	return newError(KindUnauthorized, format, args...)
}

func NewForbiddenError(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

// NewGatewayError builds a gateway failure of the given kind. status and body
// are zero when the request never produced a response.
func NewGatewayError(kind Kind, message string, status int, body string, cause error) *Error {
	return &Error{
		Kind:           kind,
		Message:        message,
		UpstreamStatus: status,
		UpstreamBody:   body,
		Cause:          cause,
	}
}

// Domain errors
var (
	ErrMessageNotFound   = &Error{Kind: KindNotFound, Message: "message not found"}
	ErrAccountNotFound   = &Error{Kind: KindNotFound, Message: "account not found"}
	ErrContactNotFound   = &Error{Kind: KindNotFound, Message: "contact not found"}
	ErrNoGatewayID       = &Error{Kind: KindInvalidState, Message: "no message identifier: initial send failed"}
	ErrInvalidTransition = &Error{Kind: KindInvalidState, Message: "invalid status transition"}
	ErrEmailTaken        = &Error{Kind: KindValidation, Message: "email already registered"}
	ErrDuplicateContact  = &Error{Kind: KindValidation, Message: "a contact with this phone number already exists"}
)
