package domain

import (
	"errors"
	"strings"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExpired            = errors.New("expired or invalid")
	ErrRateLimited        = errors.New("rate limited")
	ErrCSRF               = errors.New("csrf check failed")
)

// FieldIssue describes one failed input constraint.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationError carries the ordered list of field issues for a rejected request.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		msgs[i] = is.Field + ": " + is.Message
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrBadRequest }

// Message returns the first issue's message, which is what clients display.
func (e *ValidationError) Message() string {
	if len(e.Issues) == 0 {
		return "Validation failed"
	}
	return e.Issues[0].Message
}

// CSRF failure codes. Clients key off the CSRF_ prefix to refresh the token and retry
// instead of forcing a new login.
const (
	CSRFCodeMissing = "CSRF_TOKEN_MISSING"
	CSRFCodeExpired = "CSRF_TOKEN_EXPIRED"
	CSRFCodeInvalid = "CSRF_TOKEN_INVALID"
)

// CSRFError is returned by the CSRF guard.
type CSRFError struct {
	Code    string
	Message string
}

func (e *CSRFError) Error() string { return e.Code + ": " + e.Message }

func (e *CSRFError) Unwrap() error { return ErrCSRF }

// Error pairs a sentinel with the message shown to clients.
type Error struct {
	Kind    error
	Message string
}

func NewError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }
