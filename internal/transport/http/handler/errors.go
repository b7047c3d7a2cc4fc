package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-auth-redis/internal/domain"
)

var statusByKind = []struct {
	kind   error
	status int
	msg    string
}{
	{domain.ErrBadRequest, http.StatusBadRequest, "Bad request"},
	{domain.ErrConflict, http.StatusBadRequest, "user already exists"},
	{domain.ErrInvalidCredentials, http.StatusBadRequest, "Invalid credentials"},
	{domain.ErrExpired, http.StatusBadRequest, "Invalid or expired token"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Session Expired. Please login"},
	{domain.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{domain.ErrNotFound, http.StatusNotFound, "Not found"},
	{domain.ErrRateLimited, http.StatusTooManyRequests, "Too many requests, try again later"},
}

// httpError maps a service error to its response. Anything unrecognised is a 500
// whose detail only reaches the log.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, ValidationEnvelope{Message: ve.Message(), Error: ve.Issues})
		return
	}
	var ce *domain.CSRFError
	if errors.As(err, &ce) {
		writeJSON(w, http.StatusForbidden, CSRFEnvelope{Message: ce.Message, Code: ce.Code})
		return
	}

	for _, k := range statusByKind {
		if !errors.Is(err, k.kind) {
			continue
		}
		msg := k.msg
		var de *domain.Error
		if errors.As(err, &de) {
			msg = de.Message
		}
		writeMessage(w, k.status, msg)
		return
	}

	slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeMessage(w, http.StatusInternalServerError, "internal server error")
}
