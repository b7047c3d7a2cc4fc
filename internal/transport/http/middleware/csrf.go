package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-auth-redis/internal/application/csrf"
	"github.com/go-auth-redis/internal/domain"
)

type csrfValidator interface {
	Validate(ctx context.Context, userID, headerValue string) error
}

// CSRF checks the x-csrf-token header against the token on record for the
// authenticated user. Must run after Auth.
func CSRF(v csrfValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Please Login - no token")
				return
			}
			err := v.Validate(r.Context(), claims.UserID, r.Header.Get(csrf.HeaderName))
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}
			var ce *domain.CSRFError
			if errors.As(err, &ce) {
				writeJSONErrorCode(w, http.StatusForbidden, ce.Message, ce.Code)
				return
			}
			slog.ErrorContext(r.Context(), "csrf validation", "user_id", claims.UserID, "err", err)
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
		})
	}
}
