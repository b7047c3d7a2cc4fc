package csrf

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/go-auth-redis/internal/domain"
	pkgtoken "github.com/go-auth-redis/internal/pkg/token"
)

// HeaderName is the request header mutating calls must echo the token in.
const HeaderName = "x-csrf-token"

type store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Guard implements double-submit CSRF protection. One token is live per user;
// generating a new one invalidates the previous value.
type Guard struct {
	store    store
	ttl      time.Duration
	newToken func() (string, error)
}

func NewGuard(s store, ttl time.Duration) *Guard {
	return &Guard{store: s, ttl: ttl, newToken: pkgtoken.NewOpaque}
}

func key(userID string) string { return "csrf:" + userID }

func (g *Guard) Generate(ctx context.Context, userID string) (string, error) {
	tok, err := g.newToken()
	if err != nil {
		return "", err
	}
	if err := g.store.Set(ctx, key(userID), tok, g.ttl); err != nil {
		return "", fmt.Errorf("store csrf token: %w", err)
	}
	return tok, nil
}

// Validate compares the echoed header value with the stored token. Failures are
// *domain.CSRFError so clients can refresh the token instead of logging in again.
func (g *Guard) Validate(ctx context.Context, userID, headerValue string) error {
	if headerValue == "" {
		return &domain.CSRFError{Code: domain.CSRFCodeMissing, Message: "CSRF Token missing. Please refresh the page."}
	}
	stored, err := g.store.Get(ctx, key(userID))
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.CSRFError{Code: domain.CSRFCodeExpired, Message: "CSRF Token expired. Please try again."}
	}
	if err != nil {
		return fmt.Errorf("load csrf token: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(headerValue)) != 1 {
		return &domain.CSRFError{Code: domain.CSRFCodeInvalid, Message: "Invalid CSRF Token. Please refresh the page."}
	}
	return nil
}

func (g *Guard) Revoke(ctx context.Context, userID string) error {
	if err := g.store.Delete(ctx, key(userID)); err != nil {
		return fmt.Errorf("revoke csrf token: %w", err)
	}
	return nil
}
