package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Actions guarded by a sentinel.
const (
	ActionRegister  = "register"
	ActionLogin     = "login"
	ActionResendOTP = "resend-otp"
)

type store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Limiter throttles an action per client address and identity using a sentinel key
// whose presence alone means "wait". It is armed only after the guarded operation
// succeeds, so failed attempts never lock anyone out.
//
// Check and arm are separate commands: two requests racing inside the same window can
// both pass. This is a best-effort limiter, not a quota.
type Limiter struct {
	store  store
	window time.Duration
}

func NewLimiter(s store, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{store: s, window: window}
}

func Key(action, addr, identity string) string {
	return fmt.Sprintf("%s-rate-limit:%s:%s", action, addr, identity)
}

// ShouldThrottle reports whether a sentinel for (action, addr, identity) is live.
func (l *Limiter) ShouldThrottle(ctx context.Context, action, addr, identity string) (bool, error) {
	ok, err := l.store.Exists(ctx, Key(action, addr, identity))
	if err != nil {
		return false, fmt.Errorf("rate limit check %s: %w", action, err)
	}
	return ok, nil
}

// Arm starts the throttle window for (action, addr, identity).
func (l *Limiter) Arm(ctx context.Context, action, addr, identity string) error {
	if err := l.store.Set(ctx, Key(action, addr, identity), "true", l.window); err != nil {
		return fmt.Errorf("rate limit arm %s: %w", action, err)
	}
	return nil
}

func (l *Limiter) Window() time.Duration { return l.window }
