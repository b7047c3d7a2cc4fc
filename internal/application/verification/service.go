package verification

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-auth-redis/internal/domain"
	pkgtoken "github.com/go-auth-redis/internal/pkg/token"
)

const (
	PendingTTL = 5 * time.Minute
	OTPTTL     = 5 * time.Minute
	ResetTTL   = 15 * time.Minute
)

type store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	TakeJSON(ctx context.Context, key string, dst any) error
}

// Service stages and consumes the short-lived records behind email verification,
// login OTPs and password reset. Every consume is single-use.
type Service interface {
	StagePending(ctx context.Context, p domain.PendingRegistration) (token string, err error)
	ConsumePending(ctx context.Context, token string) (*domain.PendingRegistration, error)
	StageOTP(ctx context.Context, email string) (code string, err error)
	VerifyOTP(ctx context.Context, email, code string) error
	StageReset(ctx context.Context, userID string) (token string, err error)
	ConsumeReset(ctx context.Context, token string) (userID string, err error)
}

type ServiceDeps struct {
	Store store
	// MaxOTPAttempts caps wrong guesses per staged code. Zero leaves guesses unlimited
	// within the code's lifetime.
	MaxOTPAttempts int
	NewToken       func() (string, error)
	NewOTP         func() (string, error)
}

type service struct {
	store       store
	maxAttempts int
	newToken    func() (string, error)
	newOTP      func() (string, error)
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:       deps.Store,
		maxAttempts: deps.MaxOTPAttempts,
		newToken:    deps.NewToken,
		newOTP:      deps.NewOTP,
	}
	if s.newToken == nil {
		s.newToken = pkgtoken.NewOpaque
	}
	if s.newOTP == nil {
		s.newOTP = pkgtoken.NewOTP
	}
	return s
}

func pendingKey(token string) string     { return "verify:" + token }
func otpKey(email string) string         { return "otp:" + email }
func otpAttemptsKey(email string) string { return "otp-attempts:" + email }
func resetKey(token string) string       { return "reset:" + token }

func (s *service) StagePending(ctx context.Context, p domain.PendingRegistration) (string, error) {
	tok, err := s.newToken()
	if err != nil {
		return "", err
	}
	if err := s.store.SetJSON(ctx, pendingKey(tok), p, PendingTTL); err != nil {
		return "", fmt.Errorf("stage pending registration: %w", err)
	}
	return tok, nil
}

func (s *service) ConsumePending(ctx context.Context, token string) (*domain.PendingRegistration, error) {
	if token == "" {
		return nil, fmt.Errorf("verification token: %w", domain.ErrExpired)
	}
	var p domain.PendingRegistration
	if err := s.store.TakeJSON(ctx, pendingKey(token), &p); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("verification token: %w", domain.ErrExpired)
		}
		return nil, err
	}
	return &p, nil
}

// StageOTP overwrites any earlier code for email, so only the latest one verifies.
func (s *service) StageOTP(ctx context.Context, email string) (string, error) {
	code, err := s.newOTP()
	if err != nil {
		return "", err
	}
	if err := s.store.SetJSON(ctx, otpKey(email), code, OTPTTL); err != nil {
		return "", fmt.Errorf("stage otp: %w", err)
	}
	if err := s.store.Delete(ctx, otpAttemptsKey(email)); err != nil {
		return "", fmt.Errorf("reset otp attempts: %w", err)
	}
	return code, nil
}

// VerifyOTP compares code with the staged value. A wrong guess leaves the code in
// place unless it exhausts the attempt budget, in which case the code is burned.
func (s *service) VerifyOTP(ctx context.Context, email, code string) error {
	raw, err := s.store.Get(ctx, otpKey(email))
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("otp: %w", domain.ErrExpired)
	}
	if err != nil {
		return err
	}
	var stored string
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return fmt.Errorf("decode otp: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1 {
		if err := s.store.Delete(ctx, otpKey(email), otpAttemptsKey(email)); err != nil {
			return fmt.Errorf("consume otp: %w", err)
		}
		return nil
	}

	if s.maxAttempts > 0 {
		n, err := s.store.Incr(ctx, otpAttemptsKey(email), OTPTTL)
		if err != nil {
			return fmt.Errorf("count otp attempt: %w", err)
		}
		if n >= int64(s.maxAttempts) {
			if err := s.store.Delete(ctx, otpKey(email), otpAttemptsKey(email)); err != nil {
				return fmt.Errorf("burn otp: %w", err)
			}
			return fmt.Errorf("otp attempts exhausted: %w", domain.ErrExpired)
		}
	}
	return fmt.Errorf("otp: %w", domain.ErrInvalidCredentials)
}

func (s *service) StageReset(ctx context.Context, userID string) (string, error) {
	tok, err := s.newToken()
	if err != nil {
		return "", err
	}
	if err := s.store.SetJSON(ctx, resetKey(tok), domain.ResetTicket{UserID: userID}, ResetTTL); err != nil {
		return "", fmt.Errorf("stage reset ticket: %w", err)
	}
	return tok, nil
}

// ConsumeReset deletes the ticket as part of the read, before the caller does anything
// else with it, so a ticket cannot be replayed even when a later step fails.
func (s *service) ConsumeReset(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("reset token: %w", domain.ErrExpired)
	}
	var t domain.ResetTicket
	if err := s.store.TakeJSON(ctx, resetKey(token), &t); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("reset token: %w", domain.ErrExpired)
		}
		return "", err
	}
	if t.UserID == "" {
		return "", fmt.Errorf("reset token: %w", domain.ErrExpired)
	}
	return t.UserID, nil
}
