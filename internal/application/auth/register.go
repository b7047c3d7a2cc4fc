package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-auth-redis/internal/application/ratelimit"
	"github.com/go-auth-redis/internal/domain"
	"github.com/go-auth-redis/internal/pkg/id"
	"github.com/go-auth-redis/internal/pkg/validate"
)

const (
	msgTooManyRequests = "Too many requests, try again later"
	msgUserExists      = "user already exists"
)

// Register stages the account until its email is verified. Nothing reaches the
// durable store here.
func (s *service) Register(ctx context.Context, addr string, req RegisterRequest) error {
	req.Name = validate.Sanitize(req.Name)
	req.Email = validate.Email(req.Email)
	res := validate.Struct(req)
	if !res.OK() {
		s.metrics.AuthEvent("register", "invalid")
		return res.Err()
	}
	in := res.Value

	if err := s.throttled(ctx, ratelimit.ActionRegister, addr, in.Email, msgTooManyRequests); err != nil {
		return err
	}

	// Best effort only; the authoritative check runs again at verification.
	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		s.metrics.AuthEvent("register", "duplicate")
		return domain.NewError(domain.ErrConflict, msgUserExists)
	case !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	token, err := s.verify.StagePending(ctx, domain.PendingRegistration{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
	})
	if err != nil {
		return err
	}

	subject, body, err := verifyEmailMessage(in.Email, s.frontendURL+"/token/"+token)
	if err != nil {
		return err
	}
	if err := s.mailer.SendEmail(in.Email, subject, body); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}

	if err := s.arm(ctx, ratelimit.ActionRegister, addr, in.Email); err != nil {
		return err
	}
	s.metrics.AuthEvent("register", "ok")
	return nil
}

// VerifyEmail turns a pending registration into a user. The token is consumed even
// when the create is rejected.
func (s *service) VerifyEmail(ctx context.Context, token string) (*domain.PublicUser, error) {
	if token == "" {
		return nil, domain.NewError(domain.ErrBadRequest, "Verification token is required")
	}
	pending, err := s.verify.ConsumePending(ctx, token)
	if errors.Is(err, domain.ErrExpired) {
		s.metrics.AuthEvent("verify_email", "expired")
		return nil, domain.NewError(domain.ErrExpired, "Verification link is expired")
	}
	if err != nil {
		return nil, err
	}

	_, err = s.users.GetByEmail(ctx, pending.Email)
	switch {
	case err == nil:
		s.metrics.AuthEvent("verify_email", "duplicate")
		return nil, domain.NewError(domain.ErrConflict, msgUserExists)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	now := s.now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Name:         pending.Name,
		Email:        pending.Email,
		PasswordHash: pending.Password,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.NewError(domain.ErrConflict, msgUserExists)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", u.UserID)
	s.metrics.AuthEvent("verify_email", "ok")
	s.publish(ctx, domain.EventUserRegistered, u.UserID, "")
	pub := u.Public()
	return &pub, nil
}
