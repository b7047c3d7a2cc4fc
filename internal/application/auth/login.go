package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-auth-redis/internal/application/ratelimit"
	"github.com/go-auth-redis/internal/domain"
	"github.com/go-auth-redis/internal/pkg/validate"
)

const msgInvalidCredentials = "Invalid credentials"

// Login checks the password and mails a one-time code. Unknown email and wrong
// password produce the same error after the same bcrypt cost.
func (s *service) Login(ctx context.Context, addr string, req LoginRequest) error {
	req.Email = validate.Email(req.Email)
	res := validate.Struct(req)
	if !res.OK() {
		s.metrics.AuthEvent("login", "invalid")
		return res.Err()
	}
	in := res.Value

	if err := s.throttled(ctx, ratelimit.ActionLogin, addr, in.Email, msgTooManyRequests); err != nil {
		return err
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		s.hasher.CompareDummy(in.Password)
		s.metrics.AuthEvent("login", "bad_credentials")
		return domain.NewError(domain.ErrInvalidCredentials, msgInvalidCredentials)
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	ok, err := s.hasher.Compare(u.PasswordHash, in.Password)
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		s.metrics.AuthEvent("login", "bad_credentials")
		return domain.NewError(domain.ErrInvalidCredentials, msgInvalidCredentials)
	}

	if err := s.sendOTP(ctx, in.Email, "Otp for verification"); err != nil {
		return err
	}
	if err := s.arm(ctx, ratelimit.ActionLogin, addr, in.Email); err != nil {
		return err
	}
	s.metrics.AuthEvent("login", "otp_sent")
	return nil
}

// VerifyOTP completes login and mints the session credentials.
func (s *service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*LoginResult, error) {
	email := validate.Email(req.Email)
	code := validate.Sanitize(req.OTP)
	if email == "" || code == "" {
		return nil, domain.NewError(domain.ErrBadRequest, "Please provide all details")
	}

	if err := s.verify.VerifyOTP(ctx, email, code); err != nil {
		switch {
		case errors.Is(err, domain.ErrExpired):
			s.metrics.AuthEvent("verify_otp", "expired")
			return nil, domain.NewError(domain.ErrExpired, "otp expired")
		case errors.Is(err, domain.ErrInvalidCredentials):
			s.metrics.AuthEvent("verify_otp", "mismatch")
			return nil, domain.NewError(domain.ErrInvalidCredentials, "Invalid Otp")
		}
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.ErrNotFound, "User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	tokens, err := s.sessions.GenerateToken(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("generate session: %w", err)
	}
	s.metrics.AuthEvent("verify_otp", "ok")
	return &LoginResult{User: u, Tokens: tokens}, nil
}

// ResendOTP replaces the outstanding code for a known account.
func (s *service) ResendOTP(ctx context.Context, addr string, req EmailRequest) error {
	email := validate.Email(req.Email)
	if email == "" {
		return domain.NewError(domain.ErrBadRequest, "Email is required")
	}
	_, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewError(domain.ErrBadRequest, "User not found")
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	if err := s.throttled(ctx, ratelimit.ActionResendOTP, addr, email, "Too many requests, please try again after 1 minute"); err != nil {
		return err
	}
	if err := s.sendOTP(ctx, email, "Your new OTP for verification"); err != nil {
		return err
	}
	if err := s.arm(ctx, ratelimit.ActionResendOTP, addr, email); err != nil {
		return err
	}
	s.metrics.AuthEvent("resend_otp", "ok")
	return nil
}

func (s *service) sendOTP(ctx context.Context, email, subject string) error {
	code, err := s.verify.StageOTP(ctx, email)
	if err != nil {
		return err
	}
	body, err := otpEmailBody(email, code)
	if err != nil {
		return err
	}
	if err := s.mailer.SendEmail(email, subject, body); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}
