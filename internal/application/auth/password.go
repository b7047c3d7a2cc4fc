package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-auth-redis/internal/domain"
	"github.com/go-auth-redis/internal/pkg/validate"
)

const msgResetLinkSent = "If email exists, reset link sent"

func (s *service) ChangePassword(ctx context.Context, userID, presentedRefresh string, req ChangePasswordRequest) error {
	if req.OldPassword == "" || req.NewPassword == "" {
		return domain.NewError(domain.ErrBadRequest, "Please provide all fields")
	}
	if res := validate.Struct(newPasswordInput{NewPassword: req.NewPassword}); !res.OK() {
		return res.Err()
	}

	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := s.hasher.Compare(u.PasswordHash, req.OldPassword)
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		s.metrics.AuthEvent("change_password", "bad_credentials")
		return domain.NewError(domain.ErrBadRequest, "Old password incorrect")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.keepOnlyPresentedSession(ctx, userID, presentedRefresh); err != nil {
		return err
	}
	s.dropProfile(ctx, userID)
	s.metrics.AuthEvent("change_password", "ok")
	s.publish(ctx, domain.EventPasswordChanged, userID, "")
	return nil
}

// keepOnlyPresentedSession makes the caller's refresh token the one on record. A token
// that does not belong to this user is never adopted; the record is just cleared.
func (s *service) keepOnlyPresentedSession(ctx context.Context, userID, presented string) error {
	stored, err := s.sessions.CurrentRefreshToken(ctx, userID)
	if err != nil {
		return err
	}
	if stored == "" || stored == presented {
		return nil
	}
	if err := s.sessions.RevokeRefreshToken(ctx, userID); err != nil {
		return err
	}
	if presented == "" {
		return nil
	}
	claims, err := s.sessions.ParseRefreshToken(presented)
	if err != nil || claims.UserID != userID {
		slog.WarnContext(ctx, "refresh token not adopted after password change", "user_id", userID)
		return nil
	}
	return s.sessions.StoreRefreshToken(ctx, userID, presented)
}

// ForgotPassword answers the same way whether or not the account exists.
func (s *service) ForgotPassword(ctx context.Context, req EmailRequest) error {
	email := validate.Email(req.Email)
	if email == "" {
		return domain.NewError(domain.ErrBadRequest, "Email is required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.metrics.AuthEvent("forgot_password", "unknown_email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.verify.StageReset(ctx, u.UserID)
	if err != nil {
		return err
	}
	body, err := resetEmailBody(s.frontendURL + "/reset-password/" + token)
	if err != nil {
		return err
	}
	if err := s.mailer.SendEmail(u.Email, "Password Reset", body); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	s.metrics.AuthEvent("forgot_password", "ok")
	return nil
}

// ResetPassword burns the ticket first, then sets the password and signs the user
// out everywhere.
func (s *service) ResetPassword(ctx context.Context, token string, req ResetPasswordRequest) error {
	if token == "" || req.NewPassword == "" {
		return domain.NewError(domain.ErrBadRequest, "Token and new password are required")
	}
	if res := validate.Struct(newPasswordInput{NewPassword: req.NewPassword}); !res.OK() {
		return res.Err()
	}

	userID, err := s.verify.ConsumeReset(ctx, token)
	if errors.Is(err, domain.ErrExpired) {
		s.metrics.AuthEvent("reset_password", "expired")
		return domain.NewError(domain.ErrExpired, "Invalid or expired token")
	}
	if err != nil {
		return err
	}

	if _, err := s.loadUser(ctx, userID); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.sessions.RevokeRefreshToken(ctx, userID); err != nil {
		return err
	}
	if err := s.csrf.Revoke(ctx, userID); err != nil {
		return err
	}
	s.dropProfile(ctx, userID)
	s.metrics.AuthEvent("reset_password", "ok")
	s.publish(ctx, domain.EventPasswordReset, userID, "")
	return nil
}
