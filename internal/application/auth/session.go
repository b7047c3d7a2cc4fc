package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-auth-redis/internal/domain"
)

// Refresh mints a new access token for the session the refresh token belongs to
// and rotates the CSRF token. The refresh token itself is left alone.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := s.sessions.VerifyRefreshToken(ctx, refreshToken)
	if errors.Is(err, domain.ErrUnauthorized) {
		s.metrics.AuthEvent("refresh", "rejected")
		return nil, domain.NewError(domain.ErrUnauthorized, "Session Expired. Please login")
	}
	if err != nil {
		return nil, err
	}

	u, err := s.users.Get(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.ErrUnauthorized, "Session Expired. Please login")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	access, exp, err := s.sessions.GenerateAccessToken(u.UserID, u.Role, claims.SessionID)
	if err != nil {
		return nil, err
	}
	csrfToken, err := s.csrf.Generate(ctx, u.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Touch(ctx, claims.SessionID); err != nil {
		slog.WarnContext(ctx, "touch session", "session_id", claims.SessionID, "err", err)
	}
	s.metrics.AuthEvent("refresh", "ok")
	return &RefreshResult{UserID: u.UserID, AccessToken: access, AccessExpiresAt: exp, CSRFToken: csrfToken}, nil
}

func (s *service) Logout(ctx context.Context, userID, sessionID string) error {
	if err := s.sessions.RevokeRefreshToken(ctx, userID); err != nil {
		return err
	}
	if err := s.csrf.Revoke(ctx, userID); err != nil {
		return err
	}
	if err := s.sessions.EndSession(ctx, sessionID); err != nil {
		return err
	}
	s.dropProfile(ctx, userID)
	s.metrics.AuthEvent("logout", "ok")
	s.publish(ctx, domain.EventSessionRevoked, userID, sessionID)
	return nil
}

func (s *service) RefreshCSRF(ctx context.Context, userID string) (string, error) {
	return s.csrf.Generate(ctx, userID)
}

// Me serves the profile from cache when possible. The cached copy never carries the
// password hash.
func (s *service) Me(ctx context.Context, userID, sessionID string) (*Profile, error) {
	u, err := s.cachedUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Touch(ctx, sessionID); err != nil {
		slog.WarnContext(ctx, "touch session", "session_id", sessionID, "err", err)
	}
	info, err := s.sessions.SessionInfo(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if u.Avatar != nil && u.Avatar.URL == "" {
		u.Avatar = nil
	}
	return &Profile{User: u, SessionInfo: info}, nil
}

func (s *service) cachedUser(ctx context.Context, userID string) (*domain.User, error) {
	if s.cache != nil {
		var u domain.User
		err := s.cache.GetJSON(ctx, profileKey(userID), &u)
		if err == nil {
			return &u, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			slog.WarnContext(ctx, "read cached profile", "user_id", userID, "err", err)
		}
	}
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, profileKey(userID), u, profileCacheTTL); err != nil {
			slog.WarnContext(ctx, "cache profile", "user_id", userID, "err", err)
		}
	}
	return u, nil
}
