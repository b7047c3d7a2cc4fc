package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-auth-redis/internal/domain"
	jwtinfra "github.com/go-auth-redis/internal/infrastructure/jwt"
	"github.com/go-auth-redis/internal/pkg/id"
)

type store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	ReplaceJSON(ctx context.Context, key string, value any) error
}

type tokenProvider interface {
	SignAccess(userID, role, sessionID string) (string, time.Time, error)
	SignRefresh(userID, sessionID string) (string, time.Time, error)
	VerifyRefresh(tokenStr string) (*jwtinfra.Claims, error)
	RefreshTTL() time.Duration
}

type csrfIssuer interface {
	Generate(ctx context.Context, userID string) (string, error)
}

// RefreshClaims identifies whose session a verified refresh token belongs to.
type RefreshClaims struct {
	UserID    string
	SessionID string
}

// Service mints and revokes credentials. At most one refresh token is live per user:
// minting a new one overwrites the record and the previous token stops verifying.
type Service interface {
	GenerateAccessToken(userID, role, sessionID string) (token string, expiresAt time.Time, err error)
	GenerateToken(ctx context.Context, u *domain.User) (*domain.TokenSet, error)
	VerifyRefreshToken(ctx context.Context, token string) (*RefreshClaims, error)
	ParseRefreshToken(token string) (*RefreshClaims, error)
	RevokeRefreshToken(ctx context.Context, userID string) error
	StoreRefreshToken(ctx context.Context, userID, token string) error
	CurrentRefreshToken(ctx context.Context, userID string) (string, error)
	SessionInfo(ctx context.Context, sessionID string) (*domain.SessionInfo, error)
	Touch(ctx context.Context, sessionID string) error
	EndSession(ctx context.Context, sessionID string) error
}

type ServiceDeps struct {
	Store  store
	Tokens tokenProvider
	CSRF   csrfIssuer
	Now    func() time.Time
}

type service struct {
	store  store
	tokens tokenProvider
	csrf   csrfIssuer
	now    func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{store: deps.Store, tokens: deps.Tokens, csrf: deps.CSRF, now: now}
}

func refreshKey(userID string) string    { return "refresh_token:" + userID }
func sessionKey(sessionID string) string { return "session:" + sessionID }

func (s *service) GenerateAccessToken(userID, role, sessionID string) (string, time.Time, error) {
	return s.tokens.SignAccess(userID, role, sessionID)
}

// GenerateToken starts a new session: a fresh session id, access and refresh tokens,
// the server-side refresh record, session metadata and a CSRF token.
func (s *service) GenerateToken(ctx context.Context, u *domain.User) (*domain.TokenSet, error) {
	sessionID := id.New()
	now := s.now().UTC()

	access, accessExp, err := s.tokens.SignAccess(u.UserID, u.Role, sessionID)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.SignRefresh(u.UserID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.StoreRefreshToken(ctx, u.UserID, refresh); err != nil {
		return nil, err
	}
	meta := domain.Session{SessionID: sessionID, UserID: u.UserID, CreatedAt: now, LastActivity: now}
	if err := s.store.SetJSON(ctx, sessionKey(sessionID), meta, s.tokens.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	csrfToken, err := s.csrf.Generate(ctx, u.UserID)
	if err != nil {
		return nil, err
	}
	return &domain.TokenSet{
		AccessToken:     access,
		AccessExpiresAt: accessExp,
		RefreshToken:    refresh,
		RefreshExpires:  refreshExp,
		SessionID:       sessionID,
		CSRFToken:       csrfToken,
		LoginTime:       now,
	}, nil
}

// VerifyRefreshToken checks the signature and then that token is exactly the one on
// record, so superseded tokens fail even though they are still well-formed.
func (s *service) VerifyRefreshToken(ctx context.Context, token string) (*RefreshClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("refresh token missing: %w", domain.ErrUnauthorized)
	}
	claims, err := s.tokens.VerifyRefresh(token)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %v: %w", err, domain.ErrUnauthorized)
	}
	stored, err := s.store.Get(ctx, refreshKey(claims.UserID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("refresh token revoked: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return nil, fmt.Errorf("refresh token superseded: %w", domain.ErrUnauthorized)
	}
	return &RefreshClaims{UserID: claims.UserID, SessionID: claims.SessionID}, nil
}

// ParseRefreshToken checks only the signature and expiry, not the stored record.
func (s *service) ParseRefreshToken(token string) (*RefreshClaims, error) {
	claims, err := s.tokens.VerifyRefresh(token)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %v: %w", err, domain.ErrUnauthorized)
	}
	return &RefreshClaims{UserID: claims.UserID, SessionID: claims.SessionID}, nil
}

func (s *service) RevokeRefreshToken(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, refreshKey(userID)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *service) StoreRefreshToken(ctx context.Context, userID, token string) error {
	if err := s.store.Set(ctx, refreshKey(userID), token, s.tokens.RefreshTTL()); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// CurrentRefreshToken returns "" when no token is on record.
func (s *service) CurrentRefreshToken(ctx context.Context, userID string) (string, error) {
	v, err := s.store.Get(ctx, refreshKey(userID))
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SessionInfo returns nil when the metadata has expired or was never written.
func (s *service) SessionInfo(ctx context.Context, sessionID string) (*domain.SessionInfo, error) {
	if sessionID == "" {
		return nil, nil
	}
	var meta domain.Session
	err := s.store.GetJSON(ctx, sessionKey(sessionID), &meta)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	last := meta.LastActivity
	return &domain.SessionInfo{SessionID: meta.SessionID, LoginTime: meta.CreatedAt, LastActivity: &last}, nil
}

func (s *service) Touch(ctx context.Context, sessionID string) error {
	var meta domain.Session
	err := s.store.GetJSON(ctx, sessionKey(sessionID), &meta)
	if errors.Is(err, domain.ErrNotFound) {
		slog.DebugContext(ctx, "touch on expired session", "session_id", sessionID)
		return nil
	}
	if err != nil {
		return err
	}
	meta.LastActivity = s.now().UTC()
	err = s.store.ReplaceJSON(ctx, sessionKey(sessionID), meta)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func (s *service) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sessionKey(sessionID)); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}
