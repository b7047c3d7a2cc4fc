package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/go-auth-redis/internal/application/avatar"
	"github.com/go-auth-redis/internal/application/session"
	"github.com/go-auth-redis/internal/domain"
)

const profileCacheTTL = time.Hour

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

type newPasswordInput struct {
	NewPassword string `json:"newPassword" validate:"min=8,maxbytes=72"`
}

type AvatarUpload struct {
	Reader   io.Reader
	Filename string
	Size     int64
}

// LoginResult is returned once the OTP checks out.
type LoginResult struct {
	User   *domain.User
	Tokens *domain.TokenSet
}

type RefreshResult struct {
	UserID          string
	AccessToken     string
	AccessExpiresAt time.Time
	CSRFToken       string
}

type Profile struct {
	User        *domain.User
	SessionInfo *domain.SessionInfo
}

// Service sequences the registration, login, session and password protocols.
// addr is the client address used to key rate limits.
type Service interface {
	Register(ctx context.Context, addr string, req RegisterRequest) error
	VerifyEmail(ctx context.Context, token string) (*domain.PublicUser, error)
	Login(ctx context.Context, addr string, req LoginRequest) error
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*LoginResult, error)
	ResendOTP(ctx context.Context, addr string, req EmailRequest) error
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
	Logout(ctx context.Context, userID, sessionID string) error
	RefreshCSRF(ctx context.Context, userID string) (string, error)
	Me(ctx context.Context, userID, sessionID string) (*Profile, error)
	ChangePassword(ctx context.Context, userID, presentedRefresh string, req ChangePasswordRequest) error
	ForgotPassword(ctx context.Context, req EmailRequest) error
	ResetPassword(ctx context.Context, token string, req ResetPasswordRequest) error
	UploadAvatar(ctx context.Context, userID string, in AvatarUpload) (*domain.Avatar, error)
}

// --- collaborators ---

type userStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateAvatar(ctx context.Context, userID string, av *domain.Avatar) error
}

type hasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) (bool, error)
	CompareDummy(plain string)
}

type limiter interface {
	ShouldThrottle(ctx context.Context, action, addr, identity string) (bool, error)
	Arm(ctx context.Context, action, addr, identity string) error
}

type verifier interface {
	StagePending(ctx context.Context, p domain.PendingRegistration) (string, error)
	ConsumePending(ctx context.Context, token string) (*domain.PendingRegistration, error)
	StageOTP(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, email, code string) error
	StageReset(ctx context.Context, userID string) (string, error)
	ConsumeReset(ctx context.Context, token string) (string, error)
}

type csrfGuard interface {
	Generate(ctx context.Context, userID string) (string, error)
	Revoke(ctx context.Context, userID string) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type avatarStore interface {
	Upload(ctx context.Context, in avatar.UploadInput) (*domain.Avatar, error)
	Delete(ctx context.Context, storageID string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, ev domain.SecurityEvent) error
}

type cache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Recorder counts protocol outcomes.
type Recorder interface {
	AuthEvent(event, outcome string)
	Throttled(action string)
}

type ServiceDeps struct {
	Users        userStore
	Hasher       hasher
	Limiter      limiter
	Verification verifier
	Sessions     session.Service
	CSRF         csrfGuard
	Mailer       mailer
	Avatars      avatarStore
	Events       eventPublisher
	Cache        cache
	Metrics      Recorder
	FrontendURL  string
	Now          func() time.Time
}

type service struct {
	users       userStore
	hasher      hasher
	limiter     limiter
	verify      verifier
	sessions    session.Service
	csrf        csrfGuard
	mailer      mailer
	avatars     avatarStore
	events      eventPublisher
	cache       cache
	metrics     Recorder
	frontendURL string
	now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		users:       deps.Users,
		hasher:      deps.Hasher,
		limiter:     deps.Limiter,
		verify:      deps.Verification,
		sessions:    deps.Sessions,
		csrf:        deps.CSRF,
		mailer:      deps.Mailer,
		avatars:     deps.Avatars,
		events:      deps.Events,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		frontendURL: deps.FrontendURL,
		now:         deps.Now,
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}
func (nopRecorder) Throttled(string)         {}

func profileKey(userID string) string { return "user:" + userID }

// publish is fire-and-forget: the state change already committed, so a publish
// failure is logged and never reaches the client.
func (s *service) publish(ctx context.Context, typ, userID, sessionID string) {
	if s.events == nil {
		return
	}
	ev := domain.SecurityEvent{Type: typ, UserID: userID, SessionID: sessionID, OccurredAt: s.now().UTC()}
	if err := s.events.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "publish security event", "event", typ, "user_id", userID, "err", err)
	}
}

func (s *service) dropProfile(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, profileKey(userID)); err != nil {
		slog.WarnContext(ctx, "drop cached profile", "user_id", userID, "err", err)
	}
}

// throttled checks the limiter and converts a live sentinel into the client error.
func (s *service) throttled(ctx context.Context, action, addr, identity, msg string) error {
	hit, err := s.limiter.ShouldThrottle(ctx, action, addr, identity)
	if err != nil {
		return err
	}
	if hit {
		s.metrics.Throttled(action)
		return domain.NewError(domain.ErrRateLimited, msg)
	}
	return nil
}

func (s *service) arm(ctx context.Context, action, addr, identity string) error {
	return s.limiter.Arm(ctx, action, addr, identity)
}

// loadUser maps a missing account to a 404 with the message clients expect.
func (s *service) loadUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.ErrNotFound, "User not found")
	}
	return u, err
}
