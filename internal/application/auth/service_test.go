package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-auth-redis/internal/application/avatar"
	"github.com/go-auth-redis/internal/application/csrf"
	"github.com/go-auth-redis/internal/application/ratelimit"
	"github.com/go-auth-redis/internal/application/session"
	"github.com/go-auth-redis/internal/application/verification"
	"github.com/go-auth-redis/internal/config"
	"github.com/go-auth-redis/internal/domain"
	jwtinfra "github.com/go-auth-redis/internal/infrastructure/jwt"
	redisinfra "github.com/go-auth-redis/internal/infrastructure/redis"
	"github.com/go-auth-redis/internal/pkg/password"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- fakes ---

type memUsers struct {
	mu        sync.Mutex
	byID      map[string]*domain.User
	avatarErr error
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*domain.User{}} }

func (m *memUsers) Put(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return domain.ErrConflict
		}
	}
	cp := *u
	m.byID[u.UserID] = &cp
	return nil
}

func (m *memUsers) Get(_ context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) UpdatePassword(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUsers) UpdateAvatar(_ context.Context, userID string, av *domain.Avatar) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.avatarErr != nil {
		return m.avatarErr
	}
	u, ok := m.byID[userID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *av
	u.Avatar = &cp
	return nil
}

func (m *memUsers) rename(userID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[userID].Name = name
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type sentMail struct{ To, Subject, Body string }

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (c *captureMailer) SendEmail(to, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sentMail{to, subject, body})
	return nil
}

func (c *captureMailer) last(t *testing.T) sentMail {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent, "no mail sent")
	return c.sent[len(c.sent)-1]
}

var (
	verifyLinkRe = regexp.MustCompile(`/token/([0-9a-f]{64})`)
	otpRe        = regexp.MustCompile(`<strong>(\d{6})</strong>`)
	resetLinkRe  = regexp.MustCompile(`/reset-password/([0-9a-f]{64})`)
)

func extract(t *testing.T, re *regexp.Regexp, body string) string {
	t.Helper()
	m := re.FindStringSubmatch(body)
	require.Len(t, m, 2, "pattern %s not in %q", re, body)
	return m[1]
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev domain.SecurityEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type mockAvatars struct{ mock.Mock }

func (m *mockAvatars) Upload(ctx context.Context, in avatar.UploadInput) (*domain.Avatar, error) {
	args := m.Called(ctx, in)
	if a, _ := args.Get(0).(*domain.Avatar); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAvatars) Delete(ctx context.Context, storageID string) error {
	return m.Called(ctx, storageID).Error(0)
}

type countingRecorder struct {
	mu        sync.Mutex
	events    map[string]int
	throttled map[string]int
}

func (r *countingRecorder) AuthEvent(event, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event+"/"+outcome]++
}

func (r *countingRecorder) Throttled(action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.throttled[action]++
}

// --- harness ---

type harness struct {
	svc      Service
	mr       *miniredis.Miniredis
	users    *memUsers
	mail     *captureMailer
	events   *mockPublisher
	avatars  *mockAvatars
	metrics  *countingRecorder
	sessions session.Service
	guard    *csrf.Guard
	hasher   *password.Hasher
}

const clientAddr = "203.0.113.7"

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := redisinfra.NewStore(rdb)

	tokens, err := jwtinfra.NewProvider(&config.Config{
		JWTAccessSecret:  "access-secret",
		JWTRefreshSecret: "refresh-secret",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  7 * 24 * time.Hour,
	})
	require.NoError(t, err)

	guard := csrf.NewGuard(store, time.Hour)
	sessions := session.NewService(session.ServiceDeps{Store: store, Tokens: tokens, CSRF: guard})
	events := new(mockPublisher)
	events.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	h := &harness{
		mr:       mr,
		users:    newMemUsers(),
		mail:     &captureMailer{},
		events:   events,
		avatars:  new(mockAvatars),
		metrics:  &countingRecorder{events: map[string]int{}, throttled: map[string]int{}},
		sessions: sessions,
		guard:    guard,
		hasher:   password.NewHasher(bcrypt.MinCost),
	}
	h.svc = NewService(ServiceDeps{
		Users:        h.users,
		Hasher:       h.hasher,
		Limiter:      ratelimit.NewLimiter(store, time.Minute),
		Verification: verification.NewService(verification.ServiceDeps{Store: store, MaxOTPAttempts: 5}),
		Sessions:     sessions,
		CSRF:         guard,
		Mailer:       h.mail,
		Avatars:      h.avatars,
		Events:       events,
		Cache:        store,
		Metrics:      h.metrics,
		FrontendURL:  "http://app.test",
	})
	return h
}

// registerAndVerify runs the full signup flow and returns the created user.
func (h *harness) registerAndVerify(t *testing.T, name, email, pw string) *domain.PublicUser {
	t.Helper()
	return h.registerAndVerifyFrom(t, clientAddr, name, email, pw)
}

func (h *harness) registerAndVerifyFrom(t *testing.T, addr, name, email, pw string) *domain.PublicUser {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.svc.Register(ctx, addr, RegisterRequest{Name: name, Email: email, Password: pw}))
	tok := extract(t, verifyLinkRe, h.mail.last(t).Body)
	u, err := h.svc.VerifyEmail(ctx, tok)
	require.NoError(t, err)
	return u
}

// login runs password + OTP and returns the session.
func (h *harness) login(t *testing.T, email, pw string) *LoginResult {
	t.Helper()
	ctx := context.Background()
	h.mr.Del(ratelimit.Key(ratelimit.ActionLogin, clientAddr, email))
	require.NoError(t, h.svc.Login(ctx, clientAddr, LoginRequest{Email: email, Password: pw}))
	code := extract(t, otpRe, h.mail.last(t).Body)
	res, err := h.svc.VerifyOTP(ctx, VerifyOTPRequest{Email: email, OTP: code})
	require.NoError(t, err)
	return res
}

func errMessage(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	var de *domain.Error
	require.True(t, errors.As(err, &de), "expected *domain.Error, got %v", err)
	return de.Message
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
