package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-auth-redis/internal/domain"
	"github.com/go-auth-redis/internal/pkg/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests run only when TEST_DATABASE_URL points at a disposable database.
func newTestRepo(t *testing.T) *UserRepo {
	t.Helper()
	raw := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: TEST_DATABASE_URL is not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, raw)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, EnsureSchema(ctx, pool))
	return NewUserRepo(pool)
}

func newUser(email string) *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		UserID: id.New(), Name: "Alice", Email: email,
		PasswordHash: "hash", Role: domain.RoleUser,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestUserRepo_PutAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newUser(id.New() + "@x.com")

	require.NoError(t, repo.Put(ctx, u))
	got, err := repo.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, got.UserID)
	assert.Nil(t, got.Avatar)

	dup := newUser(u.Email)
	assert.ErrorIs(t, repo.Put(ctx, dup), domain.ErrConflict)
}

func TestUserRepo_Updates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newUser(id.New() + "@x.com")
	require.NoError(t, repo.Put(ctx, u))

	require.NoError(t, repo.UpdatePassword(ctx, u.UserID, "new-hash"))
	require.NoError(t, repo.UpdateAvatar(ctx, u.UserID, &domain.Avatar{URL: "https://cdn/a.png", StorageID: "a.png"}))

	got, err := repo.Get(ctx, u.UserID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Equal(t, &domain.Avatar{URL: "https://cdn/a.png", StorageID: "a.png"}, got.Avatar)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, "missing", "x"), domain.ErrNotFound)
	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
