package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-auth-redis/internal/domain"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb), mr
}

func TestStore_GetMissing_ReturnsNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SetExpires(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	mr.FastForward(61 * time.Second)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Take_IsSingleUse(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "reset:abc", "payload", time.Minute))

	v, err := s.Take(ctx, "reset:abc")
	require.NoError(t, err)
	assert.Equal(t, "payload", v)

	_, err = s.Take(ctx, "reset:abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Incr_StartsWindowOnFirstHit(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	n, err := s.Incr(ctx, "ctr", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	mr.FastForward(30 * time.Second)

	n, err = s.Incr(ctx, "ctr", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// second hit must not push the expiry out
	mr.FastForward(31 * time.Second)
	ok, err := s.Exists(ctx, "ctr")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Incr_RestoresMissingExpiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("ctr", "3"))
	require.Zero(t, mr.TTL("ctr"))

	n, err := s.Incr(ctx, "ctr", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, time.Minute, mr.TTL("ctr"))
}

func TestStore_JSONRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	in := domain.PendingRegistration{Name: "Ann", Email: "ann@example.com", Password: "hash"}
	require.NoError(t, s.SetJSON(ctx, "verify:t1", in, time.Minute))

	var out domain.PendingRegistration
	require.NoError(t, s.TakeJSON(ctx, "verify:t1", &out))
	assert.Equal(t, in, out)

	err := s.GetJSON(ctx, "verify:t1", &out)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteMany(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "a", "1", 0))
	require.NoError(t, s.Set(ctx, "b", "2", 0))

	require.NoError(t, s.Delete(ctx, "a", "b", "missing"))
	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
	assert.NoError(t, s.Delete(ctx))
}

func TestStore_ReplaceKeepsTTL(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "session:1", "a", time.Hour))
	mr.FastForward(10 * time.Minute)

	require.NoError(t, s.Replace(ctx, "session:1", "b"))
	v, err := s.Get(ctx, "session:1")
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	assert.Equal(t, 50*time.Minute, mr.TTL("session:1"))
}

func TestStore_ReplaceMissing(t *testing.T) {
	s, mr := newTestStore(t)
	err := s.Replace(context.Background(), "session:gone", "b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, mr.Exists("session:gone"))
}
