package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("password1")
	require.NoError(t, err)
	assert.NotEqual(t, "password1", hash)

	ok, err := h.Compare(hash, "password1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(hash, "password2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_SaltsEachHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHasher_MalformedHashIsMismatch(t *testing.T) {
	ok, err := NewHasher(bcrypt.MinCost).Compare("x", "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_ZeroValueUsesDefaultCost(t *testing.T) {
	var h Hasher
	hash, err := h.Hash("password1")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestHasher_CompareDummyDoesNotPanic(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	assert.NotEmpty(t, h.dummy)
	h.CompareDummy("whatever")
	h.CompareDummy("again")
}

func TestHasher_DummyFallsBackWhenHashingFails(t *testing.T) {
	h := NewHasher(bcrypt.MaxCost + 1)
	_, err := h.Hash("password1")
	require.Error(t, err)

	assert.Equal(t, fallbackDummy, h.dummy)
	cost, err := bcrypt.Cost([]byte(h.dummy))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)

	ok, err := h.Compare(h.dummy, "not-a-real-password")
	require.NoError(t, err)
	assert.False(t, ok)
}
