package password

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Hasher wraps bcrypt. The zero value uses bcrypt.DefaultCost.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     string
}

// fallbackDummy is a well-formed cost-10 hash used when a fresh dummy cannot be made.
const fallbackDummy = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// NewHasher prepares the dummy hash up front so the first unknown-account login
// pays the same as every later one.
func NewHasher(cost int) *Hasher {
	h := &Hasher{cost: cost}
	h.dummyHash()
	return h
}

func (h *Hasher) Hash(plain string) (string, error) {
	cost := h.cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare reports whether plain matches hash. A malformed hash is a mismatch, not an error.
func (h *Hasher) Compare(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword),
		errors.Is(err, bcrypt.ErrHashTooShort):
		return false, nil
	default:
		return false, err
	}
}

// CompareDummy burns one bcrypt comparison and always reports a mismatch. Callers use
// it when the account does not exist so that path costs as much as a wrong password.
func (h *Hasher) CompareDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword([]byte(h.dummyHash()), []byte(plain))
}

func (h *Hasher) dummyHash() string {
	h.dummyOnce.Do(func() {
		d, err := h.Hash("not-a-real-password")
		if err != nil {
			d = fallbackDummy
		}
		h.dummy = d
	})
	return h.dummy
}
