package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strconv"
)

// New returns n random bytes hex-encoded.
func New(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewOpaque generates a 256-bit token as 64 hex characters. Used for verification
// links, reset tickets and CSRF tokens.
func NewOpaque() (string, error) {
	return New(32)
}

const (
	otpMin = 100000
	otpMax = 999999
)

// NewOTP returns a 6-digit code drawn uniformly from 100000-999999.
func NewOTP() (string, error) {
	return newOTP(rand.Reader)
}

func newOTP(r io.Reader) (string, error) {
	n, err := rand.Int(r, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}
