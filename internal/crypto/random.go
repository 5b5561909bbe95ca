package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
)

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

// NewSalt returns a fresh random salt sized for the given strength.
// A salt must never be reused: it is the only source of keystream uniqueness.
func NewSalt(s Strength) ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: strength %d", ErrInvalidStrength, s)
	}
	return GenerateRandom(s.SaltSize())
}
