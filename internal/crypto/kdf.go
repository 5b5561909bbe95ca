package crypto

import (
	"crypto/sha1"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	Iterations   = 1000 // PBKDF2 rounds fixed by the AE-x format
	VerifierSize = 2    // Password verification value size
)

var (
	ErrInvalidStrength = errors.New("invalid key strength")
	ErrInvalidSalt     = errors.New("invalid salt length")
	ErrEmptyPassword   = errors.New("empty password")
)

// Strength is the AES key strength as stored in the AE-x extra field.
type Strength uint8

const (
	AES128 Strength = 1
	AES192 Strength = 2
	AES256 Strength = 3
)

// Valid reports whether s is one of the three defined strengths.
func (s Strength) Valid() bool {
	return s >= AES128 && s <= AES256
}

// KeySize is the length in bytes of both the AES key and the MAC key.
func (s Strength) KeySize() int {
	return 8 * (int(s) + 1)
}

// SaltSize is the length in bytes of the salt stored in front of the ciphertext.
func (s Strength) SaltSize() int {
	return 4 * (int(s) + 1)
}

// Bits returns the AES key size in bits.
func (s Strength) Bits() int {
	return s.KeySize() * 8
}

func (s Strength) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Strength(%d)", uint8(s))
	}
	return fmt.Sprintf("AES-%d", s.Bits())
}

// StrengthForSalt maps a salt length (8, 12 or 16) to its key strength.
func StrengthForSalt(n int) (Strength, bool) {
	switch n {
	case 8:
		return AES128, true
	case 12:
		return AES192, true
	case 16:
		return AES256, true
	}
	return 0, false
}

// Keys holds the material derived from a password and salt. AES, MAC and
// Verifier are views into a single buffer so Destroy wipes all of them.
type Keys struct {
	AES      []byte
	MAC      []byte
	Verifier []byte
	buf      []byte
}

// DeriveKeys runs PBKDF2-HMAC-SHA1 once and splits the output into the AES
// key, the MAC key and the 2-byte password verifier.
func DeriveKeys(password, salt []byte) (*Keys, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	s, ok := StrengthForSalt(len(salt))
	if !ok {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSalt, len(salt))
	}

	n := s.KeySize()
	dk := pbkdf2.Key(password, salt, Iterations, 2*n+VerifierSize, sha1.New)

	return &Keys{
		AES:      dk[:n:n],
		MAC:      dk[n : 2*n : 2*n],
		Verifier: dk[2*n:],
		buf:      dk,
	}, nil
}

// CheckVerifier compares the derived verifier with the stored one.
// A match is only a 16-bit hint; callers must still check the MAC.
func (k *Keys) CheckVerifier(stored []byte) bool {
	return ConstantTimeCompare(k.Verifier, stored)
}

// Destroy clears all derived key material from memory
func (k *Keys) Destroy() {
	ClearBytes(k.buf)
}
