// Package cryptox holds the password-based key derivation and the
// authenticated cipher used to protect TOTP seeds at rest.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltSize is the length of every salt produced by GenerateSalt.
	SaltSize = 16

	// KeySize is the length of a derived key.
	KeySize = 32

	// DefaultIterations is the PBKDF2 work factor used when nothing else is
	// configured.
	DefaultIterations = 100000
)

var (
	ErrEmptyPassword     = errors.New("empty password")
	ErrInvalidIterations = errors.New("iteration count must be positive")

	// ErrEntropy means the system random source could not be read. It is fatal
	// for initialization.
	ErrEntropy = errors.New("random source unavailable")
)

// randReader is a test seam for crypto/rand.
var randReader io.Reader = rand.Reader

// GenerateSalt returns SaltSize fresh random bytes.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(randReader, salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	return salt, nil
}

// DeriveKey derives a KeySize key from password and salt with
// PBKDF2-HMAC-SHA256. The same inputs always produce the same key.
func DeriveKey(password, salt []byte, iterations int) ([]byte, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	if iterations < 1 {
		return nil, ErrInvalidIterations
	}
	return pbkdf2.Key(password, salt, iterations, KeySize, sha256.New), nil
}
