package cryptox

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt-16byt")

	key1, err := DeriveKey(password, salt, 1000)
	require.NoError(t, err)
	key2, err := DeriveKey(password, salt, 1000)
	require.NoError(t, err)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
	assert.Len(t, key1, KeySize)
}

// RFC 7914 section 11 PBKDF2-HMAC-SHA256 vector, truncated to KeySize.
func TestDeriveKey_KnownVector(t *testing.T) {
	key, err := DeriveKey([]byte("passwd"), []byte("salt"), 1)
	require.NoError(t, err)

	expectedHex := "55ac046e56e3089fec1691c22544b605f94185216dde0465e68b9d57c20dacbc"
	assert.Equal(t, expectedHex, hex.EncodeToString(key))
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	salt1 := []byte("salt-1")
	salt2 := []byte("salt-2")

	k1, err := DeriveKey([]byte("secret-password"), salt1, 1000)
	require.NoError(t, err)
	k2, err := DeriveKey([]byte("secret-password"), salt2, 1000)
	require.NoError(t, err)
	k3, err := DeriveKey([]byte("other-password"), salt1, 1000)
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2, "different salts must give different keys")
	assert.NotEqual(t, k1, k3, "different passwords must give different keys")
}

func TestDeriveKey_Errors(t *testing.T) {
	_, err := DeriveKey(nil, []byte("salt"), 10)
	require.ErrorIs(t, err, ErrEmptyPassword)

	_, err = DeriveKey([]byte("pw"), []byte("salt"), 0)
	require.ErrorIs(t, err, ErrInvalidIterations)
}

func TestGenerateSalt(t *testing.T) {
	a, err := GenerateSalt()
	require.NoError(t, err)
	b, err := GenerateSalt()
	require.NoError(t, err)

	assert.Len(t, a, SaltSize)
	assert.Len(t, b, SaltSize)
	assert.NotEqual(t, a, b)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestGenerateSalt_EntropyFailure(t *testing.T) {
	orig := randReader
	randReader = failingReader{}
	t.Cleanup(func() { randReader = orig })

	salt, err := GenerateSalt()
	require.ErrorIs(t, err, ErrEntropy)
	assert.Nil(t, salt)
}
