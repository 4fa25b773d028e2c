package cryptox

import (
	"errors"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
)

var (
	// ErrAuthentication is the only signal of a wrong key: the token tag did
	// not verify, or the token is malformed or truncated.
	ErrAuthentication = errors.New("authentication failed")

	ErrInvalidKeyLength = errors.New("invalid key length")
)

// noTTL disables the token age check; the embedded timestamp is kept only as
// a freshness field.
const noTTL = -1 * time.Second

// Cipher encrypts and decrypts Fernet tokens under a single 32-byte key.
//
// A token is url-safe base64 of: version byte, 8-byte big-endian timestamp,
// 16-byte IV, AES-128-CBC ciphertext and an HMAC-SHA256 tag over everything
// before it. The first half of the key signs, the second half encrypts.
type Cipher struct {
	keys []*fernet.Key
}

// NewCipher wraps key, which must be KeySize bytes long.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeyLength, len(key), KeySize)
	}
	var k fernet.Key
	copy(k[:], key)
	return &Cipher{keys: []*fernet.Key{&k}}, nil
}

// Encrypt returns a fresh token for plaintext. Two calls with the same input
// never return the same token because the IV is random.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	tok, err := fernet.EncryptAndSign(plaintext, c.keys[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	return tok, nil
}

// Decrypt verifies the tag of token before decrypting it.
func (c *Cipher) Decrypt(token []byte) ([]byte, error) {
	if len(token) == 0 {
		return nil, ErrAuthentication
	}
	msg := fernet.VerifyAndDecrypt(token, noTTL, c.keys)
	if msg == nil {
		return nil, ErrAuthentication
	}
	return msg, nil
}

// Wipe zeroes the key held by c. The cipher is unusable afterwards.
func (c *Cipher) Wipe() {
	for _, k := range c.keys {
		for i := range k {
			k[i] = 0
		}
	}
}
