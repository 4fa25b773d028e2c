package encryption

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/cryptox"
	"github.com/dmitrijs2005/totpkeeper/internal/logging"
	"github.com/dmitrijs2005/totpkeeper/internal/settings"
)

// ErrLocked is returned by operations that need an unlocked session.
var ErrLocked = errors.New("encryption manager is locked")

var (
	deriveKey    = cryptox.DeriveKey
	generateSalt = cryptox.GenerateSalt
)

// Manager holds the session and the settings store with the verification
// record. It is safe for concurrent use.
type Manager struct {
	mu         sync.Mutex
	settings   settings.Store
	iterations int
	log        logging.Logger
	session    *Session
}

type Option func(*Manager)

// WithIterations sets the PBKDF2 iteration count used when the settings store
// has no override.
func WithIterations(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.iterations = n
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func NewManager(st settings.Store, opts ...Option) *Manager {
	m := &Manager{
		settings:   st,
		iterations: cryptox.DefaultIterations,
		log:        logging.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Iterations returns the iteration count for entry and session keys.
func (m *Manager) Iterations(ctx context.Context) int {
	n := settings.GetInt(ctx, m.settings, KeyIterations, m.iterations)
	if n < 1 {
		return m.iterations
	}
	return n
}

// Initialize starts a session with a fresh salt and returns that salt.
func (m *Manager) Initialize(ctx context.Context, password []byte) ([]byte, error) {
	salt, err := generateSalt()
	if err != nil {
		return nil, err
	}
	if err := m.Unlock(ctx, password, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Unlock derives the session key for salt and enters the unlocked state.
// It does not check that password is the right one.
func (m *Manager) Unlock(ctx context.Context, password, salt []byte) error {
	key, err := deriveKey(password, salt, m.Iterations(ctx))
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.destroy()
	}
	m.session = newSession(password, key, salt)
	return nil
}

// IsUnlocked reports whether a session is held.
func (m *Manager) IsUnlocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// Salt returns the session salt, or nil when locked.
func (m *Manager) Salt() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	return append([]byte(nil), m.session.salt...)
}

// current returns a copy of the session taken under the lock, so a
// concurrent Clear cannot change the enclaves it refers to.
func (m *Manager) current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// Clear drops the session.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.destroy()
		m.session = nil
	}
}

// SetPassword writes a new verification record for password with a single
// settings write.
func (m *Manager) SetPassword(ctx context.Context, password []byte) error {
	salt, err := generateSalt()
	if err != nil {
		return err
	}
	iterations := m.Iterations(ctx)

	key, err := deriveKey(password, salt, iterations)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	c, err := cryptox.NewCipher(key)
	if err != nil {
		return err
	}
	defer c.Wipe()

	canary, err := c.Encrypt([]byte(CanaryMarker))
	if err != nil {
		return err
	}

	rec := VerificationRecord{Salt: salt, Iterations: iterations, Canary: canary}
	if err := m.settings.SetMany(ctx, rec.values()); err != nil {
		return fmt.Errorf("save verification record: %w", err)
	}
	m.log.Debug(ctx, "password verification record saved", "iterations", iterations)
	return nil
}

// HasPasswordRecord reports whether a complete verification record exists.
func (m *Manager) HasPasswordRecord(ctx context.Context) bool {
	_, err := loadRecord(ctx, m.settings, cryptox.DefaultIterations)
	return err == nil
}

// Record returns the stored verification record.
func (m *Manager) Record(ctx context.Context) (*VerificationRecord, error) {
	return loadRecord(ctx, m.settings, cryptox.DefaultIterations)
}

// VerifyPassword checks password against the verification record. A missing
// or damaged record verifies nothing.
func (m *Manager) VerifyPassword(ctx context.Context, password []byte) bool {
	rec, err := m.Record(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoRecord) {
			m.log.Warn(ctx, "cannot read verification record", "error", err)
		}
		return false
	}

	key, err := deriveKey(password, rec.Salt, rec.Iterations)
	if err != nil {
		return false
	}
	defer common.WipeByteArray(key)

	c, err := cryptox.NewCipher(key)
	if err != nil {
		return false
	}
	defer c.Wipe()

	got, err := c.Decrypt(rec.Canary)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, []byte(CanaryMarker)) == 1
}

// ValidatePasswordWithCiphertext is the legacy check for stores without a
// verification record: password is right when it decrypts an existing entry.
func (m *Manager) ValidatePasswordWithCiphertext(ctx context.Context, password, salt, ciphertext []byte) bool {
	_, err := m.DecryptEntry(ctx, ciphertext, salt, password)
	return err == nil
}

// EncryptEntry seals plaintext under a key derived from the session password
// and a fresh salt. It returns the token and that salt.
func (m *Manager) EncryptEntry(ctx context.Context, plaintext []byte) (ciphertext, salt []byte, err error) {
	s, ok := m.current()
	if !ok {
		return nil, nil, ErrLocked
	}

	salt, err = generateSalt()
	if err != nil {
		return nil, nil, err
	}
	iterations := m.Iterations(ctx)

	err = s.withPassword(func(password []byte) error {
		ciphertext, err = sealWith(password, salt, iterations, plaintext)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return ciphertext, salt, nil
}

// DecryptEntry opens ciphertext with a key derived from password and salt.
// Nothing is cached between calls.
func (m *Manager) DecryptEntry(ctx context.Context, ciphertext, salt, password []byte) ([]byte, error) {
	key, err := deriveKey(password, salt, m.Iterations(ctx))
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	c, err := cryptox.NewCipher(key)
	if err != nil {
		return nil, err
	}
	defer c.Wipe()

	return c.Decrypt(ciphertext)
}

// DecryptEntryWithSession is DecryptEntry with the session password.
func (m *Manager) DecryptEntryWithSession(ctx context.Context, ciphertext, salt []byte) ([]byte, error) {
	s, ok := m.current()
	if !ok {
		return nil, ErrLocked
	}

	var plaintext []byte
	err := s.withPassword(func(password []byte) error {
		var err error
		plaintext, err = m.DecryptEntry(ctx, ciphertext, salt, password)
		return err
	})
	return plaintext, err
}

// Encrypt seals data under the session key.
func (m *Manager) Encrypt(data []byte) ([]byte, error) {
	var out []byte
	err := m.withSessionCipher(func(c *cryptox.Cipher) error {
		var err error
		out, err = c.Encrypt(data)
		return err
	})
	return out, err
}

// Decrypt opens a token produced by Encrypt in a session with the same
// password and salt.
func (m *Manager) Decrypt(token []byte) ([]byte, error) {
	var out []byte
	err := m.withSessionCipher(func(c *cryptox.Cipher) error {
		var err error
		out, err = c.Decrypt(token)
		return err
	})
	return out, err
}

func (m *Manager) withSessionCipher(fn func(c *cryptox.Cipher) error) error {
	s, ok := m.current()
	if !ok {
		return ErrLocked
	}
	return s.withKey(func(key []byte) error {
		c, err := cryptox.NewCipher(key)
		if err != nil {
			return err
		}
		defer c.Wipe()
		return fn(c)
	})
}

func sealWith(password, salt []byte, iterations int, plaintext []byte) ([]byte, error) {
	key, err := deriveKey(password, salt, iterations)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	c, err := cryptox.NewCipher(key)
	if err != nil {
		return nil, err
	}
	defer c.Wipe()

	return c.Encrypt(plaintext)
}
