package encryption

import (
	"github.com/awnumar/memguard"
)

// Session is the unlocked state: the master password and the key derived
// from it for the session salt, both sealed in memguard enclaves.
type Session struct {
	password *memguard.Enclave
	key      *memguard.Enclave
	salt     []byte
}

// newSession seals copies of password and key; the caller keeps ownership of
// its slices.
func newSession(password, key, salt []byte) *Session {
	return &Session{
		password: memguard.NewEnclave(append([]byte(nil), password...)),
		key:      memguard.NewEnclave(append([]byte(nil), key...)),
		salt:     append([]byte(nil), salt...),
	}
}

func (s *Session) withPassword(fn func(password []byte) error) error {
	return open(s.password, fn)
}

func (s *Session) withKey(fn func(key []byte) error) error {
	return open(s.key, fn)
}

func open(e *memguard.Enclave, fn func([]byte) error) error {
	if e == nil {
		return ErrLocked
	}
	buf, err := e.Open()
	if err != nil {
		return err
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// destroy drops the enclaves. Their sealed contents become unreachable.
func (s *Session) destroy() {
	s.password = nil
	s.key = nil
	s.salt = nil
}
