package encryption

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/totpkeeper/internal/settings"
)

// Settings keys of the verification record.
const (
	KeyPasswordIsSet      = "password.is_set"
	KeyPasswordSalt       = "password.salt"
	KeyPasswordIterations = "password.iterations"
	KeyPasswordTestData   = "password.test_data"

	// KeyIterations overrides the configured PBKDF2 iteration count for
	// entry and session keys.
	KeyIterations = "encryption.key_derivation_iterations"
)

// CanaryMarker is the known plaintext sealed in the verification record.
const CanaryMarker = "totp_validation_test_2024"

var (
	ErrNoRecord        = errors.New("no password verification record")
	ErrMalformedRecord = errors.New("malformed password verification record")
)

// VerificationRecord proves knowledge of the master password without any
// stored entry: a canary token encrypted under a key derived from its own
// salt.
type VerificationRecord struct {
	Salt       []byte
	Iterations int
	Canary     []byte
}

func (r VerificationRecord) values() map[string]any {
	return map[string]any{
		KeyPasswordIsSet:      true,
		KeyPasswordSalt:       base64.StdEncoding.EncodeToString(r.Salt),
		KeyPasswordIterations: r.Iterations,
		KeyPasswordTestData:   base64.StdEncoding.EncodeToString(r.Canary),
	}
}

func loadRecord(ctx context.Context, st settings.Store, defIterations int) (*VerificationRecord, error) {
	if !settings.GetBool(ctx, st, KeyPasswordIsSet, false) {
		return nil, ErrNoRecord
	}

	saltB64 := settings.GetString(ctx, st, KeyPasswordSalt, "")
	canaryB64 := settings.GetString(ctx, st, KeyPasswordTestData, "")
	if saltB64 == "" || canaryB64 == "" {
		return nil, ErrNoRecord
	}

	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrMalformedRecord, err)
	}
	canary, err := base64.StdEncoding.DecodeString(canaryB64)
	if err != nil {
		return nil, fmt.Errorf("%w: test data: %v", ErrMalformedRecord, err)
	}

	iterations := settings.GetInt(ctx, st, KeyPasswordIterations, defIterations)
	if iterations < 1 {
		return nil, fmt.Errorf("%w: iterations %d", ErrMalformedRecord, iterations)
	}

	return &VerificationRecord{Salt: salt, Iterations: iterations, Canary: canary}, nil
}
