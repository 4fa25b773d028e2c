// Package keeper is the single entry point the terminal client talks to. It
// ties the encryption manager, the entry store and the code generator
// together and reports every outcome as a plain bool; failures are logged.
package keeper

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/encryption"
	"github.com/dmitrijs2005/totpkeeper/internal/entries"
	"github.com/dmitrijs2005/totpkeeper/internal/filex"
	"github.com/dmitrijs2005/totpkeeper/internal/logging"
	"github.com/dmitrijs2005/totpkeeper/internal/totp"
)

// Method names a way of proving the master password.
type Method string

const (
	// MethodRecord checks the canary of the verification record.
	MethodRecord Method = "record"
	// MethodLegacy decrypts the first stored entry. Stores written before
	// verification records existed can only be opened this way.
	MethodLegacy Method = "legacy"
)

// unlockOrder is the order in which passwords are checked.
var unlockOrder = []Method{MethodRecord, MethodLegacy}

// Keeper is safe for concurrent use.
type Keeper struct {
	mu    sync.Mutex
	enc   *encryption.Manager
	store *entries.Store
	gen   *totp.Generator
	log   logging.Logger
}

type Option func(*Keeper)

func WithLogger(l logging.Logger) Option {
	return func(k *Keeper) { k.log = l }
}

func WithGenerator(g *totp.Generator) Option {
	return func(k *Keeper) { k.gen = g }
}

func New(enc *encryption.Manager, store *entries.Store, opts ...Option) *Keeper {
	k := &Keeper{
		enc:   enc,
		store: store,
		gen:   totp.NewGenerator(),
		log:   logging.NewNop(),
	}
	for _, o := range opts {
		o(k)
	}
	return k
}

// StorePath returns the entry store file.
func (k *Keeper) StorePath() string { return k.store.Path() }

// HasExistingPassword reports whether a password was ever set: there is a
// verification record, or a store file with the version marker.
func (k *Keeper) HasExistingPassword(ctx context.Context) bool {
	return k.enc.HasPasswordRecord(ctx) || k.store.Initialized()
}

// InitializeWithPassword sets up a new master password: a fresh session, a
// verification record, and the store loaded from disk (created when absent).
func (k *Keeper) InitializeWithPassword(ctx context.Context, password string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	if _, err := k.enc.Initialize(ctx, pw); err != nil {
		k.log.Error(ctx, "initialize encryption failed", "error", err)
		return false
	}
	if err := k.enc.SetPassword(ctx, pw); err != nil {
		k.log.Error(ctx, "save password record failed", "error", err)
		k.enc.Clear()
		return false
	}

	k.load(ctx)
	if !filex.Exists(k.store.Path()) {
		if err := k.store.Save(ctx); err != nil {
			k.log.Warn(ctx, "create store file failed", "error", err)
		}
	}
	k.log.Info(ctx, "master password initialized", "entries", k.store.Len())
	return true
}

// UnlockWithPassword loads the store and tries each method in unlockOrder.
// A legacy success also writes a verification record.
func (k *Keeper) UnlockWithPassword(ctx context.Context, password string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	k.load(ctx)

	m, ok := k.verifyAny(ctx, pw)
	if !ok {
		k.log.Warn(ctx, "wrong password")
		return false
	}
	if err := k.enc.Unlock(ctx, pw, k.sessionSalt(ctx, m)); err != nil {
		k.log.Error(ctx, "unlock failed", "method", m, "error", err)
		return false
	}
	if m == MethodLegacy {
		if err := k.enc.SetPassword(ctx, pw); err != nil {
			k.log.Warn(ctx, "upgrade to verification record failed", "error", err)
		} else {
			k.log.Info(ctx, "legacy store upgraded with verification record")
		}
	}
	k.log.Info(ctx, "unlocked", "method", m, "entries", k.store.Len())
	return true
}

// VerifyPassword checks password with the methods of unlockOrder, without
// changing state. It accepts exactly what UnlockWithPassword accepts.
func (k *Keeper) VerifyPassword(ctx context.Context, password string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	_, ok := k.verifyAny(ctx, pw)
	return ok
}

// verifyAny returns the first method of unlockOrder that accepts pw.
func (k *Keeper) verifyAny(ctx context.Context, pw []byte) (Method, bool) {
	for _, m := range unlockOrder {
		if k.verify(ctx, m, pw) {
			return m, true
		}
	}
	return "", false
}

func (k *Keeper) verify(ctx context.Context, m Method, pw []byte) bool {
	switch m {
	case MethodRecord:
		return k.enc.VerifyPassword(ctx, pw)
	case MethodLegacy:
		first, ok := k.firstEntry()
		if !ok || !first.HasSecret() {
			return false
		}
		return k.enc.ValidatePasswordWithCiphertext(ctx, pw, first.Salt, first.Ciphertext)
	default:
		return false
	}
}

// sessionSalt picks the salt the session is unlocked with: the first
// entry's, or the record's when there is no usable entry.
func (k *Keeper) sessionSalt(ctx context.Context, m Method) []byte {
	if first, ok := k.firstEntry(); ok && first.HasSecret() {
		return first.Salt
	}
	if m == MethodRecord {
		if rec, err := k.enc.Record(ctx); err == nil {
			return rec.Salt
		}
	}
	return nil
}

func (k *Keeper) firstEntry() (entries.Entry, bool) {
	list := k.store.List()
	if len(list) == 0 {
		return entries.Entry{}, false
	}
	return list[0], true
}

// Lock drops the session. Entries stay loaded but cannot be decrypted.
func (k *Keeper) Lock() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.enc.Clear()
}

func (k *Keeper) IsUnlocked() bool {
	return k.enc.IsUnlocked()
}

// Reload re-reads the store file, e.g. after an external change.
func (k *Keeper) Reload(ctx context.Context) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.load(ctx)
}

func (k *Keeper) load(ctx context.Context) bool {
	err := k.store.Load(ctx)
	switch {
	case err == nil:
		return true
	case errors.Is(err, entries.ErrMalformedStore):
		k.log.Warn(ctx, "store file is malformed, starting empty", "path", k.store.Path(), "error", err)
	default:
		k.log.Error(ctx, "load store failed", "path", k.store.Path(), "error", err)
	}
	return false
}
