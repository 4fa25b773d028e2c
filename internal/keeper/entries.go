package keeper

import (
	"context"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/entries"
	"github.com/dmitrijs2005/totpkeeper/internal/totp"
)

// AddEntry encrypts seed under a fresh salt and appends a new entry. It
// needs an unlocked session. Names are not required to be unique.
func (k *Keeper) AddEntry(ctx context.Context, name, seed, issuer, icon string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.enc.IsUnlocked() {
		k.log.Warn(ctx, "add entry while locked", "name", name)
		return false
	}

	plain := []byte(seed)
	defer common.WipeByteArray(plain)

	ct, salt, err := k.enc.EncryptEntry(ctx, plain)
	if err != nil {
		k.log.Error(ctx, "encrypt entry failed", "name", name, "error", err)
		return false
	}

	if err := k.store.Append(ctx, entries.NewEntry(name, issuer, icon, ct, salt)); err != nil {
		k.log.Error(ctx, "save entry failed", "name", name, "error", err)
		return false
	}
	k.log.Info(ctx, "entry added", "name", name, "entries", k.store.Len())
	return true
}

// RemoveEntry deletes every entry called name. It returns false when nothing
// matched or the store could not be written.
func (k *Keeper) RemoveEntry(ctx context.Context, name string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	removed, err := k.store.Remove(ctx, name)
	if err != nil {
		k.log.Error(ctx, "remove entry failed", "name", name, "error", err)
		return false
	}
	if !removed {
		k.log.Debug(ctx, "remove: no such entry", "name", name)
	}
	return removed
}

// UpdateEntry renames and re-tags the first entry called oldName.
func (k *Keeper) UpdateEntry(ctx context.Context, oldName, newName, issuer, icon string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	ok, err := k.store.Update(ctx, oldName, newName, issuer, icon)
	if err != nil {
		k.log.Error(ctx, "update entry failed", "name", oldName, "error", err)
		return false
	}
	return ok
}

// GetEntry returns the first entry called name.
func (k *Keeper) GetEntry(name string) (entries.Entry, bool) {
	return k.store.Get(name)
}

// GetAllEntries returns a snapshot of all entries in insertion order.
func (k *Keeper) GetAllEntries() []entries.Entry {
	return k.store.List()
}

func (k *Keeper) EntryCount() int {
	return k.store.Len()
}

// ClearAllEntries removes every entry.
func (k *Keeper) ClearAllEntries(ctx context.Context) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.store.Clear(ctx); err != nil {
		k.log.Error(ctx, "clear entries failed", "error", err)
		return false
	}
	k.log.Info(ctx, "all entries cleared")
	return true
}

// GenerateTOTP decrypts the seed of e with the session password and returns
// the current code.
func (k *Keeper) GenerateTOTP(ctx context.Context, e entries.Entry) (string, bool) {
	seed, ok := k.decrypt(ctx, e)
	if !ok {
		return "", false
	}
	defer common.WipeByteArray(seed)

	code, err := k.gen.Code(string(seed))
	if err != nil {
		k.log.Warn(ctx, "stored seed is not valid base32", "name", e.Name, "error", err)
		return "", false
	}
	return code, true
}

// RevealSecret returns the decrypted seed of e.
func (k *Keeper) RevealSecret(ctx context.Context, e entries.Entry) (string, bool) {
	seed, ok := k.decrypt(ctx, e)
	if !ok {
		return "", false
	}
	defer common.WipeByteArray(seed)
	return string(seed), true
}

func (k *Keeper) decrypt(ctx context.Context, e entries.Entry) ([]byte, bool) {
	if !e.HasSecret() {
		return nil, false
	}
	seed, err := k.enc.DecryptEntryWithSession(ctx, e.Ciphertext, e.Salt)
	if err != nil {
		k.log.Warn(ctx, "decrypt entry failed", "name", e.Name, "error", err)
		return nil, false
	}
	return seed, true
}

// GetRemainingTime returns the seconds left in the current 30-second step.
func (k *Keeper) GetRemainingTime() int {
	return k.gen.RemainingTime()
}

func (k *Keeper) GetProgressPercentage() float64 {
	return k.gen.Progress()
}

// ValidateSecretKey reports whether seed decodes as base32 and yields a code.
func (k *Keeper) ValidateSecretKey(seed string) bool {
	return totp.ValidateSeed(seed)
}
