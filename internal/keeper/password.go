package keeper

import (
	"context"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/entries"
)

// ChangePassword re-encrypts every entry under newPassword with fresh salts,
// rewrites the store once and then replaces the verification record. The
// session continues under the new password. When either write fails the old
// entries and session are put back and false is returned.
func (k *Keeper) ChangePassword(ctx context.Context, oldPassword, newPassword string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	oldPw := []byte(oldPassword)
	defer common.WipeByteArray(oldPw)
	newPw := []byte(newPassword)
	defer common.WipeByteArray(newPw)

	if _, ok := k.verifyAny(ctx, oldPw); !ok {
		k.log.Warn(ctx, "change password: current password rejected")
		return false
	}

	current := k.store.List()
	seeds := make([][]byte, len(current))
	defer func() {
		for _, s := range seeds {
			common.WipeByteArray(s)
		}
	}()
	for i, e := range current {
		if !e.HasSecret() {
			continue
		}
		seed, err := k.enc.DecryptEntry(ctx, e.Ciphertext, e.Salt, oldPw)
		if err != nil {
			k.log.Error(ctx, "change password: entry does not open with current password", "name", e.Name, "error", err)
			return false
		}
		seeds[i] = seed
	}

	prevSalt := k.enc.Salt()
	if _, err := k.enc.Initialize(ctx, newPw); err != nil {
		k.log.Error(ctx, "change password: new session failed", "error", err)
		return false
	}

	next := make([]entries.Entry, len(current))
	for i, e := range current {
		next[i] = e
		if seeds[i] == nil {
			continue
		}
		ct, salt, err := k.enc.EncryptEntry(ctx, seeds[i])
		if err != nil {
			k.log.Error(ctx, "change password: re-encrypt failed", "name", e.Name, "error", err)
			k.restore(ctx, oldPw, prevSalt)
			return false
		}
		next[i].Ciphertext, next[i].Salt = ct, salt
	}

	if err := k.store.Replace(ctx, next); err != nil {
		k.log.Error(ctx, "change password: store rewrite failed", "error", err)
		k.restore(ctx, oldPw, prevSalt)
		return false
	}

	if err := k.enc.SetPassword(ctx, newPw); err != nil {
		k.log.Error(ctx, "change password: verification record not replaced", "error", err)
		if err := k.store.Replace(ctx, current); err != nil {
			k.log.Error(ctx, "change password: entries not restored", "error", err)
		}
		k.restore(ctx, oldPw, prevSalt)
		return false
	}

	k.log.Info(ctx, "master password changed", "entries", len(next))
	return true
}

// restore returns to the old session and reloads the store from disk.
func (k *Keeper) restore(ctx context.Context, oldPw, salt []byte) {
	if salt == nil {
		k.enc.Clear()
	} else if err := k.enc.Unlock(ctx, oldPw, salt); err != nil {
		k.log.Error(ctx, "restore session failed", "error", err)
	}
	k.load(ctx)
}
