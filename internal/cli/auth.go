package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
)

const (
	MinPasswordLength = 8
	maxUnlockAttempts = 5
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Authenticate asks for a new master password on first run, otherwise for
// the existing one, retrying a few times.
func (a *App) Authenticate(ctx context.Context) error {
	if !a.keeper.HasExistingPassword(ctx) {
		a.println("No master password set yet. Choose one to protect your TOTP seeds.")
		for attempt := 0; attempt < maxUnlockAttempts; attempt++ {
			err := a.setupPassword(ctx)
			if err == nil {
				a.println("Master password set.")
				return nil
			}
			if !errors.Is(err, ErrPasswordTooShort) && !errors.Is(err, ErrPasswordMismatch) {
				return err
			}
			a.println(err.Error())
		}
		return ErrNotAuthenticated
	}

	for attempt := 0; attempt < maxUnlockAttempts; attempt++ {
		if err := a.Unlock(ctx, nil); err == nil {
			return nil
		} else if !errors.Is(err, ErrNotAuthenticated) {
			return err
		}
	}
	return ErrNotAuthenticated
}

func (a *App) setupPassword(ctx context.Context) error {
	pw, err := a.newPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if !a.keeper.InitializeWithPassword(ctx, string(pw)) {
		return errors.New("could not initialize encryption")
	}
	return nil
}

// newPassword reads a password twice and checks the minimum length.
func (a *App) newPassword() ([]byte, error) {
	pw, err := getPassword("New master password", a.out)
	if err != nil {
		return nil, err
	}
	if len(pw) < MinPasswordLength {
		common.WipeByteArray(pw)
		return nil, ErrPasswordTooShort
	}

	again, err := getPassword("Repeat master password", a.out)
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(again)

	if string(again) != string(pw) {
		common.WipeByteArray(pw)
		return nil, ErrPasswordMismatch
	}
	return pw, nil
}

// Unlock asks for the master password and unlocks the keeper.
func (a *App) Unlock(ctx context.Context, _ []string) error {
	if a.keeper.IsUnlocked() {
		a.println("Already unlocked.")
		return nil
	}

	pw, err := getPassword("Master password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if !a.keeper.UnlockWithPassword(ctx, string(pw)) {
		a.println("Wrong password.")
		return ErrNotAuthenticated
	}
	a.printf("Unlocked, %d entries.\n", a.keeper.EntryCount())
	return nil
}

// Lock forgets the master password until the next unlock.
func (a *App) Lock(_ context.Context, _ []string) error {
	a.keeper.Lock()
	a.println("Locked.")
	return nil
}

// ChangePassword re-encrypts all entries under a new master password.
func (a *App) ChangePassword(ctx context.Context, _ []string) error {
	if !a.keeper.IsUnlocked() {
		a.println("Unlock first.")
		return ErrNotAuthenticated
	}

	current, err := getPassword("Current master password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	next, err := a.newPassword()
	if err != nil {
		a.println(err.Error())
		return err
	}
	defer common.WipeByteArray(next)

	if !a.keeper.ChangePassword(ctx, string(current), string(next)) {
		a.println("Password not changed.")
		return errors.New("change password failed")
	}
	a.println("Master password changed.")
	return nil
}
