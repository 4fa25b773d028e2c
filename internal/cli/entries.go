package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/entries"
	"github.com/dmitrijs2005/totpkeeper/internal/totp"
	"github.com/skip2/go-qrcode"
)

var ErrUsage = errors.New("usage")

// qrWriteFile is a test seam for qrcode.WriteFile.
var qrWriteFile = qrcode.WriteFile

func (a *App) requireUnlocked() error {
	if !a.keeper.IsUnlocked() {
		a.println("Locked. Use 'unlock' first.")
		return ErrNotAuthenticated
	}
	return nil
}

// List prints every entry with its current code.
func (a *App) List(ctx context.Context, _ []string) error {
	list := a.keeper.GetAllEntries()
	if len(list) == 0 {
		a.println("No entries. Use 'add' to create one.")
		return nil
	}

	unlocked := a.keeper.IsUnlocked()
	for i, e := range list {
		code := "------"
		if unlocked {
			if c, ok := a.keeper.GenerateTOTP(ctx, e); ok {
				code = c
			} else {
				code = "error"
			}
		}
		a.printf("%2d. %-24s %-20s %s\n", i+1, e.Name, e.Issuer, formatCode(code))
	}
	a.printf("Codes refresh in %ds\n", a.keeper.GetRemainingTime())
	return nil
}

// Add prompts for a name, a seed and an issuer and stores a new entry.
func (a *App) Add(ctx context.Context, args []string) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}

	name := strings.Join(args, " ")
	if name == "" {
		var err error
		if name, err = getSimpleText(a.reader, "Entry name", a.out); err != nil {
			return err
		}
	}
	if name == "" {
		a.println("Name cannot be empty.")
		return common.ErrEmptyName
	}

	raw, err := getSimpleText(a.reader, "Secret key (base32)", a.out)
	if err != nil {
		return err
	}
	seed := totp.NormalizeSeed(raw)
	if err := totp.ValidateSeedLength(seed); err != nil {
		a.println(err.Error())
		return err
	}
	if !a.keeper.ValidateSecretKey(seed) {
		a.println("Secret key is not valid base32.")
		return totp.ErrInvalidSeed
	}

	issuer, err := getSimpleText(a.reader, "Issuer (optional)", a.out)
	if err != nil {
		return err
	}

	if !a.keeper.AddEntry(ctx, name, seed, issuer, "") {
		a.println("Could not add entry.")
		return errors.New("add entry failed")
	}
	a.printf("Added %s.\n", name)
	return nil
}

// Code prints the current code of one entry.
func (a *App) Code(ctx context.Context, args []string) error {
	e, err := a.entryArg(args, "code <name>")
	if err != nil {
		return err
	}
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	code, ok := a.keeper.GenerateTOTP(ctx, e)
	if !ok {
		a.println("Could not generate code.")
		return errors.New("generate code failed")
	}
	a.printf("%s  (%ds left)\n", formatCode(code), a.keeper.GetRemainingTime())
	return nil
}

// Show reveals the seed of an entry and prints it as a QR code after the
// master password is entered again.
func (a *App) Show(ctx context.Context, args []string) error {
	e, err := a.entryArg(args, "show <name>")
	if err != nil {
		return err
	}
	if err := a.requireUnlocked(); err != nil {
		return err
	}

	pw, err := getPassword("Master password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)
	if !a.keeper.VerifyPassword(ctx, string(pw)) {
		a.println("Wrong password.")
		return ErrNotAuthenticated
	}

	uri, seed, err := a.otpauthURI(ctx, e)
	if err != nil {
		return err
	}

	q, err := qrcode.New(uri, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("build qr code: %w", err)
	}

	a.printf("Secret: %s\n", seed)
	a.printf("URI:    %s\n", uri)
	a.println(q.ToSmallString(false))
	return nil
}

// Export writes the otpauth URI of an entry as a PNG QR code.
func (a *App) Export(ctx context.Context, args []string) error {
	if len(args) < 2 {
		a.println("Usage: export <name> <file.png>")
		return ErrUsage
	}
	e, err := a.entryArg(args[:len(args)-1], "export <name> <file.png>")
	if err != nil {
		return err
	}
	if err := a.requireUnlocked(); err != nil {
		return err
	}

	uri, _, err := a.otpauthURI(ctx, e)
	if err != nil {
		return err
	}

	path := args[len(args)-1]
	if err := qrWriteFile(uri, qrcode.Medium, 256, path); err != nil {
		a.log.Error(ctx, "export qr code failed", "path", path, "error", err)
		a.printf("Could not write %s.\n", path)
		return err
	}
	a.printf("QR code written to %s.\n", path)
	return nil
}

// Rename gives an entry a new name, keeping its issuer unless a new one is
// given: rename <old> <new> [issuer].
func (a *App) Rename(ctx context.Context, args []string) error {
	if len(args) < 2 {
		a.println("Usage: rename <old> <new> [issuer]")
		return ErrUsage
	}
	e, ok := a.keeper.GetEntry(args[0])
	if !ok {
		a.printf("No entry named %s.\n", args[0])
		return common.ErrNotFound
	}
	issuer := e.Issuer
	if len(args) > 2 {
		issuer = strings.Join(args[2:], " ")
	}
	if !a.keeper.UpdateEntry(ctx, args[0], args[1], issuer, e.Icon) {
		a.println("Could not rename entry.")
		return errors.New("rename failed")
	}
	a.printf("Renamed %s to %s.\n", args[0], args[1])
	return nil
}

// Remove deletes every entry with the given name after confirmation.
func (a *App) Remove(ctx context.Context, args []string) error {
	e, err := a.entryArg(args, "remove <name>")
	if err != nil {
		return err
	}
	if !Confirm(a.reader, fmt.Sprintf("Remove %s? This cannot be undone.", e.Name), a.out) {
		a.println("Cancelled.")
		return nil
	}
	if !a.keeper.RemoveEntry(ctx, e.Name) {
		a.println("Could not remove entry.")
		return errors.New("remove failed")
	}
	a.printf("Removed %s.\n", e.Name)
	return nil
}

func (a *App) entryArg(args []string, usage string) (entries.Entry, error) {
	if len(args) == 0 {
		a.println("Usage: " + usage)
		return entries.Entry{}, ErrUsage
	}
	name := strings.Join(args, " ")
	e, ok := a.keeper.GetEntry(name)
	if !ok {
		a.printf("No entry named %s.\n", name)
		return entries.Entry{}, common.ErrNotFound
	}
	return e, nil
}

func (a *App) otpauthURI(ctx context.Context, e entries.Entry) (uri, seed string, err error) {
	seed, ok := a.keeper.RevealSecret(ctx, e)
	if !ok {
		a.println("Could not decrypt entry.")
		return "", "", errors.New("reveal secret failed")
	}
	uri, err = totp.URI(totp.Params{Seed: seed, AccountName: e.Name, Issuer: e.Issuer})
	if err != nil {
		return "", "", fmt.Errorf("build otpauth uri: %w", err)
	}
	return uri, seed, nil
}

// formatCode splits a code as "123 456".
func formatCode(code string) string {
	if len(code) != totp.Digits {
		return code
	}
	return code[:3] + " " + code[3:]
}
