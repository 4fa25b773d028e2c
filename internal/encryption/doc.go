// Package encryption owns the master password. It derives keys with PBKDF2,
// seals entry seeds as Fernet tokens under per-entry salts, and keeps an
// independent verification record in the settings store so a password can
// be checked before any entry exists.
//
// A Manager is Locked until Initialize or Unlock succeeds and returns to
// Locked on Clear.
package encryption
