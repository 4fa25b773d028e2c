// Package common defines shared constants and sentinel errors used across
// the core and the terminal client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// ErrPersistence wraps any failure to read or write durable state
	// (store file, settings file or database).
	ErrPersistence = errors.New("persistence failure")

	// ErrEmptyName is returned when an entry is added or renamed without a name.
	ErrEmptyName = errors.New("empty entry name")

	// ErrNotFound is returned by lookups that match no entry.
	ErrNotFound = errors.New("not found")
)
