package settings

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

var (
	ErrEmptyKey = errors.New("empty settings key")

	// ErrKeyConflict is returned when a dotted key traverses a value that is
	// not an object, e.g. setting "a.b" while "a" holds a string.
	ErrKeyConflict = errors.New("settings key conflicts with existing value")
)

// Store is a durable dotted-key configuration store.
type Store interface {
	// Lookup returns the value stored under key and whether it exists.
	Lookup(ctx context.Context, key string) (any, bool, error)

	// Set stores value under key and persists the change.
	Set(ctx context.Context, key string, value any) error

	// SetMany stores all pairs with a single durable write.
	SetMany(ctx context.Context, values map[string]any) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// GetString returns the string under key, or def when it is missing, not a
// string, or cannot be read.
func GetString(ctx context.Context, s Store, key, def string) string {
	v, ok, err := s.Lookup(ctx, key)
	if err != nil || !ok {
		return def
	}
	str, ok := v.(string)
	if !ok {
		return def
	}
	return str
}

// GetInt returns the integer under key, or def. Whole JSON numbers and
// numeric strings are accepted.
func GetInt(ctx context.Context, s Store, key string, def int) int {
	v, ok, err := s.Lookup(ctx, key)
	if err != nil || !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return def
		}
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return def
		}
		return int(i)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return def
		}
		return i
	default:
		return def
	}
}

// GetBool returns the boolean under key, or def.
func GetBool(ctx context.Context, s Store, key string, def bool) bool {
	v, ok, err := s.Lookup(ctx, key)
	if err != nil || !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// normalize round-trips v through JSON so every backend hands back the same
// types (float64 numbers, map[string]any objects).
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
