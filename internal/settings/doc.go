// Package settings is the key/value configuration collaborator of the core.
//
// Keys are dotted paths such as "password.salt". Two backends implement
// Store:
//
//   - JSONStore keeps a nested JSON document ({"password":{"salt":...}})
//     and rewrites the whole file atomically on every change.
//   - SQLiteStore keeps one row per key with a JSON-encoded value in a
//     "settings" table created by embedded goose migrations.
//
// Values read back are JSON-typed: strings, bool, float64 for numbers, maps
// and slices. Use GetString, GetInt and GetBool for typed access with
// defaults.
package settings
