package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/dbx"
	"github.com/dmitrijs2005/totpkeeper/internal/filex"
	"github.com/dmitrijs2005/totpkeeper/internal/settings/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by the "settings" table of a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if _, err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return OpenSQLiteDSN(ctx, path)
}

// OpenSQLiteDSN is OpenSQLite for an arbitrary driver DSN such as ":memory:".
func OpenSQLiteDSN(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open settings db: %v", common.ErrPersistence, err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migrate settings db: %v", common.ErrPersistence, err)
	}
	return NewSQLiteStore(db), nil
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Lookup(ctx context.Context, key string) (any, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	raw, err := get(ctx, s.db, key)
	if err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("decode settings[%s]: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value any) error {
	if key == "" {
		return ErrEmptyKey
	}
	return set(ctx, s.db, key, value)
}

// SetMany writes all pairs in one transaction.
func (s *SQLiteStore) SetMany(ctx context.Context, values map[string]any) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for key, value := range values {
			if key == "" {
				return ErrEmptyKey
			}
			if err := set(ctx, tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("%w: failed to delete settings[%s]: %v", common.ErrPersistence, key, err)
	}
	return nil
}

// List returns every stored key with its decoded value.
func (s *SQLiteStore) List(ctx context.Context) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list settings: %v", common.ErrPersistence, err)
	}
	defer rows.Close()

	result := make(map[string]any)
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan settings row: %w", err)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode settings[%s]: %w", key, err)
		}
		result[key] = v
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings rows: %w", err)
	}

	return result, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func get(ctx context.Context, db dbx.DBTX, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get settings[%s]: %v", common.ErrPersistence, key, err)
	}
	return value, nil
}

func set(ctx context.Context, db dbx.DBTX, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode settings[%s]: %w", key, err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, raw)
	if err != nil {
		return fmt.Errorf("%w: failed to set settings[%s]: %v", common.ErrPersistence, key, err)
	}
	return nil
}
