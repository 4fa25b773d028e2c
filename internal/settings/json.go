package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/filex"
)

// JSONStore is a Store backed by a single JSON document on disk.
type JSONStore struct {
	mu   sync.Mutex
	path string
	doc  map[string]any
}

// OpenJSON loads path, creating its directory when needed. A missing file is
// an empty document; an unreadable or corrupt one is an error.
func OpenJSON(path string) (*JSONStore, error) {
	if _, err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}

	s := &JSONStore{path: path, doc: map[string]any{}}

	data, err := filex.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if s.doc == nil {
		s.doc = map[string]any{}
	}
	return s, nil
}

func (s *JSONStore) Lookup(_ context.Context, key string) (any, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur any = s.doc
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false, nil
		}
		cur, ok = m[part]
		if !ok {
			return nil, false, nil
		}
	}
	return cur, true, nil
}

func (s *JSONStore) Set(ctx context.Context, key string, value any) error {
	return s.SetMany(ctx, map[string]any{key: value})
}

func (s *JSONStore) SetMany(_ context.Context, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := cloneDoc(s.doc)
	if err != nil {
		return err
	}
	for key, value := range values {
		if key == "" {
			return ErrEmptyKey
		}
		v, err := normalize(value)
		if err != nil {
			return fmt.Errorf("encode settings[%s]: %w", key, err)
		}
		if err := setPath(next, strings.Split(key, "."), v); err != nil {
			return fmt.Errorf("settings[%s]: %w", key, err)
		}
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (s *JSONStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := cloneDoc(s.doc)
	if err != nil {
		return err
	}
	parts := strings.Split(key, ".")
	parent := next
	for _, part := range parts[:len(parts)-1] {
		m, ok := parent[part].(map[string]any)
		if !ok {
			return nil
		}
		parent = m
	}
	if _, ok := parent[parts[len(parts)-1]]; !ok {
		return nil
	}
	delete(parent, parts[len(parts)-1])

	if err := s.write(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (s *JSONStore) Close() error { return nil }

// Path returns the backing file.
func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) write(doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := filex.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return nil
}

func setPath(doc map[string]any, parts []string, value any) error {
	cur := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part]
		if !ok {
			m := map[string]any{}
			cur[part] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return ErrKeyConflict
		}
		cur = m
	}
	cur[parts[len(parts)-1]] = value
	return nil
}

func cloneDoc(doc map[string]any) (map[string]any, error) {
	v, err := normalize(doc)
	if err != nil {
		return nil, err
	}
	m, _ := v.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
