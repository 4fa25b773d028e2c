package entries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/dmitrijs2005/totpkeeper/internal/filex"
)

// SchemaVersion is written into every store file.
const SchemaVersion = "1.0.0"

// ErrMalformedStore reports a store file that exists but cannot be decoded.
var ErrMalformedStore = errors.New("malformed store file")

var nowFn = time.Now

type document struct {
	Entries     []Entry `json:"entries"`
	Version     string  `json:"version"`
	LastUpdated float64 `json:"last_updated"`
}

// Store is the ordered entry collection backed by a single JSON file.
//
// Mutations change memory first and then rewrite the file. When the rewrite
// fails the error is returned and memory is left changed; callers that need
// consistency call Load again.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries []Entry
}

// NewStore returns an empty store for path. Nothing is read until Load.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load replaces memory with the file content. A missing file is an empty
// store. A file that cannot be decoded also leaves the store empty and
// returns an error wrapping ErrMalformedStore.
func (s *Store) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil

	data, err := filex.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		if errors.Is(err, ErrMalformedStore) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrMalformedStore, err)
	}
	s.entries = doc.Entries
	return nil
}

// Initialized reports whether the store file exists and carries the
// "version" or "initialized" marker written by every release.
func (s *Store) Initialized() bool {
	data, err := filex.ReadFile(s.path)
	if err != nil {
		return false
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	_, hasVersion := doc["version"]
	_, hasInit := doc["initialized"]
	return hasVersion || hasInit
}

// Append adds e at the end. Names are not checked for uniqueness.
func (s *Store) Append(ctx context.Context, e Entry) error {
	if e.Name == "" {
		return common.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e.clone())
	return s.save(ctx)
}

// Remove drops every entry called name and rewrites the file. It reports
// whether anything matched.
func (s *Store) Remove(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0:0]
	for _, e := range s.entries {
		if e.Name != name {
			kept = append(kept, e)
		}
	}
	removed := len(kept) != len(s.entries)
	s.entries = kept

	if err := s.save(ctx); err != nil {
		return removed, err
	}
	return removed, nil
}

// Get returns the first entry called name.
func (s *Store) Get(name string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.Name == name {
			return e.clone(), true
		}
	}
	return Entry{}, false
}

// List returns a copy of all entries in insertion order.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.clone()
	}
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Update renames and re-tags the first entry called oldName. The ciphertext
// and salt are not touched. It returns false without writing when nothing
// matches.
func (s *Store) Update(ctx context.Context, oldName, newName, issuer, icon string) (bool, error) {
	if newName == "" {
		return false, common.ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].Name != oldName {
			continue
		}
		s.entries[i].Name = newName
		s.entries[i].Issuer = issuer
		s.entries[i].Icon = icon
		return true, s.save(ctx)
	}
	return false, nil
}

// Replace swaps the whole collection with list in one write.
func (s *Store) Replace(ctx context.Context, list []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Entry, len(list))
	for i, e := range list {
		next[i] = e.clone()
	}
	s.entries = next
	return s.save(ctx)
}

// Clear removes every entry and writes an empty store.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	return s.save(ctx)
}

// Save writes the current collection, creating an empty store file on first
// use.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

func (s *Store) save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := document{
		Entries:     s.entries,
		Version:     SchemaVersion,
		LastUpdated: toUnixFloat(nowFn()),
	}
	if doc.Entries == nil {
		doc.Entries = []Entry{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	if _, err := filex.EnsureDir(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	if err := filex.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return nil
}
