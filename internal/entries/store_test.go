package entries

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T, ts time.Time) {
	t.Helper()
	old := nowFn
	nowFn = func() time.Time { return ts }
	t.Cleanup(func() { nowFn = old })
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "data", "totp_data.json"))
}

func sample(name string) Entry {
	return Entry{
		Name:        name,
		Issuer:      "issuer-" + name,
		Ciphertext:  []byte("token-" + name),
		Salt:        []byte("0123456789abcdef"),
		Icon:        "icon.png",
		CreatedTime: time.Unix(1700000000, 500000000),
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Initialized())
}

func TestStore_AppendPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Append(ctx, sample("github")))
	require.NoError(t, s.Append(ctx, sample("gitlab")))
	assert.True(t, s.Initialized())

	other := NewStore(s.Path())
	require.NoError(t, other.Load(ctx))

	if diff := cmp.Diff(s.List(), other.List()); diff != "" {
		t.Errorf("reloaded entries mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_FileFormat(t *testing.T) {
	ctx := context.Background()
	fixedClock(t, time.Unix(1700000100, 0))
	s := newTestStore(t)

	require.NoError(t, s.Append(ctx, sample("github")))
	require.NoError(t, s.Append(ctx, Entry{Name: "bare", CreatedTime: time.Unix(1, 0)}))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	want := map[string]any{
		"version":      "1.0.0",
		"last_updated": float64(1700000100),
		"entries": []any{
			map[string]any{
				"name":          "github",
				"issuer":        "issuer-github",
				"encrypted_key": "dG9rZW4tZ2l0aHVi",
				"salt":          "MDEyMzQ1Njc4OWFiY2RlZg==",
				"icon":          "icon.png",
				"created_time":  1700000000.5,
			},
			map[string]any{
				"name":          "bare",
				"issuer":        "",
				"encrypted_key": nil,
				"salt":          nil,
				"icon":          "",
				"created_time":  float64(1),
			},
		},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("file mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_LoadHalfPairDropsBoth(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o700))
	content := `{"entries":[{"name":"a","issuer":"","encrypted_key":"dG9rZW4=","salt":null,"icon":""}],"version":"1.0.0"}`
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0o600))

	require.NoError(t, s.Load(context.Background()))
	e, ok := s.Get("a")
	require.True(t, ok)
	assert.Nil(t, e.Ciphertext)
	assert.Nil(t, e.Salt)
	assert.False(t, e.HasSecret())
	assert.False(t, e.CreatedTime.IsZero())
}

func TestStore_LoadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{oops"},
		{"bad base64", `{"entries":[{"name":"a","encrypted_key":"!!!","salt":"c2FsdA=="}]}`},
		{"missing name", `{"entries":[{"issuer":"x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := newTestStore(t)
			require.NoError(t, s.Append(ctx, sample("keep")))
			require.NoError(t, os.WriteFile(s.Path(), []byte(tt.content), 0o600))

			err := s.Load(ctx)
			require.ErrorIs(t, err, ErrMalformedStore)
			assert.Equal(t, 0, s.Len())
		})
	}
}

func TestStore_InitializedMarker(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o700))

	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"initialized": true}`), 0o600))
	assert.True(t, s.Initialized())

	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"entries": []}`), 0o600))
	assert.False(t, s.Initialized())

	require.NoError(t, os.WriteFile(s.Path(), []byte(`garbage`), 0o600))
	assert.False(t, s.Initialized())
}

func TestStore_DuplicatesAndRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := sample("dup")
	second := sample("dup")
	second.Issuer = "second"

	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, sample("other")))
	require.NoError(t, s.Append(ctx, second))

	got, ok := s.Get("dup")
	require.True(t, ok)
	assert.Equal(t, "issuer-dup", got.Issuer)

	removed, err := s.Remove(ctx, "dup")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 1, s.Len())

	removed, err = s.Remove(ctx, "dup")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStore_UpdateKeepsSecret(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	orig := sample("old")
	require.NoError(t, s.Append(ctx, orig))

	ok, err := s.Update(ctx, "old", "new", "Acme", "acme.png")
	require.NoError(t, err)
	require.True(t, ok)

	_, found := s.Get("old")
	assert.False(t, found)

	got, found := s.Get("new")
	require.True(t, found)
	assert.Equal(t, "Acme", got.Issuer)
	assert.Equal(t, "acme.png", got.Icon)
	assert.Equal(t, orig.Ciphertext, got.Ciphertext)
	assert.Equal(t, orig.Salt, got.Salt)

	ok, err = s.Update(ctx, "missing", "x", "", "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Update(ctx, "new", "", "", "")
	require.ErrorIs(t, err, common.ErrEmptyName)
}

func TestStore_ListIsACopy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Append(ctx, sample("a")))

	list := s.List()
	list[0].Name = "mutated"
	list[0].Salt[0] = 'X'

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, byte('0'), got.Salt[0])
}

func TestStore_ReplaceAndClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Append(ctx, sample("a")))

	require.NoError(t, s.Replace(ctx, []Entry{sample("b"), sample("c")}))
	names := []string{}
	for _, e := range s.List() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"b", "c"}, names)

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, s.Len())

	other := NewStore(s.Path())
	require.NoError(t, other.Load(ctx))
	assert.Equal(t, 0, other.Len())
	assert.True(t, other.Initialized())
}

func TestStore_AppendRejectsEmptyName(t *testing.T) {
	s := newTestStore(t)
	require.ErrorIs(t, s.Append(context.Background(), Entry{}), common.ErrEmptyName)
}

func TestStore_FailedWriteKeepsMemory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	s := NewStore(filepath.Join(blocker, "totp_data.json"))
	err := s.Append(ctx, sample("a"))
	require.ErrorIs(t, err, common.ErrPersistence)
	assert.Equal(t, 1, s.Len())
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestStore(t)
	require.ErrorIs(t, s.Load(ctx), context.Canceled)
}
