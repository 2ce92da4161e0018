package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"

	"NewsAlerter/internal/config"
	"NewsAlerter/internal/store"
)

func TestFileBlobStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := NewFileBlobStore(dir)
	assert.Equal(t, err, nil)

	_, err = s.Get(ctx, store.KeySeenArticles)
	assert.Equal(t, errors.Is(err, store.ErrNotFound), true)

	assert.Equal(t, s.Put(ctx, store.KeySeenArticles, []byte(`[{"url":"a"}]`)), nil)
	assert.Equal(t, s.Put(ctx, store.KeySeenArticles, []byte(`[{"url":"b"}]`)), nil)

	got, err := s.Get(ctx, store.KeySeenArticles)
	assert.Equal(t, err, nil)
	assert.Equal(t, string(got), `[{"url":"b"}]`)

	entries, err := os.ReadDir(dir)
	assert.Equal(t, err, nil)
	for _, e := range entries {
		assert.Equal(t, strings.HasSuffix(e.Name(), ".tmp"), false)
	}
}

func TestFileBlobStoreEmptyFileIsMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, _ := NewFileBlobStore(dir)
	assert.Equal(t, os.WriteFile(filepath.Join(dir, store.KeyRecipientSet+".json"), nil, 0o600), nil)
	_, err := s.Get(context.Background(), store.KeyRecipientSet)
	assert.Equal(t, errors.Is(err, store.ErrNotFound), true)
}

func TestMemoryBlobStoreCopiesValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryBlobStore()
	value := []byte("abc")
	_ = s.Put(ctx, "k", value)
	value[0] = 'z'

	got, err := s.Get(ctx, "k")
	assert.Equal(t, err, nil)
	assert.Equal(t, string(got), "abc")
}

func TestPostgresQueries(t *testing.T) {
	t.Parallel()

	s := NewPostgresBlobStore(nil, "")

	query, args, err := s.selectQuery(store.KeyRecipientSet)
	assert.Equal(t, err, nil)
	assert.Equal(t, query, `SELECT value FROM "alert_blobs" WHERE key = $1`)
	assert.Equal(t, len(args), 1)
	assert.Equal(t, args[0], store.KeyRecipientSet)

	query, args, err = s.upsertQuery("k", []byte("v"))
	assert.Equal(t, err, nil)
	assert.Equal(t, query, `INSERT INTO "alert_blobs" (key,value,updated_at) VALUES ($1,$2,NOW()) `+
		`ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`)
	assert.Equal(t, len(args), 2)
}

func TestPostgresWithoutDBIsNoop(t *testing.T) {
	t.Parallel()

	s := NewPostgresBlobStore(nil, "custom")
	_, err := s.Get(context.Background(), "k")
	assert.Equal(t, errors.Is(err, store.ErrNotFound), true)
	assert.Equal(t, s.Put(context.Background(), "k", nil), nil)
	assert.Equal(t, strings.Contains(createTableSQL("custom"), `"custom"`), true)
}

func TestSQLiteBlobStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "blobs.db"))
	if err != nil && strings.Contains(err.Error(), "CGO_ENABLED=0") {
		t.Skip("sqlite driver needs cgo")
	}
	assert.Equal(t, err, nil)
	defer s.Close()

	_, err = s.Get(ctx, "missing")
	assert.Equal(t, errors.Is(err, store.ErrNotFound), true)

	assert.Equal(t, s.Put(ctx, "k", []byte("one")), nil)
	assert.Equal(t, s.Put(ctx, "k", []byte("two")), nil)
	got, err := s.Get(ctx, "k")
	assert.Equal(t, err, nil)
	assert.Equal(t, string(got), "two")
}

func TestOpenSelectsBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	s, err := Open(ctx, config.StorageConfig{Backend: config.BackendMemory})
	assert.Equal(t, err, nil)
	_, ok := s.(*MemoryBlobStore)
	assert.Equal(t, ok, true)

	s, err = Open(ctx, config.StorageConfig{Backend: config.BackendFile, Path: t.TempDir()})
	assert.Equal(t, err, nil)
	_, ok = s.(*FileBlobStore)
	assert.Equal(t, ok, true)

	_, err = Open(ctx, config.StorageConfig{Backend: config.BackendPostgres})
	assert.Equal(t, err != nil, true)

	_, err = Open(ctx, config.StorageConfig{Backend: "etcd"})
	assert.Equal(t, err != nil, true)
}

func TestArticleStoreOverFileBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blob, err := NewFileBlobStore(t.TempDir())
	assert.Equal(t, err, nil)

	articles := store.NewArticleStore(blob, 2, nil)
	prefs := store.NewPreferenceStore(blob, nil)
	prefs.SetSubscribed(ctx, 11, true)
	articles.Load(ctx)
	assert.Equal(t, articles.Save(ctx), nil)

	reloaded := store.NewPreferenceStore(blob, nil)
	reloaded.Load(ctx)
	assert.Equal(t, reloaded.Recipients(), []int64{11})
}
