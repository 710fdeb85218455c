package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lotledger/internal/dataset"
	"github.com/odyssey-erp/lotledger/internal/platform/db"
)

const sampleDoc = `{"business":{"name":"Corner Shop"},"items":[{"id":"x","name":"Widget"}],"sales":[]}`

func sample(t *testing.T) *dataset.Document {
	t.Helper()
	doc, err := dataset.ParseDocument([]byte(sampleDoc))
	require.NoError(t, err)
	return doc
}

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, store Store, increasing bool) {
	t.Helper()
	ctx := context.Background()

	_, _, err := store.Load(ctx, "business")
	require.ErrorIs(t, err, ErrNotFound)

	rev1, err := store.Save(ctx, "business", sample(t))
	require.NoError(t, err)

	doc, rev, err := store.Load(ctx, "business")
	require.NoError(t, err)
	require.Equal(t, rev1, rev)
	require.JSONEq(t, `{"name":"Corner Shop"}`, string(doc.Raw("business")))
	require.Len(t, doc.Dataset().Items, 1)

	require.NoError(t, doc.Set("note", "second"))
	rev2, err := store.Save(ctx, "business", doc)
	require.NoError(t, err)
	if increasing {
		require.Greater(t, rev2, rev1)
	}

	again, _, err := store.Load(ctx, "business")
	require.NoError(t, err)
	require.JSONEq(t, `"second"`, string(again.Raw("note")))

	// mutating a loaded document does not leak into the store
	require.NoError(t, again.Set("note", "local"))
	fresh, _, err := store.Load(ctx, "business")
	require.NoError(t, err)
	require.JSONEq(t, `"second"`, string(fresh.Raw("note")))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(), true)
}

func TestRedisStore(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseStore(t, NewRedisStore(client), true)

	rev, err := srv.Get(DocumentKey("business") + ":rev")
	require.NoError(t, err)
	require.Equal(t, "2", rev)
}

func TestRedisStoreCorruptDocument(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, srv.Set(DocumentKey("broken"), "[1,2]"))

	_, _, err := NewRedisStore(client).Load(context.Background(), "broken")
	var storeErr *Error
	require.True(t, errors.As(err, &storeErr))
	require.Equal(t, "decode", storeErr.Op)
	require.Equal(t, "broken", storeErr.ID)
}

func TestRedisStoreUnavailable(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	srv.Close()

	_, err := NewRedisStore(client).Save(context.Background(), "business", sample(t))
	var storeErr *Error
	require.ErrorAs(t, err, &storeErr)
	require.Equal(t, "save", storeErr.Op)
	require.Contains(t, err.Error(), "docstore: save business:")
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	exerciseStore(t, NewFileStore(dir), false)
	_, err := os.Stat(filepath.Join(dir, "business.json"))
	require.NoError(t, err)
}

func TestSingleFileStoreIgnoresID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o600))

	store := NewSingleFileStore(path)
	doc, rev, err := store.Load(context.Background(), "anything")
	require.NoError(t, err)
	require.NotZero(t, rev)
	require.Len(t, doc.Dataset().Items, 1)
}

func TestFileRevisionTracksContent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")
	store := NewSingleFileStore(path)
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o600))
	require.NoError(t, os.Chtimes(path, stamp, stamp))
	_, first, err := store.Load(ctx, "business")
	require.NoError(t, err)

	_, again, err := store.Load(ctx, "business")
	require.NoError(t, err)
	require.Equal(t, first, again)

	// same mtime, different bytes: a rewrite within one tick or a cp -p restore
	require.NoError(t, os.WriteFile(path, []byte(`{"items":[],"note":"restored"}`), 0o600))
	require.NoError(t, os.Chtimes(path, stamp, stamp))
	_, restored, err := store.Load(ctx, "business")
	require.NoError(t, err)
	require.NotEqual(t, first, restored)
	require.Positive(t, restored)

	doc, _, err := store.Load(ctx, "business")
	require.NoError(t, err)
	saved, err := store.Save(ctx, "business", doc)
	require.NoError(t, err)
	_, loaded, err := store.Load(ctx, "business")
	require.NoError(t, err)
	require.Equal(t, saved, loaded)
}

func TestFileStoreRejectsNonObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`"nope"`), 0o600))

	_, _, err := NewSingleFileStore(path).Load(context.Background(), "business")
	var storeErr *Error
	require.ErrorAs(t, err, &storeErr)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("LOTLEDGER_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("LOTLEDGER_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.Open(ctx, dsn, db.Options{})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := NewPostgresStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))
	_, err = pool.Exec(ctx, `DELETE FROM datasets WHERE id = 'business'`)
	require.NoError(t, err)

	exerciseStore(t, store, true)

	revs, err := store.Revisions(ctx, "business", 0)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 1}, revs)
}
