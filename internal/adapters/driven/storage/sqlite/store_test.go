package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "sources.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "easyeda", "C46749", []byte(`{"a":1}`), epoch))
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	got, ok, err := store.Get(ctx, "easyeda", "C46749", epoch.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(got))

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)

	v, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestStore_GetMissing(t *testing.T) {
	store := setupTestStore(t)

	got, ok, err := store.Get(context.Background(), "easyeda", "C1", epoch)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestStore_PutReplaces(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "easyeda", "C1", []byte("old"), epoch))
	require.NoError(t, store.Put(ctx, "easyeda", "C1", []byte("new"), epoch.Add(time.Minute)))

	got, ok, err := store.Get(ctx, "easyeda", "C1", epoch)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", string(got))
}

func TestStore_KeysBySource(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "easyeda", "C1", []byte("geometry"), epoch))

	_, ok, err := store.Get(ctx, "jlcpcb", "C1", epoch)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_GetHonoursNotBefore(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "easyeda", "C1", []byte("x"), epoch))

	_, ok, err := store.Get(ctx, "easyeda", "C1", epoch)
	require.NoError(t, err)
	assert.True(t, ok, "entry stored exactly at notBefore is fresh")

	_, ok, err = store.Get(ctx, "easyeda", "C1", epoch.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Purge(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "easyeda", "C1", []byte("a"), epoch))
	require.NoError(t, store.Put(ctx, "easyeda", "C2", []byte("b"), epoch.Add(48*time.Hour)))

	n, err := store.Purge(ctx, epoch.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err := store.Get(ctx, "easyeda", "C1", time.Time{})
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.Get(ctx, "easyeda", "C2", time.Time{})
	require.NoError(t, err)
	assert.True(t, ok)
}
