package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/passvault/logger"
)

func newTestSQLiteStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(context.Background(), path, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestSQLiteStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t, filepath.Join(t.TempDir(), "vault.db"))

	_, err := s.Get(ctx, "vault:container")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "vault:container", `{"version":"1.0"}`))

	got, err := s.Get(ctx, "vault:container")
	require.NoError(t, err)
	assert.Equal(t, `{"version":"1.0"}`, got)

	// upsert replaces the previous blob under the same key
	require.NoError(t, s.Set(ctx, "vault:container", `{"version":"1.0","records":[]}`))
	got, err = s.Get(ctx, "vault:container")
	require.NoError(t, err)
	assert.Equal(t, `{"version":"1.0","records":[]}`, got)

	require.NoError(t, s.Delete(ctx, "vault:container"))
	_, err = s.Get(ctx, "vault:container")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_CreatesDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")

	newTestSQLiteStore(t, path)

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.db")

	first, err := NewSQLiteStore(ctx, path, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "binding:user-1", `{"accountId":"user-1"}`))
	require.NoError(t, first.Close())

	// reopening re-runs migrations, which must be a no-op on an up-to-date schema
	second := newTestSQLiteStore(t, path)

	got, err := second.Get(ctx, "binding:user-1")
	require.NoError(t, err)
	assert.Equal(t, `{"accountId":"user-1"}`, got)
}
