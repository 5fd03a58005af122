package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStorage creates a migrated storage instance backed by a temp file.
func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("empty path is rejected", func(t *testing.T) {
		_, err := NewSQLiteStorage("")
		assert.ErrorIs(t, err, ErrEmptyString)
	})

	t.Run("creates missing parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
		store, err := NewSQLiteStorage(path)
		require.NoError(t, err)
		assert.NoError(t, store.Close())
	})
}

func TestMigrate(t *testing.T) {
	t.Run("reaches the expected schema version", func(t *testing.T) {
		store := newTestStorage(t)

		var version int
		err := store.db.QueryRow("PRAGMA user_version").Scan(&version)
		require.NoError(t, err)
		assert.Equal(t, ExpectedSchemaVersion, version)
	})

	t.Run("is idempotent", func(t *testing.T) {
		store := newTestStorage(t)
		assert.NoError(t, store.Migrate(context.Background()))
	})
}
