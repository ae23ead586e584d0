package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/ecotrack/internal/domain"
	"github.com/kingrea/ecotrack/internal/storage/storagetest"
)

// setupTestStore creates an in-memory store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(memoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storagetest.Store {
		return setupTestStore(t)
	})
}

func TestOpen(t *testing.T) {
	t.Run("error with empty path", func(t *testing.T) {
		_, err := Open("  ")
		require.Error(t, err)
	})

	t.Run("schema is idempotent", func(t *testing.T) {
		s := setupTestStore(t)
		require.NoError(t, s.EnsureSchema(context.Background()))

		var count int
		err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='actions'`).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "actions.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Create(context.Background(), domain.ActionInput{Action: "Recycling", Date: "2025-01-08", Points: 25})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })
	items, err := reopened.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Recycling", items[0].Action)
	assert.Equal(t, reopened.Path(), path)
}

func TestNegativePointsRejectedBySchema(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.Create(context.Background(), domain.ActionInput{Action: "x", Date: "2025-01-01", Points: -1})
	require.Error(t, err)
}
