// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/ecotrack/internal/domain"
)

// Store mirrors storage.Store; it is redeclared here to avoid an import cycle
// with the backends' own tests.
type Store interface {
	List(ctx context.Context) ([]domain.Action, error)
	Get(ctx context.Context, id int64) (domain.Action, error)
	Create(ctx context.Context, in domain.ActionInput) (domain.Action, error)
	Replace(ctx context.Context, id int64, in domain.ActionInput) (domain.Action, error)
	Patch(ctx context.Context, id int64, patch domain.ActionPatch) (domain.Action, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

// Run exercises a fresh, empty store returned by open.
func Run(t *testing.T, open func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty list is not nil", func(t *testing.T) {
		s := open(t)
		items, err := s.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("create assigns max plus one", func(t *testing.T) {
		s := open(t)
		a, err := s.Create(ctx, domain.ActionInput{Action: "Recycling", Date: "2025-01-08", Points: 25})
		require.NoError(t, err)
		assert.Equal(t, int64(1), a.ID)
		b, err := s.Create(ctx, domain.ActionInput{Action: "Composting", Date: "2025-01-09", Points: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), b.ID)

		require.NoError(t, s.Delete(ctx, 1))
		c, err := s.Create(ctx, domain.ActionInput{Action: "Bike", Date: "2025-01-10", Points: 5})
		require.NoError(t, err)
		assert.Equal(t, int64(3), c.ID, "ids below the max are not reused")

		items, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, []int64{2, 3}, []int64{items[0].ID, items[1].ID})
	})

	t.Run("get and not found", func(t *testing.T) {
		s := open(t)
		created, err := s.Create(ctx, domain.ActionInput{Action: "Recycling", Date: "2025-01-08", Points: 25})
		require.NoError(t, err)
		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)

		_, err = s.Get(ctx, 99)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("replace keeps id", func(t *testing.T) {
		s := open(t)
		created, err := s.Create(ctx, domain.ActionInput{Action: "Recycling", Date: "2025-01-08", Points: 25})
		require.NoError(t, err)
		replaced, err := s.Replace(ctx, created.ID, domain.ActionInput{Action: "Reuse", Date: "2025-02-01", Points: 3})
		require.NoError(t, err)
		assert.Equal(t, domain.Action{ID: created.ID, Action: "Reuse", Date: "2025-02-01", Points: 3}, replaced)

		_, err = s.Replace(ctx, 42, domain.ActionInput{Action: "x", Date: "2025-01-01"})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("patch merges fields", func(t *testing.T) {
		s := open(t)
		created, err := s.Create(ctx, domain.ActionInput{Action: "Composting", Date: "2025-01-10", Points: 10})
		require.NoError(t, err)
		points := int64(30)
		patched, err := s.Patch(ctx, created.ID, domain.ActionPatch{Points: &points})
		require.NoError(t, err)
		assert.Equal(t, domain.Action{ID: created.ID, Action: "Composting", Date: "2025-01-10", Points: 30}, patched)

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, patched, got)

		_, err = s.Patch(ctx, 42, domain.ActionPatch{Points: &points})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("delete then not found", func(t *testing.T) {
		s := open(t)
		created, err := s.Create(ctx, domain.ActionInput{Action: "Recycling", Date: "2025-01-08", Points: 25})
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, created.ID))
		err = s.Delete(ctx, created.ID)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		items, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}
