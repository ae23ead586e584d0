// Package storage defines the persistence contract behind the reference
// server and opens the configured backend.
package storage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kingrea/ecotrack/internal/config"
	"github.com/kingrea/ecotrack/internal/domain"
	"github.com/kingrea/ecotrack/internal/storage/jsonfile"
	"github.com/kingrea/ecotrack/internal/storage/sqlite"
)

// ErrNotFound is returned for unknown ids. It is the domain sentinel, so
// errors.Is works across layers.
var ErrNotFound = domain.ErrNotFound

// Store persists action records. Inputs are expected to be validated by the
// caller; ids are assigned by the store as max(id)+1.
type Store interface {
	List(ctx context.Context) ([]domain.Action, error)
	Get(ctx context.Context, id int64) (domain.Action, error)
	Create(ctx context.Context, in domain.ActionInput) (domain.Action, error)
	Replace(ctx context.Context, id int64, in domain.ActionInput) (domain.Action, error)
	Patch(ctx context.Context, id int64, patch domain.ActionPatch) (domain.Action, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

var (
	_ Store = (*jsonfile.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
)

// Open returns the backend named by driver, rooted at path.
func Open(driver, path string, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", config.StorageJSON:
		return jsonfile.New(path, jsonfile.WithLogger(logger))
	case config.StorageSQLite:
		return sqlite.Open(path)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}
