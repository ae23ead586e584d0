// Package jsonfile keeps every action in a single JSON array on disk. Each
// operation reads the whole file and writes it back.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/kingrea/ecotrack/internal/domain"
)

const emptyArray = "[]"

// Store is safe for concurrent use within one process.
type Store struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// Option customizes store construction.
type Option func(*Store)

// WithLogger overrides the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New opens (creating if needed) the data file at path.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonfile: path is required")
	}
	s := &Store{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create data dir: %w", err)
	}
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the data file location.
func (s *Store) Path() string { return s.path }

// Close is a no-op; the file is not held open between calls.
func (s *Store) Close() error { return nil }

func (s *Store) List(_ context.Context) ([]domain.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) Get(_ context.Context, id int64) (domain.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.read()
	if err != nil {
		return domain.Action{}, err
	}
	i := find(items, id)
	if i < 0 {
		return domain.Action{}, notFound(id)
	}
	return items[i], nil
}

func (s *Store) Create(_ context.Context, in domain.ActionInput) (domain.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.read()
	if err != nil {
		return domain.Action{}, err
	}
	created := in.WithID(nextID(items))
	items = append(items, created)
	if err := s.write(items); err != nil {
		return domain.Action{}, err
	}
	return created, nil
}

func (s *Store) Replace(_ context.Context, id int64, in domain.ActionInput) (domain.Action, error) {
	return s.mutate(id, func(domain.Action) domain.Action { return in.WithID(id) })
}

func (s *Store) Patch(_ context.Context, id int64, patch domain.ActionPatch) (domain.Action, error) {
	return s.mutate(id, patch.Apply)
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.read()
	if err != nil {
		return err
	}
	i := find(items, id)
	if i < 0 {
		return notFound(id)
	}
	items = append(items[:i], items[i+1:]...)
	return s.write(items)
}

func (s *Store) mutate(id int64, fn func(domain.Action) domain.Action) (domain.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.read()
	if err != nil {
		return domain.Action{}, err
	}
	i := find(items, id)
	if i < 0 {
		return domain.Action{}, notFound(id)
	}
	updated := fn(items[i])
	updated.ID = id
	items[i] = updated
	if err := s.write(items); err != nil {
		return domain.Action{}, err
	}
	return updated, nil
}

func (s *Store) ensureFile() error {
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("jsonfile: stat %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, []byte(emptyArray), 0o644); err != nil {
		return fmt.Errorf("jsonfile: create %s: %w", s.path, err)
	}
	return nil
}

// read loads the array. A file that does not decode is reset to [].
func (s *Store) read() ([]domain.Action, error) {
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read %s: %w", s.path, err)
	}
	items := []domain.Action{}
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		s.logger.Warn("data file unreadable, resetting", zap.String("path", s.path), zap.Error(err))
		if werr := os.WriteFile(s.path, []byte(emptyArray), 0o644); werr != nil {
			return nil, fmt.Errorf("jsonfile: reset %s: %w", s.path, werr)
		}
		return []domain.Action{}, nil
	}
	return items, nil
}

// write replaces the file atomically with an indented array.
func (s *Store) write(items []domain.Action) error {
	if items == nil {
		items = []domain.Action{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".actions-*.json")
	if err != nil {
		return fmt.Errorf("jsonfile: temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: replace %s: %w", s.path, err)
	}
	return nil
}

func nextID(items []domain.Action) int64 {
	var highest int64
	for _, a := range items {
		if a.ID > highest {
			highest = a.ID
		}
	}
	return highest + 1
}

func find(items []domain.Action, id int64) int {
	for i, a := range items {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func notFound(id int64) error {
	return fmt.Errorf("jsonfile: action %d: %w", id, domain.ErrNotFound)
}
