// Package sqlite stores actions in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/kingrea/ecotrack/internal/domain"
)

const memoryPath = ":memory:"

// id is INTEGER PRIMARY KEY without AUTOINCREMENT, so SQLite assigns
// max(id)+1 just like the JSON backend.
const schema = `
CREATE TABLE IF NOT EXISTS actions (
	id INTEGER PRIMARY KEY,
	action TEXT NOT NULL,
	date TEXT NOT NULL,
	points INTEGER NOT NULL CHECK (points >= 0),
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

// Store implements storage.Store on database/sql.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}
	s := &Store{db: db, path: path}
	if err := s.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the actions table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: ensure schema: %w", err)
	}
	return nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) List(ctx context.Context) ([]domain.Action, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, action, date, points FROM actions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list actions: %w", err)
	}
	defer rows.Close()

	items := []domain.Action{}
	for rows.Next() {
		var a domain.Action
		if err := rows.Scan(&a.ID, &a.Action, &a.Date, &a.Points); err != nil {
			return nil, fmt.Errorf("sqlite: scan action: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list actions: %w", err)
	}
	return items, nil
}

func (s *Store) Get(ctx context.Context, id int64) (domain.Action, error) {
	return getAction(ctx, s.db, id)
}

func (s *Store) Create(ctx context.Context, in domain.ActionInput) (domain.Action, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO actions (action, date, points) VALUES (?, ?, ?)`,
		in.Action, in.Date, in.Points)
	if err != nil {
		return domain.Action{}, fmt.Errorf("sqlite: insert action: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Action{}, fmt.Errorf("sqlite: insert action: %w", err)
	}
	return in.WithID(id), nil
}

func (s *Store) Replace(ctx context.Context, id int64, in domain.ActionInput) (domain.Action, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE actions SET action = ?, date = ?, points = ? WHERE id = ?`,
		in.Action, in.Date, in.Points, id)
	if err != nil {
		return domain.Action{}, fmt.Errorf("sqlite: replace action %d: %w", id, err)
	}
	if err := requireRow(res, id); err != nil {
		return domain.Action{}, err
	}
	return in.WithID(id), nil
}

// Patch reads, merges, and writes back inside one transaction.
func (s *Store) Patch(ctx context.Context, id int64, patch domain.ActionPatch) (domain.Action, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Action{}, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	current, err := getAction(ctx, tx, id)
	if err != nil {
		return domain.Action{}, err
	}
	updated := patch.Apply(current)
	if _, err := tx.ExecContext(ctx,
		`UPDATE actions SET action = ?, date = ?, points = ? WHERE id = ?`,
		updated.Action, updated.Date, updated.Points, id); err != nil {
		return domain.Action{}, fmt.Errorf("sqlite: patch action %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Action{}, fmt.Errorf("sqlite: commit: %w", err)
	}
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM actions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete action %d: %w", id, err)
	}
	return requireRow(res, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getAction(ctx context.Context, q queryer, id int64) (domain.Action, error) {
	var a domain.Action
	err := q.QueryRowContext(ctx,
		`SELECT id, action, date, points FROM actions WHERE id = ?`, id).
		Scan(&a.ID, &a.Action, &a.Date, &a.Points)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Action{}, notFound(id)
	}
	if err != nil {
		return domain.Action{}, fmt.Errorf("sqlite: get action %d: %w", id, err)
	}
	return a, nil
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func notFound(id int64) error {
	return fmt.Errorf("sqlite: action %d: %w", id, domain.ErrNotFound)
}
