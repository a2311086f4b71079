package settings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/apiscout/apiscout/internal/db"
)

// Store is the sqlite-backed Source.
type Store struct {
	db *db.DB
}

// NewStore creates a settings store over the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

func (s *Store) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM config_variables WHERE name = ?`, name,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting config variable %s: %w", name, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO config_variables (name, value, updated_at) VALUES (?, ?, datetime('now'))
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value,
	)
	if err != nil {
		return fmt.Errorf("setting config variable %s: %w", name, err)
	}
	return nil
}
