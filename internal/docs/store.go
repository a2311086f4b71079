// Package docs stores product documentation sections and answers
// documentation questions by retrieving the most relevant section.
package docs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/apiscout/apiscout/internal/db"
)

// Section is one named documentation passage.
type Section struct {
	ID        string
	Name      string
	Content   string
	CreatedAt time.Time
}

// Store persists documentation sections.
type Store struct {
	db *db.DB
}

// NewStore creates a documentation store over the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Add stores a new section and returns it.
func (s *Store) Add(ctx context.Context, name, content string) (*Section, error) {
	sec := Section{
		ID:        uuid.New().String(),
		Name:      name,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO doc_sections (id, name, content, created_at) VALUES (?, ?, ?, ?)`,
		sec.ID, sec.Name, sec.Content, sec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("adding doc section: %w", err)
	}
	return &sec, nil
}

// List returns all sections, oldest first.
func (s *Store) List(ctx context.Context) ([]Section, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, content, created_at FROM doc_sections ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing doc sections: %w", err)
	}
	defer rows.Close()

	var out []Section
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.ID, &sec.Name, &sec.Content, &sec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning doc section: %w", err)
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

// Delete removes a section by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM doc_sections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting doc section: %w", err)
	}
	return nil
}
