// Package conversation persists the append-only message log behind each
// assistant turn. Messages carry a kind so model-internal traffic, user-visible
// answers, and internal log rows can be separated on read.
package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apiscout/apiscout/internal/db"
	"github.com/apiscout/apiscout/internal/llm"
)

// Conversation groups the messages of one (user, workspace) thread.
type Conversation struct {
	ID          string
	UserID      string
	WorkspaceID string
	CreatedAt   time.Time
}

// Message is one persisted conversation row.
type Message struct {
	ID             string
	ConversationID string
	UserID         string
	llm.Message
	CreatedAt time.Time
}

// Store manages conversations and their messages.
type Store struct {
	db *db.DB
}

// NewStore creates a conversation store over the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Active returns the user's most recent conversation in the workspace,
// creating one lazily if none exists.
func (s *Store) Active(ctx context.Context, userID, workspaceID string) (*Conversation, error) {
	var c Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, workspace_id, created_at FROM conversations
		 WHERE user_id = ? AND workspace_id = ?
		 ORDER BY created_at DESC LIMIT 1`,
		userID, workspaceID,
	).Scan(&c.ID, &c.UserID, &c.WorkspaceID, &c.CreatedAt)
	if err == nil {
		return &c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("finding conversation: %w", err)
	}
	return s.Create(ctx, userID, workspaceID)
}

// Create starts a new conversation for the user.
func (s *Store) Create(ctx context.Context, userID, workspaceID string) (*Conversation, error) {
	if userID == "" {
		return nil, fmt.Errorf("conversation: user id is required")
	}
	c := Conversation{
		ID:          uuid.New().String(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, workspace_id, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, c.WorkspaceID, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return &c, nil
}

// Append persists messages in the order given. Within one call every row gets
// a later timestamp than the previous row, so readers can rely on created_at
// (with rowid as tiebreak) for chronological order.
func (s *Store) Append(ctx context.Context, conversationID, userID string, messages []llm.Message) error {
	if conversationID == "" {
		return fmt.Errorf("conversation: conversation id is required")
	}

	base := time.Now().UTC()
	for i, m := range messages {
		kind := m.Kind
		if kind == 0 {
			kind = llm.KindModel
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO conversation_messages (id, conversation_id, user_id, role, name, content, kind, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), conversationID, userID,
			string(m.Role), m.Name, m.Content, int(kind),
			base.Add(time.Duration(i)*time.Microsecond),
		)
		if err != nil {
			return fmt.Errorf("appending message: %w", err)
		}
	}
	return nil
}

// Recent returns up to limit messages of the given kinds from the
// conversation, ordered oldest to newest. The underlying query walks newest
// first to honor the limit, then the slice is reversed.
func (s *Store) Recent(ctx context.Context, conversationID string, kinds []llm.Kind, limit int) ([]Message, error) {
	query := `SELECT id, conversation_id, user_id, role, name, content, kind, created_at
		 FROM conversation_messages WHERE conversation_id = ?`
	args := []any{conversationID}
	query += kindFilter(kinds, &args)
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return s.queryMessagesReversed(ctx, query, args)
}

// RecentForUser returns the user-visible window across the user's most recent
// lookback conversations, ordered oldest to newest.
func (s *Store) RecentForUser(ctx context.Context, userID string, lookback int, kinds []llm.Kind, limit int) ([]Message, error) {
	if lookback <= 0 {
		return nil, nil
	}

	query := `SELECT id, conversation_id, user_id, role, name, content, kind, created_at
		 FROM conversation_messages
		 WHERE conversation_id IN (
		     SELECT id FROM conversations WHERE user_id = ? ORDER BY created_at DESC LIMIT ?
		 )`
	args := []any{userID, lookback}
	query += kindFilter(kinds, &args)
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return s.queryMessagesReversed(ctx, query, args)
}

// Clear removes every conversation and message for the user.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversation_messages WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clearing conversations: %w", err)
	}
	return nil
}

// CountForUser returns the number of stored messages for the user.
func (s *Store) CountForUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversation_messages WHERE user_id = ?`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return n, nil
}

// LatestSystemPrompt returns the most recently stored system prompt, or nil.
func (s *Store) LatestSystemPrompt(ctx context.Context) (*string, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM system_prompts ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting system prompt: %w", err)
	}
	return &content, nil
}

// SetSystemPrompt stores a new system prompt; the latest row wins.
func (s *Store) SetSystemPrompt(ctx context.Context, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO system_prompts (id, content, created_at) VALUES (?, ?, ?)`,
		uuid.New().String(), content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("setting system prompt: %w", err)
	}
	return nil
}

func kindFilter(kinds []llm.Kind, args *[]any) string {
	if len(kinds) == 0 {
		return ""
	}
	placeholders := make([]string, len(kinds))
	for i, k := range kinds {
		placeholders[i] = "?"
		*args = append(*args, int(k))
	}
	return ` AND kind IN (` + strings.Join(placeholders, ",") + `)`
}

func (s *Store) queryMessagesReversed(ctx context.Context, query string, args []any) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var role string
		var kind int
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.UserID, &role, &m.Name, &m.Content, &kind, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = llm.Role(role)
		m.Kind = llm.Kind(kind)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	// Newest-first from the database; flip to chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
