// Package conversations persists chat history in ClickHouse.
package conversations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ErrNotFound is returned when no conversation matches the lookup.
var ErrNotFound = errors.New("conversation not found")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Conversation is one stored chat. Messages is the raw JSON message
// array; list results leave it empty.
type Conversation struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	BusinessID string          `json:"businessId"`
	Title      string          `json:"title"`
	Messages   json.RawMessage `json:"messages,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// conn is the slice of driver.Conn the store needs. Tests substitute a
// fake; production passes the shared pool.
type conn interface {
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	Exec(ctx context.Context, query string, args ...any) error
}

// Store runs parameterized CRUD against the conversations table.
// Identifiers from callers are always bound, never interpolated.
type Store struct {
	conn   conn
	table  string
	logger *slog.Logger
}

// NewStore validates the configured table name and wraps the connection.
func NewStore(c conn, table string, logger *slog.Logger) (*Store, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid conversations table name: %q", table)
	}
	return &Store{
		conn:   c,
		table:  table,
		logger: logger.With(slog.String("component", "conversations")),
	}, nil
}

// Save creates the conversation, or updates title and messages when the
// id already exists. Timestamps are assigned server-side.
func (s *Store) Save(ctx context.Context, conv Conversation) error {
	exists, err := s.exists(ctx, conv.ID)
	if err != nil {
		return err
	}

	if exists {
		query := fmt.Sprintf(
			"ALTER TABLE %s UPDATE messages = ?, title = ?, updatedAt = now() WHERE id = ?",
			s.table)
		if err := s.conn.Exec(ctx, query, string(conv.Messages), conv.Title, conv.ID); err != nil {
			return fmt.Errorf("failed to update conversation: %w", err)
		}
		s.logger.InfoContext(ctx, "conversation updated", slog.String("conversation_id", conv.ID))
		return nil
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (id, userId, businessId, title, messages, createdAt, updatedAt) VALUES (?, ?, ?, ?, ?, now(), now())",
		s.table)
	if err := s.conn.Exec(ctx, query, conv.ID, conv.UserID, conv.BusinessID, conv.Title, string(conv.Messages)); err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	s.logger.InfoContext(ctx, "conversation created", slog.String("conversation_id", conv.ID))
	return nil
}

// UpdateMessages replaces the message history and bumps updatedAt.
func (s *Store) UpdateMessages(ctx context.Context, id string, messages json.RawMessage) error {
	query := fmt.Sprintf(
		"ALTER TABLE %s UPDATE messages = ?, updatedAt = now() WHERE id = ?",
		s.table)
	if err := s.conn.Exec(ctx, query, string(messages), id); err != nil {
		return fmt.Errorf("failed to update messages: %w", err)
	}
	return nil
}

// List returns the user's conversations, most recently updated first.
// Message bodies are omitted.
func (s *Store) List(ctx context.Context, userID string) ([]Conversation, error) {
	query := fmt.Sprintf(
		"SELECT id, userId, businessId, title, createdAt, updatedAt FROM %s WHERE userId = ? ORDER BY updatedAt DESC",
		s.table)
	rows, err := s.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	out := []Conversation{}
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.BusinessID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation iteration failed: %w", err)
	}
	return out, nil
}

// Get returns the full record, including messages, or ErrNotFound.
func (s *Store) Get(ctx context.Context, userID, id string) (Conversation, error) {
	query := fmt.Sprintf(
		"SELECT id, userId, businessId, title, messages, createdAt, updatedAt FROM %s WHERE id = ? AND userId = ?",
		s.table)
	rows, err := s.conn.Query(ctx, query, id, userID)
	if err != nil {
		return Conversation{}, fmt.Errorf("failed to get conversation: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Conversation{}, fmt.Errorf("conversation lookup failed: %w", err)
		}
		return Conversation{}, ErrNotFound
	}

	var (
		conv     Conversation
		messages string
	)
	if err := rows.Scan(&conv.ID, &conv.UserID, &conv.BusinessID, &conv.Title, &messages, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return Conversation{}, fmt.Errorf("failed to scan conversation: %w", err)
	}
	conv.Messages = json.RawMessage(messages)
	return conv, nil
}

// Delete removes the conversation. Deleting an unknown id is not an
// error, matching ClickHouse delete semantics.
func (s *Store) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table)
	if err := s.conn.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	s.logger.InfoContext(ctx, "conversation deleted", slog.String("conversation_id", id))
	return nil
}

func (s *Store) exists(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf("SELECT id FROM %s WHERE id = ?", s.table)
	rows, err := s.conn.Query(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to check conversation: %w", err)
	}
	defer rows.Close()

	found := rows.Next()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("conversation check failed: %w", err)
	}
	return found, nil
}
