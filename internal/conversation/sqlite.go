// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robotsdev/robots-tui/internal/model"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	agent_id        TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	summary         TEXT NOT NULL DEFAULT '',
	last_summary_at INTEGER NOT NULL DEFAULT 0,
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversations_user
	ON conversations(user_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS messages (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT NOT NULL UNIQUE,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	role            TEXT NOT NULL,
	kind            TEXT NOT NULL,
	msg_type        TEXT NOT NULL,
	content         TEXT NOT NULL,
	file_name       TEXT NOT NULL DEFAULT '',
	file_url        TEXT NOT NULL DEFAULT '',
	created_at      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation
	ON messages(conversation_id, seq);
`

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore implements Store on a local SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the conversation database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// CreateConversation inserts a new conversation record.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, agent_id, title, summary, last_summary_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, conv.ID, conv.UserID, conv.AgentID, conv.Title, conv.Summary,
		unixOrZero(conv.LastSummaryCreatedAt), conv.CreatedAt.Unix(), conv.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// GetConversation loads a conversation's metadata.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, agent_id, title, summary, last_summary_at, created_at, updated_at
		FROM conversations WHERE id = ?
	`, id)
	conv, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return conv, nil
}

// ListConversations returns a user's conversations, newest activity first.
func (s *SQLiteStore) ListConversations(ctx context.Context, userID string, limit int) ([]*model.Conversation, error) {
	query := `
		SELECT id, user_id, agent_id, title, summary, last_summary_at, created_at, updated_at
		FROM conversations WHERE user_id = ? ORDER BY updated_at DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var convs []*model.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return convs, nil
}

// RenameConversation updates the title.
func (s *SQLiteStore) RenameConversation(ctx context.Context, id, title string) error {
	return s.touch(ctx, id, "title = ?", title)
}

// UpdateSummary stores a new rolling summary and stamps its creation time.
func (s *SQLiteStore) UpdateSummary(ctx context.Context, id, summary string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET summary = ?, last_summary_at = ?, updated_at = ? WHERE id = ?
	`, summary, time.Now().Unix(), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return checkAffected(res)
}

// DeleteConversation removes a conversation; messages cascade.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return checkAffected(res)
}

// =============================================================================
// MESSAGES
// =============================================================================

// AppendMessage persists one message and bumps the conversation's activity.
func (s *SQLiteStore) AppendMessage(ctx context.Context, conversationID string, msg *model.ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, kind, msg_type, content, file_name, file_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, conversationID, string(msg.Role), string(msg.Kind), string(msg.Type),
		msg.GetDisplayContent(), msg.FileName, msg.FileURL, msg.Timestamp.Unix())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE conversations SET updated_at = ? WHERE id = ?",
		time.Now().Unix(), conversationID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if err := checkAffected(res); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// ListMessages returns a conversation's messages in insertion order.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]*model.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, kind, msg_type, content, file_name, file_url, created_at
		FROM messages WHERE conversation_id = ? ORDER BY seq
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var msgs []*model.ChatMessage
	for rows.Next() {
		var (
			msg       model.ChatMessage
			role      string
			kind      string
			msgType   string
			createdAt int64
		)
		if err := rows.Scan(&msg.ID, &role, &kind, &msgType,
			&msg.Content, &msg.FileName, &msg.FileURL, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		msg.Role = model.Role(role)
		msg.Kind = model.Kind(kind)
		msg.Type = model.MessageType(msgType)
		msg.Timestamp = time.Unix(createdAt, 0)
		msgs = append(msgs, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return msgs, nil
}

// =============================================================================
// HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*model.Conversation, error) {
	var (
		conv          model.Conversation
		lastSummaryAt int64
		createdAt     int64
		updatedAt     int64
	)
	err := row.Scan(&conv.ID, &conv.UserID, &conv.AgentID, &conv.Title,
		&conv.Summary, &lastSummaryAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if lastSummaryAt > 0 {
		conv.LastSummaryCreatedAt = time.Unix(lastSummaryAt, 0)
	}
	conv.CreatedAt = time.Unix(createdAt, 0)
	conv.UpdatedAt = time.Unix(updatedAt, 0)
	return &conv, nil
}

func (s *SQLiteStore) touch(ctx context.Context, id, setClause string, value any) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE conversations SET "+setClause+", updated_at = ? WHERE id = ?",
		value, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
