// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"

	"github.com/robotsdev/robots-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound      = errors.New("conversation not found")
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// STORE
// =============================================================================

// Store is the persistence contract for conversations and their messages.
type Store interface {
	// CreateConversation inserts a new conversation record.
	CreateConversation(ctx context.Context, conv *model.Conversation) error

	// GetConversation loads a conversation's metadata (no messages).
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)

	// ListConversations returns conversations for a user, most recently
	// updated first, capped at limit (0 = no cap).
	ListConversations(ctx context.Context, userID string, limit int) ([]*model.Conversation, error)

	// RenameConversation updates the title.
	RenameConversation(ctx context.Context, id, title string) error

	// UpdateSummary stores a new rolling summary and its timestamp.
	UpdateSummary(ctx context.Context, id, summary string) error

	// DeleteConversation removes a conversation and its messages.
	DeleteConversation(ctx context.Context, id string) error

	// AppendMessage persists one message at the end of a conversation.
	AppendMessage(ctx context.Context, conversationID string, msg *model.ChatMessage) error

	// ListMessages returns a conversation's messages in insertion order.
	ListMessages(ctx context.Context, conversationID string) ([]*model.ChatMessage, error)

	// Close releases the underlying database.
	Close() error
}
