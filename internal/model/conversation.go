// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxMessages is the maximum number of messages kept in the in-memory
// transcript. When exceeded, old messages are pruned to prevent unbounded
// memory growth; the store retains the full history.
const MaxMessages = 1000

// TitleMaxRunes is the maximum length of an auto-generated conversation
// title derived from the first user message.
const TitleMaxRunes = 30

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds metadata for one chat session with a single agent.
// Message history lives in the store; Messages here is the in-memory
// transcript for the live session.
type Conversation struct {
	// Identity
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	AgentID string `json:"agent_id"`

	// Metadata
	Title                string    `json:"title"`
	Summary              string    `json:"summary,omitempty"`
	LastSummaryCreatedAt time.Time `json:"last_summary_created_at,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// Live transcript
	Messages []*ChatMessage `json:"messages"`
}

// NewConversation creates a new conversation for the given user and agent.
func NewConversation(userID, agentID string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        "conv_" + uuid.NewString(),
		UserID:    userID,
		AgentID:   agentID,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*ChatMessage, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the transcript.
func (c *Conversation) AddMessage(msg *ChatMessage) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.updateTitle()
	c.pruneOldMessages()
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *ChatMessage {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// GetLastAgentMessage returns the most recent agent message.
func (c *Conversation) GetLastAgentMessage() *ChatMessage {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAgent {
			return c.Messages[i]
		}
	}
	return nil
}

// GetLastUserMessage returns the most recent user message.
func (c *Conversation) GetLastUserMessage() *ChatMessage {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i]
		}
	}
	return nil
}

// AppendToLast appends a token to the last (streaming) message.
func (c *Conversation) AppendToLast(token string) {
	last := c.GetLastMessage()
	if last != nil && last.IsStreaming {
		last.AppendToken(token)
	}
}

// FinalizeLast finalizes the last streaming message.
func (c *Conversation) FinalizeLast() {
	last := c.GetLastMessage()
	if last != nil && last.IsStreaming {
		last.FinalizeStream()
	}
}

// RemoveLastIfDanglingPlaceholder drops the trailing streaming placeholder
// if it never received any content (used on user cancellation).
func (c *Conversation) RemoveLastIfDanglingPlaceholder() bool {
	last := c.GetLastMessage()
	if last == nil || !last.IsStreaming || !last.IsEmpty() {
		return false
	}
	c.Messages = c.Messages[:len(c.Messages)-1]
	c.UpdatedAt = time.Now()
	return true
}

// VisibleMessages returns the transcript with hidden system notices
// filtered out. The underlying slice is not modified.
func (c *Conversation) VisibleMessages() []*ChatMessage {
	visible := make([]*ChatMessage, 0, len(c.Messages))
	for _, msg := range c.Messages {
		if !msg.Hidden() {
			visible = append(visible, msg)
		}
	}
	return visible
}

// MessageCount returns the number of messages including hidden ones.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// ClearHistory removes all messages from the in-memory transcript.
func (c *Conversation) ClearHistory() {
	c.Messages = make([]*ChatMessage, 0)
	c.UpdatedAt = time.Now()
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle auto-generates a title from the first visible user message.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser && !msg.Hidden() {
			c.Title = msg.Preview(TitleMaxRunes)
			return
		}
	}
}

// SetTitle manually sets the conversation title.
func (c *Conversation) SetTitle(title string) {
	c.Title = title
	c.UpdatedAt = time.Now()
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}

// =============================================================================
// HELPERS
// =============================================================================

// MessagesSinceLastSummary counts visible messages added after the last
// rolling summary was stored.
func (c *Conversation) MessagesSinceLastSummary() int {
	n := 0
	for _, msg := range c.Messages {
		if msg.Hidden() {
			continue
		}
		if c.LastSummaryCreatedAt.IsZero() || msg.Timestamp.After(c.LastSummaryCreatedAt) {
			n++
		}
	}
	return n
}

// pruneOldMessages trims the in-memory transcript when it exceeds
// MaxMessages, keeping the most recent entries.
func (c *Conversation) pruneOldMessages() {
	if len(c.Messages) <= MaxMessages {
		return
	}
	c.Messages = c.Messages[len(c.Messages)-MaxMessages:]
}
