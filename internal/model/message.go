// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/robotsdev/robots-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAgent:
		return "Agent"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE / KIND
// =============================================================================

// MessageType classifies the payload of a message.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeVideo MessageType = "video"
	TypeFile  MessageType = "file"
)

// Kind is the visibility envelope of a message, decided at creation time.
// Hidden system notices (chess handshakes and the like) are sent to the
// backend and persisted but never rendered; visibility is carried on the
// message itself, never inferred later from its text.
type Kind string

const (
	KindVisible      Kind = "visible"
	KindHiddenSystem Kind = "hidden-system"
)

// =============================================================================
// CHAT MESSAGE
// =============================================================================

// ChatMessage represents a single message in a conversation transcript.
type ChatMessage struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Type    MessageType `json:"type"`
	Content string      `json:"content"`

	// Attachment metadata
	FileName string `json:"file_name,omitempty"`
	FileURL  string `json:"file_url,omitempty"`

	// Streaming state (not persisted)
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`
}

// NewMessage creates a new visible text message with a generated ID.
func NewMessage(role Role, content string) *ChatMessage {
	return &ChatMessage{
		ID:        generateID(),
		Role:      role,
		Kind:      KindVisible,
		Type:      TypeText,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new visible user message.
func NewUserMessage(content string) *ChatMessage {
	return NewMessage(RoleUser, content)
}

// NewHiddenUserMessage creates a user message tagged as a hidden system
// notice: sent and persisted, never rendered.
func NewHiddenUserMessage(content string) *ChatMessage {
	msg := NewMessage(RoleUser, content)
	msg.Kind = KindHiddenSystem
	return msg
}

// NewAgentMessage creates a new visible agent message.
func NewAgentMessage(content string) *ChatMessage {
	return NewMessage(RoleAgent, content)
}

// NewSystemMessage creates a new visible system message.
func NewSystemMessage(content string) *ChatMessage {
	return NewMessage(RoleSystem, content)
}

// NewStreamingPlaceholder creates the empty agent message inserted before a
// streaming response begins. Content grows via AppendToken until
// FinalizeStream.
func NewStreamingPlaceholder() *ChatMessage {
	return &ChatMessage{
		ID:          generateID(),
		Role:        RoleAgent,
		Kind:        KindVisible,
		Type:        TypeText,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// NewAttachmentMessage creates an agent message carrying a media attachment.
func NewAttachmentMessage(msgType MessageType, content, fileURL string) *ChatMessage {
	msg := NewMessage(RoleAgent, content)
	msg.Type = msgType
	msg.FileURL = fileURL
	return msg
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendToken appends a token to a streaming message.
func (m *ChatMessage) AppendToken(token string) {
	if m.IsStreaming {
		m.streamContent.WriteString(token)
	}
}

// FinalizeStream completes streaming, merging accumulated tokens into Content.
func (m *ChatMessage) FinalizeStream() {
	if !m.IsStreaming {
		return
	}
	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false
}

// GetDisplayContent returns the content to display (streaming or final).
func (m *ChatMessage) GetDisplayContent() string {
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return m.Content
}

// Hidden reports whether the message is a hidden system notice.
func (m *ChatMessage) Hidden() bool {
	return m.Kind == KindHiddenSystem
}

// IsEmpty returns true if the message has no content.
func (m *ChatMessage) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *ChatMessage) Preview(maxLen int) string {
	return util.TruncateRunes(util.FirstLine(m.GetDisplayContent()), maxLen)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	return "msg_" + uuid.NewString()
}
