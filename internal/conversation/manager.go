// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robotsdev/robots-tui/internal/model"
)

// =============================================================================
// MANAGER
// =============================================================================

// Summarizer folds new messages into a rolling summary, typically backed by
// the backend's summarize endpoint.
type Summarizer func(ctx context.Context, previousSummary string, newMessages []string) (string, error)

// Options configures a Manager.
type Options struct {
	// SummaryThreshold is the number of new visible messages that triggers
	// a rolling summary. Zero disables summarization.
	SummaryThreshold int

	// MaxConversations caps stored conversations per user; the oldest are
	// deleted past the cap. Zero means unlimited.
	MaxConversations int

	// Summarize produces rolling summaries. Nil disables summarization.
	Summarize Summarizer
}

// Manager owns the active conversation: lazy creation, persistence of every
// message, title assignment, rehydration, and rolling summarization.
type Manager struct {
	store Store
	user  string
	opts  Options

	mu     sync.Mutex
	active *model.Conversation
}

// NewManager creates a conversation manager for one user.
func NewManager(store Store, userID string, opts Options) *Manager {
	return &Manager{store: store, user: userID, opts: opts}
}

// Active returns the current conversation, or nil before the first message.
func (m *Manager) Active() *model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// EnsureConversation returns the active conversation's ID, creating and
// persisting a fresh one when there is none or the agent changed.
func (m *Manager) EnsureConversation(ctx context.Context, agentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && m.active.AgentID == agentID {
		return m.active.ID, nil
	}

	conv := model.NewConversation(m.user, agentID)
	if err := m.store.CreateConversation(ctx, conv); err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}
	m.active = conv
	m.pruneLocked(ctx)
	return conv.ID, nil
}

// StartNew abandons the active conversation and creates a fresh one for the
// given agent.
func (m *Manager) StartNew(ctx context.Context, agentID string) (string, error) {
	m.mu.Lock()
	m.active = nil
	m.mu.Unlock()
	return m.EnsureConversation(ctx, agentID)
}

// Rehydrate loads a stored conversation and its full transcript, making it
// the active one.
func (m *Manager) Rehydrate(ctx context.Context, id string) (*model.Conversation, error) {
	conv, err := m.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	msgs, err := m.store.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	conv.Messages = msgs

	m.mu.Lock()
	m.active = conv
	m.mu.Unlock()
	return conv, nil
}

// List returns the user's stored conversations, newest activity first.
func (m *Manager) List(ctx context.Context) ([]*model.Conversation, error) {
	return m.store.ListConversations(ctx, m.user, 0)
}

// Delete removes a stored conversation; the active one is cleared if it is
// the target.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.DeleteConversation(ctx, id); err != nil {
		return err
	}
	m.mu.Lock()
	if m.active != nil && m.active.ID == id {
		m.active = nil
	}
	m.mu.Unlock()
	return nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// RecordMessage appends a message to the active conversation and persists
// it. Returns the new title when this message caused the conversation to be
// titled, otherwise "".
func (m *Manager) RecordMessage(ctx context.Context, msg *model.ChatMessage) (string, error) {
	m.mu.Lock()
	conv := m.active
	m.mu.Unlock()
	if conv == nil {
		return "", ErrNotFound
	}

	before := conv.GetTitle()
	conv.AddMessage(msg)
	after := conv.GetTitle()

	if err := m.store.AppendMessage(ctx, conv.ID, msg); err != nil {
		return "", err
	}

	if after != before {
		if err := m.store.RenameConversation(ctx, conv.ID, after); err != nil {
			return "", err
		}
		return after, nil
	}
	return "", nil
}

// Summary returns the active conversation's rolling summary, if any.
func (m *Manager) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ""
	}
	return m.active.Summary
}

// =============================================================================
// SUMMARIZATION
// =============================================================================

// MaybeSummarize folds recent messages into the rolling summary once the
// threshold of new visible messages is reached. A no-op below the threshold
// or when summarization is disabled.
func (m *Manager) MaybeSummarize(ctx context.Context) error {
	m.mu.Lock()
	conv := m.active
	m.mu.Unlock()
	if conv == nil || m.opts.Summarize == nil || m.opts.SummaryThreshold <= 0 {
		return nil
	}
	if conv.MessagesSinceLastSummary() < m.opts.SummaryThreshold {
		return nil
	}

	newMessages := transcriptSince(conv, conv.LastSummaryCreatedAt)
	if len(newMessages) == 0 {
		return nil
	}

	summary, err := m.opts.Summarize(ctx, conv.Summary, newMessages)
	if err != nil {
		return fmt.Errorf("failed to summarize: %w", err)
	}
	if err := m.store.UpdateSummary(ctx, conv.ID, summary); err != nil {
		return err
	}

	conv.Summary = summary
	conv.LastSummaryCreatedAt = time.Now()
	return nil
}

// transcriptSince formats visible messages newer than the cutoff as
// "role: content" lines for the summarizer.
func transcriptSince(conv *model.Conversation, cutoff time.Time) []string {
	var lines []string
	for _, msg := range conv.Messages {
		if msg.Hidden() || msg.IsEmpty() {
			continue
		}
		if !cutoff.IsZero() && !msg.Timestamp.After(cutoff) {
			continue
		}
		lines = append(lines, string(msg.Role)+": "+msg.GetDisplayContent())
	}
	return lines
}

// =============================================================================
// PRUNING
// =============================================================================

// pruneLocked deletes the oldest conversations past the cap. Best effort;
// callers hold m.mu.
func (m *Manager) pruneLocked(ctx context.Context) {
	if m.opts.MaxConversations <= 0 {
		return
	}
	convs, err := m.store.ListConversations(ctx, m.user, 0)
	if err != nil {
		return
	}
	for i := m.opts.MaxConversations; i < len(convs); i++ {
		_ = m.store.DeleteConversation(ctx, convs[i].ID)
	}
}
