// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package pose

import (
	"strings"
	"sync"
	"time"
)

// =============================================================================
// STATES
// =============================================================================

// State is an avatar animation state.
type State string

const (
	Greeting     State = "greeting"
	Typing       State = "typing"
	Thinking     State = "thinking"
	ArmsCrossing State = "arms_crossing"
	Wondering    State = "wondering"
	Painting     State = "painting"
)

// IdleThreshold is how long the session must sit inactive before the
// avatar crosses its arms.
const IdleThreshold = 2 * time.Minute

// apologyPrefixes gate the wondering pose on agent messages that open with
// an apology.
var apologyPrefixes = []string{
	"i'm sorry",
	"i am sorry",
	"sorry",
	"i apologize",
	"apologies",
}

// generationKeywords mark a message as image-generation intent for the
// painting pose.
var generationKeywords = []string{
	"draw", "paint", "generate", "create", "make", "sketch", "render",
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager holds the current avatar pose and applies transitions from
// conversation events. Safe for concurrent use: the send pipeline reports
// lifecycle events from its own goroutine while the UI event loop polls.
type Manager struct {
	mu    sync.Mutex
	state State
}

// NewManager starts a session in the greeting pose.
func NewManager() *Manager {
	return &Manager{state: Greeting}
}

// State returns the current pose.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Reset reverts to the greeting pose. Safe to call at any time.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Greeting
}

// OnNewSession handles agent switch or new-chat: back to greeting.
func (m *Manager) OnNewSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Greeting
}

// OnSendStart handles an outbound send going in flight. The image agent
// with generation-intent wording paints; everyone else types.
func (m *Manager) OnSendStart(isImageAgent bool, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if isImageAgent && hasGenerationIntent(message) {
		m.state = Painting
		return
	}
	m.state = Typing
}

// OnSendDone handles completion of a send (success or failure); the send
// poses no longer apply.
func (m *Manager) OnSendDone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Typing || m.state == Painting {
		m.state = Thinking
	}
}

// OnAgentMessage inspects the last agent message; apologies make the
// avatar wonder.
func (m *Manager) OnAgentMessage(text string) {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, prefix := range apologyPrefixes {
		if strings.HasPrefix(lower, prefix) {
			m.mu.Lock()
			m.state = Wondering
			m.mu.Unlock()
			return
		}
	}
}

// OnError puts the avatar in the wondering pose.
func (m *Manager) OnError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Wondering
}

// OnIdle handles elapsed inactivity; at or beyond the threshold the avatar
// crosses its arms. Send-in-flight poses are never overridden.
func (m *Manager) OnIdle(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Typing || m.state == Painting {
		return
	}
	if elapsed >= IdleThreshold {
		m.state = ArmsCrossing
	}
}

// OnInputChange handles the input box gaining or losing content while the
// session is otherwise idle.
func (m *Manager) OnInputChange(nonEmpty bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Typing || m.state == Painting {
		return
	}
	if nonEmpty {
		m.state = Thinking
	}
}

// hasGenerationIntent reports whether the message reads like an image
// generation request.
func hasGenerationIntent(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range generationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
