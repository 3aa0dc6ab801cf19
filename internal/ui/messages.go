// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"time"

	"github.com/robotsdev/robots-tui/internal/geo"
	"github.com/robotsdev/robots-tui/internal/model"
	"github.com/robotsdev/robots-tui/internal/ws"
)

// =============================================================================
// TEA MESSAGES
// =============================================================================

// SendMsg asks the shell to dispatch the composed input.
type SendMsg struct {
	Text string
	File string // local attachment path, optional
}

// AppendMessageMsg adds a message to the transcript.
type AppendMessageMsg struct{ Message *model.ChatMessage }

// StreamTokenMsg refreshes the trailing agent message mid-stream.
type StreamTokenMsg struct{ Message *model.ChatMessage }

// StreamDoneMsg settles the transcript after a send completes.
type StreamDoneMsg struct{}

// StreamErrorMsg reports a failed send; banners are already in the
// transcript, this only clears the loading state.
type StreamErrorMsg struct{ Err error }

// RemovePlaceholderMsg drops a dangling empty streaming placeholder.
type RemovePlaceholderMsg struct{}

// DelayTickMsg reports provider backoff countdown progress.
type DelayTickMsg struct{ Remaining int }

// SocketEventMsg forwards one frame from a socket channel.
type SocketEventMsg struct {
	Channel string // "files" or "suggestions"
	Event   ws.Event
}

// SocketClosedMsg marks a channel as permanently disconnected.
type SocketClosedMsg struct{ Channel string }

// PoseTickMsg drives idle detection once per second.
type PoseTickMsg struct{ At time.Time }

// MapDataMsg carries geographic entities extracted from an agent reply.
type MapDataMsg struct{ Data *geo.MapData }

// BoardChangedMsg refreshes the chess overlay.
type BoardChangedMsg struct{ FEN string }

// RenamedMsg updates the conversation title in the header.
type RenamedMsg struct{ Title string }

// UsageMsg reports a completed backend exchange for the status line.
type UsageMsg struct {
	AgentID  string
	Duration time.Duration
}
