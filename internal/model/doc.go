// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations, chat
// messages, the chess game state, and coding-agent suggestions.
//
// # Key Types
//
//   - Conversation: chat session metadata owned by one agent
//   - ChatMessage: single transcript entry with role, kind, and content
//   - Kind: visibility envelope (visible vs hidden system notice)
//   - GameState: chess mini-game lifecycle state
//   - AgentSuggestion: ephemeral code-change proposal from the coding agent
//
// # Usage
//
// Create a streaming placeholder and feed it tokens:
//
//	msg := model.NewStreamingPlaceholder()
//	msg.AppendToken("Hel")
//	msg.AppendToken("lo!")
//	msg.FinalizeStream()
package model
