// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

// =============================================================================
// CHAT
// =============================================================================

// ChatRequest is the body for POST /chat.
type ChatRequest struct {
	AgentID             string `json:"agent_id"`
	Message             string `json:"message"`
	ConversationID      string `json:"conversation_id,omitempty"`
	FileContent         string `json:"file_content,omitempty"`
	UserName            string `json:"user_name"`
	ConversationSummary string `json:"conversation_summary,omitempty"`
}

// ChatResponse is the reply from POST /chat.
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

// =============================================================================
// STREAMING
// =============================================================================

// StreamRequest is the body for POST /{agent_id}/ask/stream.
type StreamRequest struct {
	Message             string `json:"message"`
	ConversationID      string `json:"conversation_id,omitempty"`
	ConversationSummary string `json:"conversation_summary,omitempty"`
}

// StreamEventType identifies an SSE frame.
type StreamEventType string

const (
	EventToken StreamEventType = "token"
	EventDone  StreamEventType = "done"
	EventError StreamEventType = "error"
)

// StreamEvent is one decoded SSE frame from the streaming endpoint.
type StreamEvent struct {
	Type           StreamEventType `json:"type"`
	Content        string          `json:"content,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Message        string          `json:"message,omitempty"`
}

// InterruptRequest is the body for POST /{agent_id}/ask/interrupt.
type InterruptRequest struct {
	ConversationID string `json:"conversation_id"`
}

// =============================================================================
// GAMES
// =============================================================================

// LegalMovesRequest is the body for POST /games/legal_moves.
type LegalMovesRequest struct {
	FEN string `json:"fen"`
}

// LegalMovesResponse is the reply from POST /games/legal_moves.
type LegalMovesResponse struct {
	LegalMoves []string `json:"legal_moves"`
}

// =============================================================================
// SUMMARIZATION
// =============================================================================

// SummarizeRequest is the body for POST /summarize/rolling.
type SummarizeRequest struct {
	PreviousSummary string   `json:"previous_summary"`
	NewMessages     []string `json:"new_messages"`
}

// SummarizeResponse is the reply from POST /summarize/rolling.
type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// =============================================================================
// PROJECT FILE WORKSPACE
// =============================================================================

// FileUploadRequest is the body for POST /project/files/upload.
type FileUploadRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FileReadRequest is the body for POST /project/files/read.
type FileReadRequest struct {
	Path string `json:"path"`
}

// FileReadResponse is the reply from POST /project/files/read.
type FileReadResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FileWriteRequest is the body for POST /project/files/write.
type FileWriteRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FileDeleteRequest is the body for POST /project/files/delete.
type FileDeleteRequest struct {
	Path string `json:"path"`
}

// FileRenameRequest is the body for POST /project/files/rename.
type FileRenameRequest struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

// ProjectIndexResponse is the reply from POST /project/index.
type ProjectIndexResponse struct {
	Files []string `json:"files"`
}

// StatusResponse is the generic ack used by mutation endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}
