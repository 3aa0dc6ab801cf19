// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// CHESS GAME STATE
// =============================================================================

// GameStatus enumerates the chess game lifecycle states.
type GameStatus string

const (
	StatusIdle      GameStatus = "idle"
	StatusActive    GameStatus = "active"
	StatusCheck     GameStatus = "check"
	StatusCheckmate GameStatus = "checkmate"
	StatusDraw      GameStatus = "draw"
	StatusStalemate GameStatus = "stalemate"
	StatusGameOver  GameStatus = "gameover"
)

// InitialFEN is the standard chess starting position.
const InitialFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// GameState tracks the chess mini-game for the games agent. One instance
// per chat session; reset on new chat or explicit close.
type GameState struct {
	GameID      string     `json:"game_id"`
	IsActive    bool       `json:"is_active"`
	IsAgentTurn bool       `json:"is_agent_turn"`
	GameStatus  GameStatus `json:"game_status"`
	FEN         string     `json:"fen"`
	LegalMoves  []string   `json:"legal_moves,omitempty"`
}

// NewGameState returns an idle game at the initial position.
func NewGameState() *GameState {
	return &GameState{
		GameStatus: StatusIdle,
		FEN:        InitialFEN,
	}
}

// Reset reverts the game to an idle initial position.
func (g *GameState) Reset() {
	g.GameID = ""
	g.IsActive = false
	g.IsAgentTurn = false
	g.GameStatus = StatusIdle
	g.FEN = InitialFEN
	g.LegalMoves = nil
}

// =============================================================================
// CODING AGENT EVENTS
// =============================================================================

// AgentSuggestion is an ephemeral code-change proposal delivered over the
// suggestions socket; cleared on accept or reject.
type AgentSuggestion struct {
	SuggestionID    string  `json:"suggestion_id"`
	FilePath        string  `json:"filePath"`
	OriginalContent string  `json:"originalContent"`
	ProposedContent string  `json:"proposedContent"`
	Description     string  `json:"description"`
	AgentType       string  `json:"agent_type,omitempty"`
	Timestamp       float64 `json:"timestamp,omitempty"` // unix seconds
}

// FileChange is a workspace file event delivered over the file-changes
// socket. EventType is one of created, modified, deleted.
type FileChange struct {
	FilePath  string `json:"file_path"`
	EventType string `json:"event_type"`
}
