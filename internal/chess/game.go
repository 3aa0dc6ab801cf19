// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chess

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/robotsdev/robots-tui/internal/model"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// SendFunc routes a message to the games agent through the message
// pipeline. Hidden messages are sent and persisted but never rendered.
type SendFunc func(ctx context.Context, text string, kind model.Kind) error

// LegalMovesFunc fetches the legal moves for a FEN position.
type LegalMovesFunc func(ctx context.Context, fen string) ([]string, error)

// EnsureConversationFunc lazily creates the game conversation, returning
// its id.
type EnsureConversationFunc func(ctx context.Context) (string, error)

// Callbacks are the UI hooks the game controller drives. Handlers are
// supplied at construction and invoked at call time.
type Callbacks struct {
	// AppendMessage adds a message to the visible transcript.
	AppendMessage func(msg *model.ChatMessage)
	// BoardChanged notifies the UI of a new position.
	BoardChanged func(fen string)
}

// =============================================================================
// GAME CONTROLLER
// =============================================================================

// Game orchestrates the chess game lifecycle: start, player moves, agent
// replies, reset and close. It never contacts the agent with a move unless
// the resulting position has a validated legal-move set.
type Game struct {
	mu sync.Mutex

	state              *model.GameState
	send               SendFunc
	legalMoves         LegalMovesFunc
	ensureConversation EnsureConversationFunc
	callbacks          Callbacks
}

// NewGame creates an idle game controller.
func NewGame(send SendFunc, legalMoves LegalMovesFunc, ensure EnsureConversationFunc, callbacks Callbacks) *Game {
	return &Game{
		state:              model.NewGameState(),
		send:               send,
		legalMoves:         legalMoves,
		ensureConversation: ensure,
		callbacks:          callbacks,
	}
}

// State returns a snapshot copy of the game state.
func (g *Game) State() model.GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	snapshot := *g.state
	snapshot.LegalMoves = append([]string(nil), g.state.LegalMoves...)
	return snapshot
}

// Start begins a new game: ensures a conversation exists, resets the board
// to the initial position, prefetches legal moves for validation, and
// sends a hidden "game started" notice to the agent.
func (g *Game) Start(ctx context.Context) error {
	if _, err := g.ensureConversation(ctx); err != nil {
		return fmt.Errorf("failed to ensure conversation: %w", err)
	}

	g.mu.Lock()
	g.state.Reset()
	g.state.GameID = "game_" + uuid.NewString()
	g.state.IsActive = true
	g.state.GameStatus = model.StatusActive
	fen := g.state.FEN
	g.mu.Unlock()

	g.notifyBoard(fen)

	// Validation-only prefetch; a failure here is not fatal to starting.
	if moves, err := g.legalMoves(ctx, fen); err == nil {
		g.mu.Lock()
		g.state.LegalMoves = moves
		g.mu.Unlock()
	}

	notice := "I've started a new chess game against you. The board is at the starting position. I'll play white and you'll play black. Please acknowledge and wait for my first move."
	return g.send(ctx, notice, model.KindHiddenSystem)
}

// ApplyMove adopts the player's move. The move is only forwarded to the
// agent once the resulting position has a validated legal-move set; a
// legal-move fetch failure halts the turn with a local system message.
func (g *Game) ApplyMove(ctx context.Context, move, newFEN string) error {
	g.mu.Lock()
	if !g.state.IsActive {
		g.mu.Unlock()
		return fmt.Errorf("no active game")
	}
	g.state.FEN = newFEN
	g.mu.Unlock()

	g.notifyBoard(newFEN)
	g.appendVisible(model.NewUserMessage("I played " + move))

	moves, err := g.legalMoves(ctx, newFEN)
	if err != nil {
		// Halt the turn: the agent must never receive a move without a
		// validated legal-move set for the resulting position.
		g.appendVisible(model.NewSystemMessage("Could not verify legal moves for the new position. Your move was not sent to the agent."))
		return fmt.Errorf("legal moves fetch failed: %w", err)
	}

	g.mu.Lock()
	g.state.LegalMoves = moves
	g.mu.Unlock()

	if len(moves) == 0 {
		g.mu.Lock()
		g.state.GameStatus = model.StatusGameOver
		g.mu.Unlock()
		notice := fmt.Sprintf("I played %s and now there are no legal moves left — the game may be over. Position: %s. Please acknowledge the result.", move, newFEN)
		return g.send(ctx, notice, model.KindHiddenSystem)
	}

	g.mu.Lock()
	g.state.IsAgentTurn = true
	g.mu.Unlock()

	msg := fmt.Sprintf(
		"I played %s. The position is %s. Your legal moves are: %s. Please respond with your move using your chess tool and tell me the resulting position.",
		move, newFEN, strings.Join(moves, ", "))
	return g.send(ctx, msg, model.KindHiddenSystem)
}

// OnAgentResponse inspects an agent reply for a board position. When one
// is recognized, the board is updated and the cleaned display text is
// returned with handled=true; the caller persists and renders it in place
// of the raw tool-call text.
func (g *Game) OnAgentResponse(text string) (displayText string, handled bool) {
	result := Parse(text, true)
	if !result.IsChessResponse {
		return text, false
	}

	g.mu.Lock()
	if result.ShouldUpdateBoard && result.FEN != "" {
		g.state.FEN = result.FEN
	}
	g.state.IsAgentTurn = false
	g.mu.Unlock()

	if result.ShouldUpdateBoard && result.FEN != "" {
		g.notifyBoard(result.FEN)
	}

	display := result.DisplayText
	if display == "" {
		display = "I've made my move."
	}
	return display, true
}

// Reset reverts to the initial position, keeps the game active, and tells
// the agent a new game has begun.
func (g *Game) Reset(ctx context.Context) error {
	g.mu.Lock()
	active := g.state.IsActive
	g.state.Reset()
	if active {
		g.state.GameID = "game_" + uuid.NewString()
		g.state.IsActive = true
		g.state.GameStatus = model.StatusActive
	}
	fen := g.state.FEN
	g.mu.Unlock()

	g.notifyBoard(fen)
	if !active {
		return nil
	}
	return g.send(ctx, "I've reset the board and started a new chess game. The board is back at the starting position.", model.KindHiddenSystem)
}

// CloseGame ends the game, reverts the board, and tells the agent.
func (g *Game) CloseGame(ctx context.Context) error {
	g.mu.Lock()
	wasActive := g.state.IsActive
	g.state.Reset()
	fen := g.state.FEN
	g.mu.Unlock()

	g.notifyBoard(fen)
	if !wasActive {
		return nil
	}
	return g.send(ctx, "I've closed the chess game. Thanks for playing!", model.KindHiddenSystem)
}

// =============================================================================
// HELPERS
// =============================================================================

func (g *Game) appendVisible(msg *model.ChatMessage) {
	if g.callbacks.AppendMessage != nil {
		g.callbacks.AppendMessage(msg)
	}
}

func (g *Game) notifyBoard(fen string) {
	if g.callbacks.BoardChanged != nil {
		g.callbacks.BoardChanged(fen)
	}
}
