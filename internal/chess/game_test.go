// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chess

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/robotsdev/robots-tui/internal/model"
)

// gameHarness wires a Game to recording fakes.
type gameHarness struct {
	game       *Game
	sent       []sentMessage
	transcript []*model.ChatMessage
	boards     []string
	moves      []string
	movesErr   error
}

type sentMessage struct {
	text string
	kind model.Kind
}

func newGameHarness() *gameHarness {
	h := &gameHarness{moves: []string{"e2e4", "d2d4"}}
	h.game = NewGame(
		func(ctx context.Context, text string, kind model.Kind) error {
			h.sent = append(h.sent, sentMessage{text, kind})
			return nil
		},
		func(ctx context.Context, fen string) ([]string, error) {
			if h.movesErr != nil {
				return nil, h.movesErr
			}
			return h.moves, nil
		},
		func(ctx context.Context) (string, error) {
			return "conv-1", nil
		},
		Callbacks{
			AppendMessage: func(msg *model.ChatMessage) { h.transcript = append(h.transcript, msg) },
			BoardChanged:  func(fen string) { h.boards = append(h.boards, fen) },
		},
	)
	return h
}

func TestStartActivatesAndNotifiesHidden(t *testing.T) {
	h := newGameHarness()
	if err := h.game.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	state := h.game.State()
	if !state.IsActive || state.GameStatus != model.StatusActive {
		t.Errorf("state = %+v", state)
	}
	if state.FEN != model.InitialFEN {
		t.Errorf("fen = %q", state.FEN)
	}
	if len(h.sent) != 1 || h.sent[0].kind != model.KindHiddenSystem {
		t.Fatalf("sent = %+v", h.sent)
	}
	if len(h.transcript) != 0 {
		t.Errorf("start leaked visible messages: %+v", h.transcript)
	}
}

func TestApplyMoveSendsMoveWithLegalMoves(t *testing.T) {
	h := newGameHarness()
	h.game.Start(context.Background())
	h.sent = nil

	newFEN := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	if err := h.game.ApplyMove(context.Background(), "e2e4", newFEN); err != nil {
		t.Fatalf("ApplyMove failed: %v", err)
	}

	// Visible "I played" message appended.
	if len(h.transcript) != 1 || !strings.Contains(h.transcript[0].Content, "I played e2e4") {
		t.Errorf("transcript = %+v", h.transcript)
	}
	// Hidden move description carries the FEN and the legal moves.
	if len(h.sent) != 1 {
		t.Fatalf("sent = %+v", h.sent)
	}
	if h.sent[0].kind != model.KindHiddenSystem {
		t.Errorf("move message kind = %q", h.sent[0].kind)
	}
	if !strings.Contains(h.sent[0].text, newFEN) || !strings.Contains(h.sent[0].text, "e2e4, d2d4") {
		t.Errorf("move message = %q", h.sent[0].text)
	}
	if !h.game.State().IsAgentTurn {
		t.Error("agent turn not set")
	}
}

func TestApplyMoveLegalFetchFailureHaltsTurn(t *testing.T) {
	h := newGameHarness()
	h.game.Start(context.Background())
	h.sent = nil
	h.movesErr = errors.New("backend down")

	err := h.game.ApplyMove(context.Background(), "e2e4", "somefen w - - 0 1")
	if err == nil {
		t.Fatal("expected error")
	}
	// Local system message, nothing sent to the agent.
	if len(h.sent) != 0 {
		t.Errorf("move leaked to agent despite fetch failure: %+v", h.sent)
	}
	foundSystem := false
	for _, msg := range h.transcript {
		if msg.Role == model.RoleSystem {
			foundSystem = true
		}
	}
	if !foundSystem {
		t.Error("no local system message appended")
	}
}

func TestApplyMoveZeroLegalMovesIsGameOver(t *testing.T) {
	h := newGameHarness()
	h.game.Start(context.Background())
	h.sent = nil
	h.moves = []string{}

	if err := h.game.ApplyMove(context.Background(), "e2e4", "matefen w - - 0 1"); err != nil {
		t.Fatalf("ApplyMove failed: %v", err)
	}
	if h.game.State().GameStatus != model.StatusGameOver {
		t.Errorf("status = %q, want gameover", h.game.State().GameStatus)
	}
	if len(h.sent) != 1 || h.sent[0].kind != model.KindHiddenSystem {
		t.Fatalf("sent = %+v", h.sent)
	}
	if !strings.Contains(h.sent[0].text, "no legal moves") {
		t.Errorf("gameover notice = %q", h.sent[0].text)
	}
}

func TestOnAgentResponseUpdatesBoard(t *testing.T) {
	h := newGameHarness()
	h.game.Start(context.Background())
	h.boards = nil

	text := "I've made the move e7e5, position is rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2"
	display, handled := h.game.OnAgentResponse(text)
	if !handled {
		t.Fatal("agent move not handled")
	}
	if strings.Contains(display, "rnbqkbnr") {
		t.Errorf("display text still carries the FEN: %q", display)
	}
	if len(h.boards) != 1 || !strings.HasPrefix(h.boards[0], "rnbqkbnr/pppp1ppp") {
		t.Errorf("boards = %v", h.boards)
	}
	if h.game.State().IsAgentTurn {
		t.Error("agent turn should be over")
	}
}

func TestOnAgentResponsePlainTextPassesThrough(t *testing.T) {
	h := newGameHarness()
	display, handled := h.game.OnAgentResponse("Good luck, let's play!")
	if handled {
		t.Error("plain text treated as a chess response")
	}
	if display != "Good luck, let's play!" {
		t.Errorf("display = %q", display)
	}
}

func TestCloseGameSendsDistinctNotice(t *testing.T) {
	h := newGameHarness()
	h.game.Start(context.Background())
	h.sent = nil

	if err := h.game.CloseGame(context.Background()); err != nil {
		t.Fatalf("CloseGame failed: %v", err)
	}
	state := h.game.State()
	if state.IsActive || state.FEN != model.InitialFEN {
		t.Errorf("state after close = %+v", state)
	}
	if len(h.sent) != 1 || !strings.Contains(h.sent[0].text, "closed the chess game") {
		t.Errorf("sent = %+v", h.sent)
	}

	// Reset notice uses a different template.
	h.game.Start(context.Background())
	h.sent = nil
	h.game.Reset(context.Background())
	if len(h.sent) != 1 || !strings.Contains(h.sent[0].text, "reset the board") {
		t.Errorf("reset notice = %+v", h.sent)
	}
}

func TestCloseIdleGameIsQuiet(t *testing.T) {
	h := newGameHarness()
	if err := h.game.CloseGame(context.Background()); err != nil {
		t.Fatalf("CloseGame failed: %v", err)
	}
	if len(h.sent) != 0 {
		t.Errorf("idle close sent a notice: %+v", h.sent)
	}
}
