// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chess

import (
	"testing"

	"github.com/robotsdev/robots-tui/internal/model"
)

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		model.InitialFEN,
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2",
		"8/8/8/8/8/8/8/K6k w - - 10 40",
	}
	for _, fen := range fens {
		b, err := FromFEN(fen)
		if err != nil {
			t.Fatalf("FromFEN(%q) failed: %v", fen, err)
		}
		if got := b.ToFEN(); got != fen {
			t.Errorf("round trip = %q, want %q", got, fen)
		}
	}
}

func TestFromFENRejectsGarbage(t *testing.T) {
	bad := []string{
		"",
		"not a fen at all",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",           // 7 ranks
		"rnbqkbnr/pppppppp/9/8/8/8/8/PPPPPPPP w KQkq - 0 1",         // bad digit
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPX/RNBQKBNR w KQkq - 0 1",  // bad piece
	}
	for _, fen := range bad {
		if _, err := FromFEN(fen); err == nil {
			t.Errorf("FromFEN(%q) accepted garbage", fen)
		}
	}
}

func TestApplyUCIMovePawnPush(t *testing.T) {
	got, err := ApplyUCIMove(model.InitialFEN, "e2e4")
	if err != nil {
		t.Fatalf("ApplyUCIMove failed: %v", err)
	}
	want := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	if got != want {
		t.Errorf("fen = %q, want %q", got, want)
	}
}

func TestApplyUCIMoveCaptureResetsHalfmoves(t *testing.T) {
	fen := "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 5 3"
	got, err := ApplyUCIMove(fen, "f1b5") // bishop out, no capture
	if err != nil {
		t.Fatalf("ApplyUCIMove failed: %v", err)
	}
	b, _ := FromFEN(got)
	if b.HalfMoves != 6 {
		t.Errorf("halfmoves = %d, want 6", b.HalfMoves)
	}
}

func TestApplyUCIMoveKingSideCastle(t *testing.T) {
	fen := "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4"
	got, err := ApplyUCIMove(fen, "e1g1")
	if err != nil {
		t.Fatalf("ApplyUCIMove failed: %v", err)
	}
	b, _ := FromFEN(got)
	// King on g1, rook on f1, white rights gone.
	if b.Squares[7][6] != 'K' || b.Squares[7][5] != 'R' || b.Squares[7][7] != 0 {
		t.Errorf("castle squares wrong: %q", got)
	}
	if b.Castling != "kq" {
		t.Errorf("castling rights = %q, want kq", b.Castling)
	}
}

func TestApplyUCIMovePromotion(t *testing.T) {
	fen := "8/P7/8/8/8/8/8/K6k w - - 0 40"
	got, err := ApplyUCIMove(fen, "a7a8q")
	if err != nil {
		t.Fatalf("ApplyUCIMove failed: %v", err)
	}
	b, _ := FromFEN(got)
	if b.Squares[0][0] != 'Q' {
		t.Errorf("promotion square = %q", string(b.Squares[0][0]))
	}
}

func TestApplyUCIMoveEnPassant(t *testing.T) {
	fen := "rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3"
	got, err := ApplyUCIMove(fen, "e5f6")
	if err != nil {
		t.Fatalf("ApplyUCIMove failed: %v", err)
	}
	b, _ := FromFEN(got)
	// Captured pawn on f5 is gone, capturing pawn sits on f6.
	if b.Squares[3][5] != 0 {
		t.Errorf("en passant victim survived: %q", got)
	}
	if b.Squares[2][5] != 'P' {
		t.Errorf("capturing pawn misplaced: %q", got)
	}
}

func TestApplyUCIMoveRejectsBadInput(t *testing.T) {
	if _, err := ApplyUCIMove(model.InitialFEN, "e9e4"); err == nil {
		t.Error("bad square accepted")
	}
	if _, err := ApplyUCIMove(model.InitialFEN, "e4e5"); err == nil {
		t.Error("move from empty square accepted")
	}
	if _, err := ApplyUCIMove("bogus", "e2e4"); err == nil {
		t.Error("bad FEN accepted")
	}
}
