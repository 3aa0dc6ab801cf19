// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chess

import (
	"errors"
	"strconv"
	"strings"
)

// =============================================================================
// BOARD
// =============================================================================

var (
	ErrBadFEN  = errors.New("malformed FEN")
	ErrBadMove = errors.New("malformed move")
)

// Board is a decoded FEN position. Rank 0 is rank 8 (top of the board from
// white's perspective), file 0 is the a-file.
type Board struct {
	Squares    [8][8]byte // 0 for empty, else piece letter
	WhiteToMov bool
	Castling   string
	EnPassant  string
	HalfMoves  int
	FullMoves  int
}

// FromFEN decodes a FEN string; trailing fields are padded with defaults
// first (see NormalizeFEN).
func FromFEN(fen string) (*Board, error) {
	fields := strings.Fields(NormalizeFEN(fen))
	if len(fields) != 6 {
		return nil, ErrBadFEN
	}

	var b Board
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, ErrBadFEN
	}
	for r, rank := range ranks {
		file := 0
		for i := 0; i < len(rank); i++ {
			c := rank[i]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			if file > 7 || !strings.ContainsRune("rnbqkpRNBQKP", rune(c)) {
				return nil, ErrBadFEN
			}
			b.Squares[r][file] = c
			file++
		}
		if file != 8 {
			return nil, ErrBadFEN
		}
	}

	b.WhiteToMov = fields[1] == "w"
	b.Castling = fields[2]
	b.EnPassant = fields[3]
	b.HalfMoves, _ = strconv.Atoi(fields[4])
	b.FullMoves, _ = strconv.Atoi(fields[5])
	if b.FullMoves == 0 {
		b.FullMoves = 1
	}
	return &b, nil
}

// ToFEN encodes the board back to a 6-field FEN string.
func (b *Board) ToFEN() string {
	var sb strings.Builder
	for r := 0; r < 8; r++ {
		empty := 0
		for f := 0; f < 8; f++ {
			if b.Squares[r][f] == 0 {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(b.Squares[r][f])
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r < 7 {
			sb.WriteByte('/')
		}
	}

	side := "b"
	if b.WhiteToMov {
		side = "w"
	}
	castling := b.Castling
	if castling == "" {
		castling = "-"
	}
	ep := b.EnPassant
	if ep == "" {
		ep = "-"
	}
	return sb.String() + " " + side + " " + castling + " " + ep + " " +
		strconv.Itoa(b.HalfMoves) + " " + strconv.Itoa(b.FullMoves)
}

// =============================================================================
// MOVE APPLICATION
// =============================================================================

// ApplyUCIMove applies a UCI move ("e2e4", "e7e8q") to a FEN position and
// returns the resulting FEN. Legality is the backend's job; this only
// performs the mechanical board update, including castling rook hops,
// en passant captures, and promotion.
func ApplyUCIMove(fen, move string) (string, error) {
	b, err := FromFEN(fen)
	if err != nil {
		return "", err
	}
	if len(move) < 4 || len(move) > 5 {
		return "", ErrBadMove
	}

	fromFile, fromRank, ok1 := squareIndex(move[0:2])
	toFile, toRank, ok2 := squareIndex(move[2:4])
	if !ok1 || !ok2 {
		return "", ErrBadMove
	}

	piece := b.Squares[fromRank][fromFile]
	if piece == 0 {
		return "", ErrBadMove
	}

	isPawn := piece == 'p' || piece == 'P'
	capture := b.Squares[toRank][toFile] != 0

	// En passant capture removes the pawn behind the target square.
	if isPawn && move[2:4] == b.EnPassant && !capture {
		capture = true
		b.Squares[fromRank][toFile] = 0
	}

	// Castling: the king moves two files, the rook hops over.
	if (piece == 'K' || piece == 'k') && abs(toFile-fromFile) == 2 {
		rookRank := fromRank
		if toFile > fromFile { // king side
			b.Squares[rookRank][5] = b.Squares[rookRank][7]
			b.Squares[rookRank][7] = 0
		} else { // queen side
			b.Squares[rookRank][3] = b.Squares[rookRank][0]
			b.Squares[rookRank][0] = 0
		}
	}

	b.Squares[toRank][toFile] = piece
	b.Squares[fromRank][fromFile] = 0

	// Promotion.
	if len(move) == 5 {
		promo := move[4]
		if !strings.ContainsRune("qrbn", rune(promo)) {
			return "", ErrBadMove
		}
		if piece == 'P' {
			promo -= 'a' - 'A'
		}
		b.Squares[toRank][toFile] = promo
	}

	b.updateCastlingRights(piece, fromFile, fromRank, toFile, toRank)

	// En passant target appears only after a double pawn push.
	b.EnPassant = "-"
	if isPawn && abs(toRank-fromRank) == 2 {
		b.EnPassant = squareName(fromFile, (fromRank+toRank)/2)
	}

	if isPawn || capture {
		b.HalfMoves = 0
	} else {
		b.HalfMoves++
	}
	if !b.WhiteToMov {
		b.FullMoves++
	}
	b.WhiteToMov = !b.WhiteToMov

	return b.ToFEN(), nil
}

// updateCastlingRights drops rights when a king or rook moves, or a rook is
// captured on its home square.
func (b *Board) updateCastlingRights(piece byte, fromFile, fromRank, toFile, toRank int) {
	drop := func(rights string) {
		for _, r := range rights {
			b.Castling = strings.ReplaceAll(b.Castling, string(r), "")
		}
		if b.Castling == "" {
			b.Castling = "-"
		}
	}

	switch piece {
	case 'K':
		drop("KQ")
	case 'k':
		drop("kq")
	case 'R':
		if fromRank == 7 && fromFile == 0 {
			drop("Q")
		}
		if fromRank == 7 && fromFile == 7 {
			drop("K")
		}
	case 'r':
		if fromRank == 0 && fromFile == 0 {
			drop("q")
		}
		if fromRank == 0 && fromFile == 7 {
			drop("k")
		}
	}

	// Rook captured on its home square.
	switch {
	case toRank == 7 && toFile == 0:
		drop("Q")
	case toRank == 7 && toFile == 7:
		drop("K")
	case toRank == 0 && toFile == 0:
		drop("q")
	case toRank == 0 && toFile == 7:
		drop("k")
	}
}

// =============================================================================
// SQUARE HELPERS
// =============================================================================

// squareIndex maps "e2" to (file, rank) board indices.
func squareIndex(sq string) (file, rank int, ok bool) {
	if len(sq) != 2 || sq[0] < 'a' || sq[0] > 'h' || sq[1] < '1' || sq[1] > '8' {
		return 0, 0, false
	}
	return int(sq[0] - 'a'), 7 - int(sq[1]-'1'), true
}

// squareName maps board indices back to algebraic notation.
func squareName(file, rank int) string {
	return string([]byte{byte('a' + file), byte('1' + (7 - rank))})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
