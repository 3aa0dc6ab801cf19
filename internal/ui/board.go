// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robotsdev/robots-tui/internal/chess"
	"github.com/robotsdev/robots-tui/internal/ui/styles"
)

// =============================================================================
// CHESS BOARD RENDERING
// =============================================================================

// pieceGlyphs maps FEN piece letters to unicode chess glyphs.
var pieceGlyphs = map[byte]string{
	'K': "♔", 'Q': "♕", 'R': "♖", 'B': "♗", 'N': "♘", 'P': "♙",
	'k': "♚", 'q': "♛", 'r': "♜", 'b': "♝", 'n': "♞", 'p': "♟",
}

var (
	lightSquare = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#EED9B7", Dark: "#6B5840"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#F5F0E6"})
	darkSquare = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#B58863", Dark: "#463222"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#F5F0E6"})
)

// RenderBoard draws a FEN position as a framed unicode board. Malformed
// FENs render as an empty string so a bad agent reply never breaks the view.
func RenderBoard(fen string) string {
	board, err := chess.FromFEN(fen)
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for r := 0; r < 8; r++ {
		sb.WriteString(styles.MutedText.Render(string(byte('8'-r))) + " ")
		for f := 0; f < 8; f++ {
			glyph := " "
			if p := board.Squares[r][f]; p != 0 {
				glyph = pieceGlyphs[p]
			}
			cell := " " + glyph + " "
			if (r+f)%2 == 0 {
				sb.WriteString(lightSquare.Render(cell))
			} else {
				sb.WriteString(darkSquare.Render(cell))
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("   a  b  c  d  e  f  g  h")

	turn := "white to move"
	if !board.WhiteToMov {
		turn = "black to move"
	}
	sb.WriteString("\n" + styles.MutedText.Render(turn))

	return styles.BoardFrame.Render(sb.String())
}
