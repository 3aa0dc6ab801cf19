// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"

	"github.com/robotsdev/robots-tui/internal/model"
	"github.com/robotsdev/robots-tui/internal/ui/styles"
)

// =============================================================================
// SUGGESTION DIFF
// =============================================================================

var (
	addedLine   = lipgloss.NewStyle().Foreground(styles.Emerald)
	removedLine = lipgloss.NewStyle().Foreground(styles.Rose)
)

// RenderSuggestion draws the pending suggestion as a reviewed diff:
// header, removed/added lines, and the chroma-highlighted proposed file.
func RenderSuggestion(s *model.AgentSuggestion) string {
	if s == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(styles.AgentLabel.Render("Suggestion") + " " + s.FilePath + "\n")
	if s.Description != "" {
		sb.WriteString(styles.MutedText.Render(s.Description) + "\n")
	}
	sb.WriteString("\n")

	for _, line := range diffLines(s.OriginalContent, s.ProposedContent) {
		switch {
		case strings.HasPrefix(line, "+"):
			sb.WriteString(addedLine.Render(line) + "\n")
		case strings.HasPrefix(line, "-"):
			sb.WriteString(removedLine.Render(line) + "\n")
		default:
			sb.WriteString(styles.MutedText.Render(line) + "\n")
		}
	}

	sb.WriteString("\n" + highlightCode(s.ProposedContent, s.FilePath))
	sb.WriteString("\n" + styles.MutedText.Render("[a]ccept  [r]eject"))

	return styles.SuggestionFrame.Render(sb.String())
}

// highlightCode runs the proposed content through chroma, picking the lexer
// from the file name. Falls back to plain text when highlighting fails.
func highlightCode(code, path string) string {
	lexer := lexers.Match(path)
	name := "plaintext"
	if lexer != nil {
		name = lexer.Config().Name
	}

	formatter := "terminal256"
	if styles.HasTrueColor() {
		formatter = "terminal16m"
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, code, name, formatter, "monokai"); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// =============================================================================
// LINE DIFF
// =============================================================================

// diffLines produces a minimal +/- line diff via longest common subsequence.
// Context lines carry two leading spaces.
func diffLines(before, after string) []string {
	a := strings.Split(before, "\n")
	b := strings.Split(after, "\n")

	// LCS table.
	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var out []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, "  "+a[i])
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			out = append(out, "-"+a[i])
			i++
		default:
			out = append(out, "+"+b[j])
			j++
		}
	}
	for ; i < len(a); i++ {
		out = append(out, "-"+a[i])
	}
	for ; j < len(b); j++ {
		out = append(out, "+"+b[j])
	}
	return out
}
