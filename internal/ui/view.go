// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/robotsdev/robots-tui/internal/model"
	"github.com/robotsdev/robots-tui/internal/ui/styles"
	"github.com/robotsdev/robots-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole shell.
func (m *Model) View() string {
	switch m.focus {
	case focusPicker:
		return m.picker.View()
	case focusSuggestion:
		if s := m.deps.Workspace.Suggestion(); s != nil {
			return RenderSuggestion(s)
		}
		// Suggestion vanished under us; fall through to the chat.
	}

	var sb strings.Builder
	sb.WriteString(m.headerView() + "\n")
	sb.WriteString(m.viewport.View() + "\n")
	sb.WriteString(styles.InputBox.Render(m.input.View()) + "\n")
	sb.WriteString(m.statusView())
	return sb.String()
}

func (m *Model) headerView() string {
	title := m.title
	if title == "" {
		title = "new conversation"
	}
	left := styles.AgentLabel.Render(m.selected.Name) + " " + styles.MutedText.Render(title)
	if m.mapSummary != "" {
		left += "  " + styles.MutedText.Render(m.mapSummary)
	}
	return left
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshViewport re-renders the transcript into the scrollback.
func (m *Model) refreshViewport() {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	var sb strings.Builder
	for _, msg := range m.transcript {
		if msg.Hidden() {
			continue
		}
		sb.WriteString(m.renderMessage(msg, width) + "\n\n")
	}
	if m.showBoard && m.selected.HasBoard {
		sb.WriteString(RenderBoard(m.boardFEN) + "\n")
	}

	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

// renderMessage draws one transcript entry. Agent prose goes through
// glamour; sentinels and banners get their own styling.
func (m *Model) renderMessage(msg *model.ChatMessage, width int) string {
	content := msg.GetDisplayContent()

	switch msg.Role {
	case model.RoleUser:
		body := content
		if msg.Type == model.TypeImage || msg.Type == model.TypeFile {
			body += styles.MutedText.Render("  [" + msg.FileName + "]")
		}
		return styles.UserLabel.Render("You") + "\n" + body

	case model.RoleSystem:
		return styles.SystemText.Render(content)

	default:
		label := styles.AgentLabel.Render(m.selected.Name)
		if msg.IsStreaming {
			return label + " " + m.spin.View() + "\n" + content
		}
		switch {
		case strings.HasPrefix(content, "[[CONTINUE]]"):
			return label + "\n" + styles.SystemText.Render(strings.TrimSpace(strings.TrimPrefix(content, "[[CONTINUE]]")))
		case strings.HasPrefix(content, "[[DELAY:"):
			return label + "\n" + styles.SystemText.Render(delayCountdownText(content))
		case msg.Type == model.TypeImage:
			return label + "\n" + content + "\n" + styles.MutedText.Render("[image] "+msg.FileURL)
		case msg.Type == model.TypeVideo:
			return label + "\n" + content + "\n" + styles.MutedText.Render("[video] "+msg.FileURL)
		default:
			return label + "\n" + m.md.Render(content, width)
		}
	}
}

// delayCountdownText turns "[[DELAY:n]]" into readable countdown text.
func delayCountdownText(content string) string {
	var n int
	if _, err := fmt.Sscanf(content, "[[DELAY:%d]]", &n); err != nil {
		return content
	}
	if n <= 0 {
		return "retrying now…"
	}
	return fmt.Sprintf("provider busy, retrying in %ds…", n)
}

// =============================================================================
// STATUS LINE
// =============================================================================

func (m *Model) statusView() string {
	var parts []string

	if m.deps.Pose != nil {
		parts = append(parts, string(m.deps.Pose.State()))
	}

	files := styles.DisconnectedDot
	if m.filesConnected {
		files = styles.ConnectedDot
	}
	sugg := styles.DisconnectedDot
	if m.suggConnected {
		sugg = styles.ConnectedDot
	}
	parts = append(parts, "files "+files, "suggestions "+sugg)

	if m.loading {
		parts = append(parts, m.spin.View()+" sending")
	}
	if m.delayLeft > 0 {
		parts = append(parts, "retry in "+util.IntToString(m.delayLeft)+"s")
	}
	if m.lastUsage > 0 {
		parts = append(parts, fmt.Sprintf("last reply %s", m.lastUsage.Round(10*time.Millisecond)))
	}
	if m.statusErr != "" {
		parts = append(parts, styles.ErrorText.Render(m.statusErr))
	}

	line := strings.Join(parts, "  ·  ")
	return styles.StatusBar.Render(padToWidth(line, m.width))
}

// padToWidth right-pads a styled line to the terminal width, rune-aware.
func padToWidth(s string, width int) string {
	visible := runewidth.StringWidth(stripANSI(s))
	if width <= visible {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// stripANSI removes SGR escape sequences for width measurement.
func stripANSI(s string) string {
	var sb strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
