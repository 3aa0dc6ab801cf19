// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/robotsdev/robots-tui/internal/agent"
	"github.com/robotsdev/robots-tui/internal/chess"
	"github.com/robotsdev/robots-tui/internal/model"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update is the single event loop for the shell.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.onResize(msg)

	case tea.KeyMsg:
		return m.onKey(msg)

	case AppendMessageMsg:
		m.transcript = append(m.transcript, msg.Message)
		m.refreshViewport()
		return m, nil

	case StreamTokenMsg:
		m.replaceLastAgent(msg.Message)
		m.refreshViewport()
		return m, nil

	case RemovePlaceholderMsg:
		if n := len(m.transcript); n > 0 && m.transcript[n-1].Role == model.RoleAgent && m.transcript[n-1].IsEmpty() {
			m.transcript = m.transcript[:n-1]
		}
		m.refreshViewport()
		return m, nil

	case StreamDoneMsg:
		m.loading = false
		m.delayLeft = 0
		m.statusErr = ""
		return m, nil

	case StreamErrorMsg:
		m.loading = false
		m.delayLeft = 0
		if msg.Err != nil && msg.Err != context.Canceled {
			m.statusErr = msg.Err.Error()
		}
		return m, nil

	case DelayTickMsg:
		m.delayLeft = msg.Remaining
		m.refreshViewport()
		return m, nil

	case RenamedMsg:
		m.title = msg.Title
		return m, nil

	case UsageMsg:
		m.lastUsage = msg.Duration
		return m, nil

	case MapDataMsg:
		m.mapSummary = summarizeMapData(msg)
		return m, nil

	case BoardChangedMsg:
		m.boardFEN = msg.FEN
		m.refreshViewport()
		return m, nil

	case SocketEventMsg:
		return m.onSocketEvent(msg)

	case SocketClosedMsg:
		switch msg.Channel {
		case "files":
			m.filesConnected = false
		case "suggestions":
			m.suggConnected = false
		}
		return m, nil

	case PoseTickMsg:
		if m.deps.Pose != nil {
			m.deps.Pose.OnIdle(msg.At.Sub(m.lastActivity))
		}
		return m, poseTickCmd()
	}

	return m.updateChildren(msg)
}

// updateChildren forwards unhandled messages to the focused child widget.
func (m *Model) updateChildren(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch m.focus {
	case focusPicker:
		m.picker, cmd = m.picker.Update(msg)
		cmds = append(cmds, cmd)
	case focusChat:
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.spin, cmd = m.spin.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.lastActivity = time.Now()

	switch msg.String() {
	case "ctrl+c":
		// Ctrl+C cancels an in-flight send; a second one quits.
		if m.deps.Pipeline.IsLoading() {
			m.deps.Pipeline.Cancel()
			return m, nil
		}
		return m, tea.Quit
	case "esc":
		if m.focus == focusSuggestion {
			m.focus = focusChat
			return m, nil
		}
		if m.focus == focusChat {
			m.focus = focusPicker
			return m, nil
		}
	}

	switch m.focus {
	case focusPicker:
		if msg.String() == "enter" {
			if item, ok := m.picker.SelectedItem().(agentItem); ok {
				return m.selectAgent(item.Agent.ID)
			}
		}
	case focusSuggestion:
		return m.onSuggestionKey(msg)
	case focusChat:
		if msg.String() == "enter" && !msg.Alt {
			text := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if m.deps.Pose != nil {
				m.deps.Pose.OnInputChange(false)
			}
			return m.dispatchInput(text)
		}
		if m.deps.Pose != nil {
			m.deps.Pose.OnInputChange(strings.TrimSpace(m.input.Value()) != "")
		}
	}

	return m.updateChildren(msg)
}

func (m *Model) selectAgent(id string) (tea.Model, tea.Cmd) {
	prev := m.selected.ID
	m.selected = agent.Lookup(id)
	m.focus = focusChat
	m.input.Focus()
	if prev != id {
		m.transcript = nil
		m.title = ""
		m.showBoard = false
		m.mapSummary = ""
		if m.deps.Pose != nil {
			m.deps.Pose.OnNewSession()
		}
		m.refreshViewport()
	}
	return m, textarea.Blink
}

// =============================================================================
// INPUT DISPATCH
// =============================================================================

// dispatchInput routes a submitted line: slash commands first, then a send.
func (m *Model) dispatchInput(text string) (tea.Model, tea.Cmd) {
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		return m.runCommand(text)
	}

	if m.deps.Pipeline.IsLoading() {
		m.statusErr = "still sending, Ctrl+C to cancel"
		return m, nil
	}
	m.loading = true
	m.statusErr = ""
	return m, m.sendCmd(text, "", model.KindVisible)
}

// runCommand handles the slash commands: /agents, /new, /attach, and the
// chess game verbs for board agents.
func (m *Model) runCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/agents":
		m.focus = focusPicker
		return m, nil

	case "/new":
		m.transcript = nil
		m.title = ""
		m.refreshViewport()
		if m.deps.Pose != nil {
			m.deps.Pose.OnNewSession()
		}
		return m, nil

	case "/attach":
		if len(fields) < 2 {
			m.statusErr = "usage: /attach <path> [message]"
			return m, nil
		}
		message := strings.Join(fields[2:], " ")
		m.loading = true
		return m, m.sendCmd(message, fields[1], model.KindVisible)

	case "/start":
		return m.startGame()

	case "/move":
		if len(fields) != 2 {
			m.statusErr = "usage: /move e2e4"
			return m, nil
		}
		return m.playMove(fields[1])

	case "/board":
		m.showBoard = !m.showBoard
		m.refreshViewport()
		return m, nil

	case "/resign":
		return m.closeGame()
	}

	m.statusErr = "unknown command " + fields[0]
	return m, nil
}

// =============================================================================
// CHESS COMMANDS
// =============================================================================

func (m *Model) startGame() (tea.Model, tea.Cmd) {
	if !m.selected.HasBoard || m.deps.Chess == nil {
		m.statusErr = "this agent does not play chess"
		return m, nil
	}
	m.showBoard = true
	game := m.deps.Chess
	publish := m.deps.Publish
	return m, func() tea.Msg {
		if err := game.Start(context.Background()); err != nil {
			return StreamErrorMsg{Err: err}
		}
		publish(BoardChangedMsg{FEN: game.State().FEN})
		return StreamDoneMsg{}
	}
}

func (m *Model) playMove(move string) (tea.Model, tea.Cmd) {
	if !m.selected.HasBoard || m.deps.Chess == nil {
		m.statusErr = "this agent does not play chess"
		return m, nil
	}
	game := m.deps.Chess
	fen, err := chess.ApplyUCIMove(game.State().FEN, move)
	if err != nil {
		m.statusErr = "bad move: " + move
		return m, nil
	}
	m.loading = true
	publish := m.deps.Publish
	return m, func() tea.Msg {
		if err := game.ApplyMove(context.Background(), move, fen); err != nil {
			return StreamErrorMsg{Err: err}
		}
		publish(BoardChangedMsg{FEN: fen})
		return StreamDoneMsg{}
	}
}

func (m *Model) closeGame() (tea.Model, tea.Cmd) {
	if !m.selected.HasBoard || m.deps.Chess == nil {
		return m, nil
	}
	m.showBoard = false
	game := m.deps.Chess
	return m, func() tea.Msg {
		_ = game.CloseGame(context.Background())
		return BoardChangedMsg{FEN: game.State().FEN}
	}
}

// =============================================================================
// SOCKET EVENTS
// =============================================================================

func (m *Model) onSocketEvent(msg SocketEventMsg) (tea.Model, tea.Cmd) {
	switch msg.Channel {
	case "files":
		m.filesConnected = true
		if msg.Event.Type == "file_change" && m.deps.Workspace != nil {
			var change model.FileChange
			if json.Unmarshal(msg.Event.Data, &change) == nil {
				m.deps.Workspace.ApplyChange(change)
			}
		}
	case "suggestions":
		m.suggConnected = true
		if msg.Event.Type == "agent_suggestion" && m.deps.Workspace != nil {
			var s model.AgentSuggestion
			if json.Unmarshal(msg.Event.Data, &s) == nil {
				m.deps.Workspace.SetSuggestion(&s)
				m.focus = focusSuggestion
			}
		}
	}
	return m, nil
}

// onSuggestionKey handles the accept/reject modal.
func (m *Model) onSuggestionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ws := m.deps.Workspace
	switch msg.String() {
	case "a":
		m.focus = focusChat
		return m, func() tea.Msg {
			if err := ws.AcceptSuggestion(context.Background()); err != nil {
				return StreamErrorMsg{Err: err}
			}
			return StreamDoneMsg{}
		}
	case "r":
		_ = ws.RejectSuggestion()
		m.focus = focusChat
		return m, nil
	}
	return m, nil
}

// =============================================================================
// TRANSCRIPT MAINTENANCE
// =============================================================================

// replaceLastAgent swaps the trailing agent message for its refreshed copy.
func (m *Model) replaceLastAgent(msg *model.ChatMessage) {
	for i := len(m.transcript) - 1; i >= 0; i-- {
		if m.transcript[i].Role == model.RoleAgent {
			m.transcript[i] = msg
			return
		}
	}
	m.transcript = append(m.transcript, msg)
}

func (m *Model) onResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	inputHeight := 5
	statusHeight := 2
	m.viewport.Width = msg.Width
	m.viewport.Height = msg.Height - inputHeight - statusHeight
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.input.SetWidth(msg.Width - 4)
	m.picker.SetSize(msg.Width, msg.Height-2)
	m.refreshViewport()
	return m, nil
}

func summarizeMapData(msg MapDataMsg) string {
	if msg.Data == nil {
		return ""
	}
	return fmt.Sprintf("map: %d points, %d routes, %d areas",
		len(msg.Data.Points), len(msg.Data.Routes), len(msg.Data.Polygons))
}
