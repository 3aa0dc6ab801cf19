// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/robotsdev/robots-tui/internal/agent"
	"github.com/robotsdev/robots-tui/internal/chess"
	"github.com/robotsdev/robots-tui/internal/config"
	"github.com/robotsdev/robots-tui/internal/geo"
	"github.com/robotsdev/robots-tui/internal/model"
	"github.com/robotsdev/robots-tui/internal/pipeline"
	"github.com/robotsdev/robots-tui/internal/pose"
	"github.com/robotsdev/robots-tui/internal/ui/styles"
	"github.com/robotsdev/robots-tui/internal/workspace"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Deps are the wired subsystems the shell drives.
type Deps struct {
	Config    *config.Config
	Pipeline  *pipeline.Pipeline
	Chess     *chess.Game
	Workspace *workspace.Workspace
	Pose      *pose.Manager

	// Publish delivers a message into the running program from a goroutine.
	// Set by main after tea.NewProgram.
	Publish func(msg tea.Msg)
}

// =============================================================================
// MODEL
// =============================================================================

// focus selects which surface owns the keyboard.
type focus int

const (
	focusPicker focus = iota
	focusChat
	focusSuggestion
)

// agentItem adapts an agent descriptor to the bubbles list.
type agentItem struct{ agent.Agent }

func (a agentItem) Title() string { return a.Name }
func (a agentItem) Description() string {
	var caps []string
	if a.Streaming {
		caps = append(caps, "streaming")
	}
	if a.HasBoard {
		caps = append(caps, "chess")
	}
	if a.HasWorkspace {
		caps = append(caps, "workspace")
	}
	if a.HasMapData {
		caps = append(caps, "maps")
	}
	if a.IsImage {
		caps = append(caps, "images")
	}
	if len(caps) == 0 {
		return "chat"
	}
	return strings.Join(caps, ", ")
}
func (a agentItem) FilterValue() string { return a.Name }

// Model is the Bubble Tea root model.
type Model struct {
	deps Deps

	focus    focus
	selected agent.Agent
	title    string

	transcript []*model.ChatMessage
	picker     list.Model
	viewport   viewport.Model
	input      textarea.Model
	spin       spinner.Model
	md         *mdRenderer

	width  int
	height int

	loading      bool
	delayLeft    int
	lastUsage    time.Duration
	lastActivity time.Time
	showBoard    bool
	boardFEN     string
	mapSummary   string

	filesConnected bool
	suggConnected  bool

	statusErr string
}

// New builds the shell with the configured default agent preselected.
func New(deps Deps) *Model {
	items := make([]list.Item, 0, len(agent.All()))
	for _, a := range agent.All() {
		items = append(items, agentItem{a})
	}
	picker := list.New(items, list.NewDefaultDelegate(), 0, 0)
	picker.Title = "Pick an agent"
	picker.Styles.Title = styles.PickerTitle
	picker.SetShowHelp(false)

	input := textarea.New()
	input.Placeholder = "Message…"
	input.CharLimit = 4000
	input.SetHeight(3)
	input.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.AgentLabel

	return &Model{
		deps:         deps,
		focus:        focusPicker,
		selected:     agent.Lookup(deps.Config.UI.DefaultAgent),
		picker:       picker,
		input:        input,
		spin:         sp,
		md:           newMDRenderer(),
		lastActivity: time.Now(),
		boardFEN:     model.InitialFEN,
	}
}

// Init starts the blink, spinner, and pose tickers.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spin.Tick, poseTickCmd())
}

func poseTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return PoseTickMsg{At: t}
	})
}

// =============================================================================
// SEND DISPATCH
// =============================================================================

// sendCmd runs one pipeline turn off the UI goroutine, publishing transcript
// updates as they happen.
func (m *Model) sendCmd(text, file string, kind model.Kind) tea.Cmd {
	req := pipeline.SendRequest{AgentID: m.selected.ID, Text: text, Kind: kind}
	if file != "" {
		req.File = &pipeline.FileInfo{Name: baseName(file), Path: file}
	}

	publish := m.deps.Publish
	cb := pipeline.Callbacks{
		AppendMessage:             func(msg *model.ChatMessage) { publish(AppendMessageMsg{Message: msg}) },
		ReplaceLastAgentMessage:   func(msg *model.ChatMessage) { publish(StreamTokenMsg{Message: msg}) },
		RemoveDanglingPlaceholder: func() { publish(RemovePlaceholderMsg{}) },
		OnConversationRenamed:     func(id, title string) { publish(RenamedMsg{Title: title}) },
		OnDelayTick:               func(remaining int) { publish(DelayTickMsg{Remaining: remaining}) },
		OnUsage: func(ev pipeline.UsageEvent) {
			publish(UsageMsg{AgentID: ev.AgentID, Duration: ev.Duration})
		},
	}
	if m.selected.HasMapData {
		cb.OnMapData = func(data *geo.MapData) { publish(MapDataMsg{Data: data}) }
	}
	if m.selected.HasBoard && m.deps.Chess != nil {
		game := m.deps.Chess
		cb.ChessResponder = func(text string) (string, bool) {
			display, handled := game.OnAgentResponse(text)
			if handled {
				publish(BoardChangedMsg{FEN: game.State().FEN})
			}
			return display, handled
		}
	}

	return func() tea.Msg {
		if err := m.deps.Pipeline.Send(context.Background(), req, cb); err != nil {
			return StreamErrorMsg{Err: err}
		}
		return StreamDoneMsg{}
	}
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
