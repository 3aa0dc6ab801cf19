// robots - a terminal client for the robots multi-agent chat backend.
//
// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/robotsdev/robots-tui/internal/api"
	"github.com/robotsdev/robots-tui/internal/chess"
	"github.com/robotsdev/robots-tui/internal/config"
	"github.com/robotsdev/robots-tui/internal/conversation"
	"github.com/robotsdev/robots-tui/internal/model"
	"github.com/robotsdev/robots-tui/internal/pipeline"
	"github.com/robotsdev/robots-tui/internal/pose"
	"github.com/robotsdev/robots-tui/internal/ui"
	"github.com/robotsdev/robots-tui/internal/workspace"
	"github.com/robotsdev/robots-tui/internal/ws"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async delivery into the event loop
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

// publish delivers a message into the running program from any goroutine.
// Safe to call before the program starts; such messages are dropped.
func publish(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("robots %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "robots: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`robots - terminal client for the robots multi-agent chat backend

Usage:
  robots              start the chat shell
  robots --version    print version information

Configuration is read from ~/.robots/config.toml (or config.json).
Environment overrides: ROBOTS_BACKEND_URL, ROBOTS_WS_URL, ROBOTS_USER,
ROBOTS_AGENT, ROBOTS_PROJECT_DIR.
`)
}

func run() error {
	cfg := config.Global()

	dataDir, err := cfg.DataDir()
	if err != nil {
		return fmt.Errorf("resolving data dir: %w", err)
	}
	store, err := conversation.OpenSQLite(filepath.Join(dataDir, "conversations.db"))
	if err != nil {
		return fmt.Errorf("opening conversation store: %w", err)
	}
	defer store.Close()

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:  cfg.Backend.BaseURL,
		UserName: cfg.Backend.UserName,
	})

	convs := conversation.NewManager(store, cfg.Backend.UserID, conversation.Options{
		SummaryThreshold: cfg.Chat.SummaryThreshold,
		MaxConversations: cfg.Storage.MaxConversations,
		Summarize:        client.SummarizeRolling,
	})

	poses := pose.NewManager()
	pipe := pipeline.New(client, convs, poses, sendLimiter(cfg.Chat.SendRatePerMin))
	game := newChessGame(pipe, client, convs)

	wsp := workspace.New(client)
	if dir := cfg.Workspace.ProjectDir; dir != "" {
		debounce := time.Duration(cfg.Workspace.SyncDebounceMs) * time.Millisecond
		dirSync, err := workspace.NewDirSync(client, dir, debounce)
		if err != nil {
			fmt.Fprintf(os.Stderr, "robots: project sync disabled: %v\n", err)
		} else if err := dirSync.Watch(); err != nil {
			fmt.Fprintf(os.Stderr, "robots: project sync disabled: %v\n", err)
			dirSync.Close()
		} else {
			defer dirSync.Close()
		}
	}

	m := ui.New(ui.Deps{
		Config:    cfg,
		Pipeline:  pipe,
		Chess:     game,
		Workspace: wsp,
		Pose:      poses,
		Publish:   publish,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	programMu.Lock()
	programRef = p
	programMu.Unlock()

	for name, path := range map[string]string{
		"files":       "/ws/file-changes",
		"suggestions": "/ws/suggestions?agent_type=coding",
	} {
		ch := ws.NewChannel(channelOptions(cfg))
		if err := ch.Dial(cfg.Backend.WSBaseURL + path); err != nil {
			fmt.Fprintf(os.Stderr, "robots: %s channel unavailable: %v\n", name, err)
			continue
		}
		defer ch.Close()
		go forwardEvents(name, ch)
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running shell: %w", err)
	}
	return nil
}

// =============================================================================
// WIRING
// =============================================================================

// sendLimiter paces outbound sends at the configured per-minute rate.
func sendLimiter(perMin int) *rate.Limiter {
	if perMin <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), 1)
}

// channelOptions maps the chat config onto socket channel options.
func channelOptions(cfg *config.Config) ws.Options {
	opts := ws.DefaultOptions()
	if cfg.Chat.HeartbeatSecs > 0 {
		opts.HeartbeatInterval = time.Duration(cfg.Chat.HeartbeatSecs) * time.Second
	}
	if cfg.Chat.PongTimeoutSecs > 0 {
		opts.PongTimeout = time.Duration(cfg.Chat.PongTimeoutSecs) * time.Second
	}
	if cfg.Chat.ReconnectBaseMs > 0 {
		opts.ReconnectBase = time.Duration(cfg.Chat.ReconnectBaseMs) * time.Millisecond
	}
	if cfg.Chat.ReconnectMaxMs > 0 {
		opts.ReconnectMax = time.Duration(cfg.Chat.ReconnectMaxMs) * time.Millisecond
	}
	if cfg.Chat.ReconnectMaxAttempts > 0 {
		opts.MaxAttempts = cfg.Chat.ReconnectMaxAttempts
	}
	return opts
}

// forwardEvents pumps a socket channel into the event loop until it shuts
// down for good.
func forwardEvents(name string, ch *ws.Channel) {
	for ev := range ch.Events() {
		publish(ui.SocketEventMsg{Channel: name, Event: ev})
	}
	publish(ui.SocketClosedMsg{Channel: name})
}

// newChessGame wires the game controller to the games agent: sends travel
// through the pipeline so game messages are persisted and classified like
// any other turn, and board updates flow back through the event loop.
func newChessGame(pipe *pipeline.Pipeline, client *api.Client, convs *conversation.Manager) *chess.Game {
	var game *chess.Game

	send := func(ctx context.Context, text string, kind model.Kind) error {
		cb := pipeline.Callbacks{
			AppendMessage:             func(msg *model.ChatMessage) { publish(ui.AppendMessageMsg{Message: msg}) },
			ReplaceLastAgentMessage:   func(msg *model.ChatMessage) { publish(ui.StreamTokenMsg{Message: msg}) },
			RemoveDanglingPlaceholder: func() { publish(ui.RemovePlaceholderMsg{}) },
			OnConversationRenamed:     func(id, title string) { publish(ui.RenamedMsg{Title: title}) },
			OnDelayTick:               func(remaining int) { publish(ui.DelayTickMsg{Remaining: remaining}) },
			OnUsage: func(ev pipeline.UsageEvent) {
				publish(ui.UsageMsg{AgentID: ev.AgentID, Duration: ev.Duration})
			},
			ChessResponder: func(text string) (string, bool) {
				display, handled := game.OnAgentResponse(text)
				if handled {
					publish(ui.BoardChangedMsg{FEN: game.State().FEN})
				}
				return display, handled
			},
		}
		return pipe.Send(ctx, pipeline.SendRequest{AgentID: "games", Text: text, Kind: kind}, cb)
	}

	ensure := func(ctx context.Context) (string, error) {
		return convs.EnsureConversation(ctx, "games")
	}

	game = chess.NewGame(send, client.LegalMoves, ensure, chess.Callbacks{
		AppendMessage: func(msg *model.ChatMessage) { publish(ui.AppendMessageMsg{Message: msg}) },
		BoardChanged:  func(fen string) { publish(ui.BoardChangedMsg{FEN: fen}) },
	})
	return game
}
