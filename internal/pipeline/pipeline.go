// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/robotsdev/robots-tui/internal/agent"
	"github.com/robotsdev/robots-tui/internal/api"
	"github.com/robotsdev/robots-tui/internal/geo"
	"github.com/robotsdev/robots-tui/internal/model"
	"github.com/robotsdev/robots-tui/internal/pose"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy means a send is already in flight.
	ErrBusy = errors.New("a message is already being sent")
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Backend is the slice of the api client the pipeline needs.
type Backend interface {
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
	AskStream(ctx context.Context, agentID string, req api.StreamRequest, callback api.StreamCallback) error
	Interrupt(ctx context.Context, agentID, conversationID string) error
}

// Conversations is the slice of the conversation manager the pipeline needs.
type Conversations interface {
	EnsureConversation(ctx context.Context, agentID string) (string, error)
	RecordMessage(ctx context.Context, msg *model.ChatMessage) (string, error)
	Summary() string
	MaybeSummarize(ctx context.Context) error
}

// UsageEvent reports one completed backend exchange.
type UsageEvent struct {
	AgentID        string
	ConversationID string
	Streaming      bool
	Duration       time.Duration
}

// Callbacks are the UI hooks for one Send call. Handlers are supplied per
// call rather than stored on the pipeline.
type Callbacks struct {
	// AppendMessage adds a message to the visible transcript.
	AppendMessage func(msg *model.ChatMessage)

	// ReplaceLastAgentMessage refreshes the trailing agent message after a
	// token append or a classification rewrite.
	ReplaceLastAgentMessage func(msg *model.ChatMessage)

	// RemoveDanglingPlaceholder drops an empty streaming placeholder after
	// a cancellation.
	RemoveDanglingPlaceholder func()

	// OnUsage receives one event per completed exchange.
	OnUsage func(ev UsageEvent)

	// OnConversationRenamed fires when the first visible user message
	// titles the conversation.
	OnConversationRenamed func(conversationID, title string)

	// OnDelayTick reports countdown progress for a provider backoff.
	OnDelayTick func(remaining int)

	// OnMapData receives geographic payloads extracted from agent text.
	OnMapData func(data *geo.MapData)

	// ChessResponder lets the chess controller intercept an agent reply.
	// Returns the display text and whether the reply was a chess move.
	ChessResponder func(text string) (string, bool)
}

// =============================================================================
// REQUESTS
// =============================================================================

// FileInfo describes a local attachment.
type FileInfo struct {
	Name string
	Path string
}

// SendRequest is one outbound user turn.
type SendRequest struct {
	AgentID string
	Text    string
	File    *FileInfo
	Kind    model.Kind
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline executes chat turns. At most one send is in flight at a time.
type Pipeline struct {
	backend Backend
	convs   Conversations
	pose    *pose.Manager
	limiter *rate.Limiter

	// sleep is swapped out in tests to avoid real countdown waits.
	sleep func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	loading  bool
	cancelFn context.CancelFunc

	// remoteIDs maps local conversation ids to server-assigned ones adopted
	// from done events and chat replies.
	remoteIDs map[string]string
}

// New creates a pipeline. limiter may be nil to disable send throttling.
func New(backend Backend, convs Conversations, poseMgr *pose.Manager, limiter *rate.Limiter) *Pipeline {
	return &Pipeline{
		backend:   backend,
		convs:     convs,
		pose:      poseMgr,
		limiter:   limiter,
		sleep:     sleepCtx,
		remoteIDs: make(map[string]string),
	}
}

// IsLoading reports whether a send is in flight.
func (p *Pipeline) IsLoading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Cancel aborts the in-flight send, if any. Idempotent: cancelling a settled
// or already-cancelled pipeline is a no-op.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	cancel := p.cancelFn
	p.cancelFn = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// =============================================================================
// SEND
// =============================================================================

// Send runs one chat turn. Blank text with no attachment, or a missing
// agent id, is a silent no-op. Returns ErrBusy while another send is in
// flight.
func (p *Pipeline) Send(ctx context.Context, req SendRequest, cb Callbacks) error {
	if strings.TrimSpace(req.Text) == "" && req.File == nil {
		return nil
	}
	if req.AgentID == "" {
		return nil
	}

	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		return ErrBusy
	}
	p.loading = true
	ctx, cancel := context.WithCancel(ctx)
	p.cancelFn = cancel
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.loading = false
		if p.cancelFn != nil {
			p.cancelFn()
			p.cancelFn = nil
		}
		p.mu.Unlock()
	}()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	ag := agent.Lookup(req.AgentID)
	if p.pose != nil {
		p.pose.OnSendStart(ag.IsImage, req.Text)
	}

	agentText, uiMsg, err := p.composeOutbound(req)
	if err != nil {
		p.appendLocalError(cb, "Could not read the attached file: "+err.Error())
		return err
	}

	convID, err := p.convs.EnsureConversation(ctx, ag.ID)
	if err != nil {
		p.appendLocalError(cb, "Could not open a conversation: "+err.Error())
		return err
	}

	// The outbound user message is persisted unconditionally, hidden or not;
	// only visible ones reach the transcript.
	if !uiMsg.Hidden() && cb.AppendMessage != nil {
		cb.AppendMessage(uiMsg)
	}
	if title, err := p.convs.RecordMessage(ctx, uiMsg); err == nil && title != "" && cb.OnConversationRenamed != nil {
		cb.OnConversationRenamed(convID, title)
	}

	started := time.Now()
	var respErr error
	if ag.Streaming {
		respErr = p.sendStreaming(ctx, ag, agentText, convID, cb)
	} else {
		respErr = p.sendSingleShot(ctx, ag, agentText, convID, cb)
	}

	if respErr != nil {
		p.handleSendError(ctx, ag, convID, respErr, cb)
		return respErr
	}

	if cb.OnUsage != nil {
		cb.OnUsage(UsageEvent{
			AgentID:        ag.ID,
			ConversationID: convID,
			Streaming:      ag.Streaming,
			Duration:       time.Since(started),
		})
	}
	if p.pose != nil {
		p.pose.OnSendDone()
	}

	// Rolling summarization is best effort; a failure never surfaces.
	_ = p.convs.MaybeSummarize(ctx)
	return nil
}

// =============================================================================
// OUTBOUND COMPOSITION
// =============================================================================

// composeOutbound builds the agent-facing text and the UI-facing message.
// Images are inlined base64 into the agent text; other files are appended as
// extracted text. The UI message keeps only the typed-in text plus
// attachment metadata.
func (p *Pipeline) composeOutbound(req SendRequest) (string, *model.ChatMessage, error) {
	uiMsg := model.NewUserMessage(req.Text)
	if req.Kind != "" {
		uiMsg.Kind = req.Kind
	}

	if req.File == nil {
		return req.Text, uiMsg, nil
	}

	data, err := os.ReadFile(req.File.Path)
	if err != nil {
		return "", nil, err
	}

	uiMsg.Type = model.TypeFile
	uiMsg.FileName = req.File.Name

	agentText := req.Text
	if isImagePath(req.File.Path) {
		uiMsg.Type = model.TypeImage
		encoded := base64.StdEncoding.EncodeToString(data)
		agentText = fmt.Sprintf("%s\n\n[attached image %s, base64]\n%s", req.Text, req.File.Name, encoded)
	} else {
		agentText = fmt.Sprintf("%s\n\n[attached file %s]\n%s", req.Text, req.File.Name, string(data))
	}
	return agentText, uiMsg, nil
}

func isImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp":
		return true
	}
	return false
}

// =============================================================================
// STREAMING PATH
// =============================================================================

func (p *Pipeline) sendStreaming(ctx context.Context, ag agent.Agent, text, convID string, cb Callbacks) error {
	placeholder := model.NewStreamingPlaceholder()
	if cb.AppendMessage != nil {
		cb.AppendMessage(placeholder)
	}

	streamReq := api.StreamRequest{
		Message:             text,
		ConversationID:      p.wireConversationID(convID),
		ConversationSummary: p.convs.Summary(),
	}

	err := p.backend.AskStream(ctx, ag.ID, streamReq, func(ev api.StreamEvent) {
		switch ev.Type {
		case api.EventToken:
			placeholder.AppendToken(ev.Content)
			if cb.ReplaceLastAgentMessage != nil {
				cb.ReplaceLastAgentMessage(placeholder)
			}
		case api.EventDone:
			if ev.ConversationID != "" {
				p.adoptConversationID(convID, ev.ConversationID)
			}
		}
	})
	if err != nil {
		// The spinner bubble must not outlive the stream, whatever killed it:
		// drop it when empty, otherwise settle the partial content.
		if placeholder.IsEmpty() {
			if cb.RemoveDanglingPlaceholder != nil {
				cb.RemoveDanglingPlaceholder()
			}
		} else {
			placeholder.FinalizeStream()
			if cb.ReplaceLastAgentMessage != nil {
				cb.ReplaceLastAgentMessage(placeholder)
			}
		}
		return err
	}

	placeholder.FinalizeStream()
	final := placeholder.Content
	if strings.TrimSpace(final) == "" {
		placeholder.Content = ContinueSentinel
		if cb.ReplaceLastAgentMessage != nil {
			cb.ReplaceLastAgentMessage(placeholder)
		}
		_, err := p.convs.RecordMessage(ctx, placeholder)
		return err
	}

	return p.classifyAndFinish(ctx, ag, final, placeholder, cb)
}

// =============================================================================
// SINGLE-SHOT PATH
// =============================================================================

func (p *Pipeline) sendSingleShot(ctx context.Context, ag agent.Agent, text, convID string, cb Callbacks) error {
	chatReq := api.ChatRequest{
		AgentID:             ag.ID,
		Message:             text,
		ConversationID:      p.wireConversationID(convID),
		ConversationSummary: p.convs.Summary(),
	}

	resp, err := p.backend.Chat(ctx, chatReq)
	if err != nil {
		return err
	}
	if resp.ConversationID != "" {
		p.adoptConversationID(convID, resp.ConversationID)
	}

	// Provider backoff convention: count down, then re-issue the identical
	// request payload exactly once. The countdown message is rewritten in
	// place by whatever the retry yields so no [[DELAY:0]] entry survives.
	var delayMsg *model.ChatMessage
	if delay := parseDelay(resp.Response); delay > 0 {
		delayMsg, err = p.countdown(ctx, delay, cb)
		if err != nil {
			p.dropCountdown(delayMsg, cb)
			return err
		}
		resp, err = p.backend.Chat(ctx, chatReq)
		if err != nil {
			p.dropCountdown(delayMsg, cb)
			return err
		}
	}

	body := strings.TrimSpace(resp.Response)
	if body == "" {
		msg := delayMsg
		if msg == nil {
			msg = model.NewAgentMessage(ContinueSentinel)
			if cb.AppendMessage != nil {
				cb.AppendMessage(msg)
			}
		} else {
			msg.Content = ContinueSentinel
			if cb.ReplaceLastAgentMessage != nil {
				cb.ReplaceLastAgentMessage(msg)
			}
		}
		_, err := p.convs.RecordMessage(ctx, msg)
		return err
	}

	return p.classifyAndFinish(ctx, ag, resp.Response, delayMsg, cb)
}

// countdown shows a live [[DELAY:n]] message decrementing once per second,
// returning it for the caller to rewrite once the retry resolves.
func (p *Pipeline) countdown(ctx context.Context, seconds int, cb Callbacks) (*model.ChatMessage, error) {
	delayMsg := model.NewAgentMessage(delayTag(seconds))
	if cb.AppendMessage != nil {
		cb.AppendMessage(delayMsg)
	}
	for remaining := seconds; remaining > 0; remaining-- {
		if cb.OnDelayTick != nil {
			cb.OnDelayTick(remaining)
		}
		if err := p.sleep(ctx, time.Second); err != nil {
			return delayMsg, err
		}
		delayMsg.Content = delayTag(remaining - 1)
		if cb.ReplaceLastAgentMessage != nil {
			cb.ReplaceLastAgentMessage(delayMsg)
		}
	}
	if cb.OnDelayTick != nil {
		cb.OnDelayTick(0)
	}
	return delayMsg, nil
}

// dropCountdown removes a countdown message that has nothing to show for
// itself: blanked out, it is the dangling trailing agent entry.
func (p *Pipeline) dropCountdown(delayMsg *model.ChatMessage, cb Callbacks) {
	if delayMsg == nil {
		return
	}
	delayMsg.Content = ""
	if cb.RemoveDanglingPlaceholder != nil {
		cb.RemoveDanglingPlaceholder()
	}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// classifyAndFinish routes the raw response to its final rendering and
// persists the displayed text. placeholder is the streaming message to
// rewrite in place, or nil to append a fresh agent message.
func (p *Pipeline) classifyAndFinish(ctx context.Context, ag agent.Agent, raw string, placeholder *model.ChatMessage, cb Callbacks) error {
	finish := func(msg *model.ChatMessage) error {
		if placeholder != nil {
			placeholder.Content = msg.Content
			placeholder.Type = msg.Type
			placeholder.FileURL = msg.FileURL
			if cb.ReplaceLastAgentMessage != nil {
				cb.ReplaceLastAgentMessage(placeholder)
			}
			_, err := p.convs.RecordMessage(ctx, placeholder)
			return err
		}
		if cb.AppendMessage != nil {
			cb.AppendMessage(msg)
		}
		_, err := p.convs.RecordMessage(ctx, msg)
		return err
	}

	// Quota markers outrank everything else.
	if isQuotaText(raw) {
		if p.pose != nil {
			p.pose.OnError()
		}
		return finish(model.NewAgentMessage("Quota Exceeded — the provider is out of capacity. Please try again later."))
	}

	if msgType, path, cleaned := extractAttachment(raw); msgType != model.TypeText {
		return finish(model.NewAttachmentMessage(msgType, cleaned, path))
	}

	if ag.HasBoard && cb.ChessResponder != nil {
		if display, handled := cb.ChessResponder(raw); handled {
			return finish(model.NewAgentMessage(display))
		}
	}

	display := raw
	if ag.HasMapData {
		if data, cleaned := geo.ParseMapData(raw); data != nil {
			if cb.OnMapData != nil {
				cb.OnMapData(data)
			}
			display = cleaned
		}
	}

	if p.pose != nil {
		p.pose.OnAgentMessage(display)
	}
	return finish(model.NewAgentMessage(display))
}

// =============================================================================
// ERROR HANDLING
// =============================================================================

// handleSendError maps a failed turn to its banner. User cancellation shows
// nothing: the placeholder is already gone and streaming agents get a
// best-effort server-side interrupt.
func (p *Pipeline) handleSendError(ctx context.Context, ag agent.Agent, convID string, err error, cb Callbacks) {
	if api.IsCanceled(err) {
		if ag.Streaming {
			interruptCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = p.backend.Interrupt(interruptCtx, ag.ID, p.wireConversationID(convID))
		}
		return
	}

	var banner string
	switch {
	case api.IsRateLimited(err):
		banner = "Rate Limit Reached — please wait a moment before sending again."
		if p.pose != nil {
			p.pose.OnError()
		}
	case api.IsTimeout(err):
		banner = "Connection Error: the request timed out."
	case api.IsConnectionError(err):
		banner = "Connection Error: could not reach the backend."
	case api.IsServerError(err):
		banner = "Server Error: the backend failed to answer."
	default:
		banner = "Something went wrong: " + err.Error()
	}

	msg := model.NewAgentMessage(banner)
	if cb.AppendMessage != nil {
		cb.AppendMessage(msg)
	}
	_, _ = p.convs.RecordMessage(ctx, msg)
}

// appendLocalError surfaces a client-side failure as a system message
// without touching the store.
func (p *Pipeline) appendLocalError(cb Callbacks, text string) {
	if cb.AppendMessage != nil {
		cb.AppendMessage(model.NewSystemMessage(text))
	}
}

// =============================================================================
// CONVERSATION ID ADOPTION
// =============================================================================

// wireConversationID returns the server-assigned id for a local
// conversation when one has been adopted.
func (p *Pipeline) wireConversationID(localID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if remote, ok := p.remoteIDs[localID]; ok {
		return remote
	}
	return localID
}

func (p *Pipeline) adoptConversationID(localID, remoteID string) {
	if remoteID == localID {
		return
	}
	p.mu.Lock()
	p.remoteIDs[localID] = remoteID
	p.mu.Unlock()
}

// =============================================================================
// HELPERS
// =============================================================================

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
