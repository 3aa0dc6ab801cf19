// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ws

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options tunes heartbeat and reconnection behavior.
type Options struct {
	// HeartbeatInterval between outbound pings (default 28s)
	HeartbeatInterval time.Duration
	// PongTimeout after a ping before the socket is declared dead
	// (default 8s; must be shorter than HeartbeatInterval)
	PongTimeout time.Duration
	// ReconnectBase is the first backoff delay (default 1s)
	ReconnectBase time.Duration
	// ReconnectMax caps the backoff delay (default 30s)
	ReconnectMax time.Duration
	// MaxAttempts bounds consecutive failed reconnects (default 10)
	MaxAttempts int
}

// DefaultOptions returns the default channel options.
func DefaultOptions() Options {
	return Options{
		HeartbeatInterval: 28 * time.Second,
		PongTimeout:       8 * time.Second,
		ReconnectBase:     1 * time.Second,
		ReconnectMax:      30 * time.Second,
		MaxAttempts:       10,
	}
}

func (o *Options) fillDefaults() {
	def := DefaultOptions()
	if o.HeartbeatInterval == 0 {
		o.HeartbeatInterval = def.HeartbeatInterval
	}
	if o.PongTimeout == 0 {
		o.PongTimeout = def.PongTimeout
	}
	if o.ReconnectBase == 0 {
		o.ReconnectBase = def.ReconnectBase
	}
	if o.ReconnectMax == 0 {
		o.ReconnectMax = def.ReconnectMax
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = def.MaxAttempts
	}
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is one non-heartbeat inbound frame. The backend wraps every payload
// in a typed envelope, so Data holds the nested "data" object.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// controlFrame is the heartbeat wire format shared with the backend.
type controlFrame struct {
	Type string `json:"type"`
}

// heartbeatTimeoutCode is sent when no pong arrives in time.
const heartbeatTimeoutCode = websocket.CloseProtocolError // 1002

// =============================================================================
// CHANNEL
// =============================================================================

// Channel maintains at most one live WebSocket connection to a URL,
// reconnecting with exponential backoff on abnormal closure. A single
// goroutine owns the connection lifecycle, so no two reconnect attempts
// ever run concurrently.
type Channel struct {
	opts   Options
	events chan Event

	mu        sync.Mutex
	url       string
	conn      *websocket.Conn
	connected bool
	closed    bool
	done      chan struct{}
	running   bool
}

// NewChannel creates a disconnected channel. Call Dial to connect.
func NewChannel(opts Options) *Channel {
	opts.fillDefaults()
	return &Channel{
		opts:   opts,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
}

// Events returns the inbound event stream. Heartbeat frames are consumed
// internally and never appear here. The channel is closed when the Channel
// shuts down for good.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Connected reports whether a live connection is currently up.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Dial configures the channel URL and starts the connection loop.
// An empty URL means "disconnected" and is a no-op. A malformed URL is
// logged and treated as no connection.
func (c *Channel) Dial(rawURL string) error {
	if rawURL == "" {
		return nil
	}
	if _, err := url.Parse(rawURL); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid socket URL %q: %v\n", rawURL, err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("channel is closed")
	}
	c.url = rawURL
	if !c.running {
		c.running = true
		go c.run()
	}
	return nil
}

// Close shuts the channel down with a normal closure (code 1000), cancels
// all timers, and never triggers a reconnect. Idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	close(c.done)
	c.mu.Unlock()

	if conn != nil {
		closeNormally(conn)
	}
}

// closeNormally sends the 1000 close frame and tears the connection down.
func closeNormally(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client shutdown")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}

// =============================================================================
// CONNECTION LOOP
// =============================================================================

// run owns the connect / read / reconnect cycle for the channel's lifetime.
func (c *Channel) run() {
	defer close(c.events)

	attempt := 0
	for {
		if c.isClosed() {
			return
		}

		conn, _, err := websocket.DefaultDialer.Dial(c.currentURL(), nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: socket dial failed: %v\n", err)
		} else {
			if !c.setConn(conn) {
				return
			}
			attempt = 0 // successful open resets the backoff
			normal := c.readLoop(conn)
			c.setConn(nil)
			if normal || c.isClosed() {
				return
			}
		}

		if attempt >= c.opts.MaxAttempts {
			fmt.Fprintf(os.Stderr, "Warning: socket reconnect attempts exhausted, giving up\n")
			return
		}
		delay := Backoff(c.opts.ReconnectBase, c.opts.ReconnectMax, attempt)
		attempt++

		select {
		case <-time.After(delay):
		case <-c.done:
			return
		}
	}
}

// readLoop pumps inbound frames until the connection dies. Returns true on
// normal closure (code 1000), which must not trigger a reconnect.
func (c *Channel) readLoop(conn *websocket.Conn) (normal bool) {
	// Heartbeat: ping on an interval; an unanswered ping kills the socket
	// with 1002 so the read loop unblocks and reconnect logic takes over.
	stopHeartbeat := make(chan struct{})
	pongCh := make(chan struct{}, 1)
	go c.heartbeat(conn, pongCh, stopHeartbeat)
	defer close(stopHeartbeat)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return websocket.IsCloseError(err, websocket.CloseNormalClosure)
		}

		var frame controlFrame
		if json.Unmarshal(data, &frame) == nil {
			switch frame.Type {
			case "ping":
				// Server-initiated liveness check.
				_ = conn.WriteJSON(controlFrame{Type: "pong"})
				continue
			case "pong":
				select {
				case pongCh <- struct{}{}:
				default:
				}
				continue
			}
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: malformed socket frame dropped: %v\n", err)
			continue
		}
		select {
		case c.events <- event:
		case <-c.done:
			return true
		}
	}
}

// heartbeat sends pings and enforces the pong deadline for one connection.
func (c *Channel) heartbeat(conn *websocket.Conn, pongCh <-chan struct{}, stop <-chan struct{}) {
	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteJSON(controlFrame{Type: "ping"}); err != nil {
				return
			}
			select {
			case <-pongCh:
				// Liveness confirmed.
			case <-time.After(c.opts.PongTimeout):
				msg := websocket.FormatCloseMessage(int(heartbeatTimeoutCode), "heartbeat timeout")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
				_ = conn.Close()
				return
			case <-stop:
				return
			}
		case <-stop:
			return
		case <-c.done:
			return
		}
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// Backoff computes the reconnect delay for a zero-based attempt index:
// base * 2^attempt, capped at max. Monotonically non-decreasing in attempt.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) currentURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

// setConn installs the live connection. When Close won the race while the
// dial was in flight, the fresh connection is shut down with a normal
// closure instead and false is returned.
func (c *Channel) setConn(conn *websocket.Conn) bool {
	c.mu.Lock()
	if conn != nil && c.closed {
		c.mu.Unlock()
		closeNormally(conn)
		return false
	}
	c.conn = conn
	c.connected = conn != nil
	c.mu.Unlock()
	return true
}
