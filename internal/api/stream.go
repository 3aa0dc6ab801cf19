// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// STREAMING CHAT
// =============================================================================

// StreamCallback is called for each decoded event during streaming.
// Events are delivered synchronously in the order frames arrive.
type StreamCallback func(event StreamEvent)

// AskStream opens a streaming chat request against
// POST /{agent_id}/ask/stream and calls the callback for each SSE event.
// Returns when the stream ends, an error event arrives, or the context is
// cancelled (the cancellation passes through unwrapped).
func (c *Client) AskStream(ctx context.Context, agentID string, streamReq StreamRequest, callback StreamCallback) error {
	body, err := json.Marshal(streamReq)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	// No client timeout for the stream itself; lifetime is governed by ctx.
	streamClient := &http.Client{}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/"+agentID+"/ask/stream", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := streamClient.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	reader := NewEventReader(resp.Body)
	return reader.Process(ctx, callback)
}

// AskStreamChan opens a streaming chat request and returns a channel of
// events. The channel is closed when the stream completes or fails; errors
// are delivered as error-typed events.
func (c *Client) AskStreamChan(ctx context.Context, agentID string, streamReq StreamRequest) <-chan StreamEvent {
	ch := make(chan StreamEvent)

	go func() {
		defer close(ch)

		err := c.AskStream(ctx, agentID, streamReq, func(event StreamEvent) {
			select {
			case ch <- event:
			case <-ctx.Done():
			}
		})

		if err != nil && !errors.Is(err, context.Canceled) {
			select {
			case ch <- StreamEvent{Type: EventError, Message: err.Error()}:
			case <-ctx.Done():
			}
		}
	}()

	return ch
}

// =============================================================================
// EVENT READER
// =============================================================================

// EventReader incrementally parses SSE framing (`data: {json}\n\n`) from a
// byte stream. Bytes are buffered until a complete frame is present, so a
// multi-byte UTF-8 character split across reads is never decoded partially:
// the trailing incomplete rune stays in the carry-over buffer until its
// remaining bytes arrive.
type EventReader struct {
	r   io.Reader
	buf []byte
}

// NewEventReader creates an EventReader over an SSE byte stream.
func NewEventReader(r io.Reader) *EventReader {
	return &EventReader{r: r}
}

// Process reads the stream and calls the callback for each event. Blocks
// until the stream is complete, an error event arrives, or the context is
// cancelled.
func (e *EventReader) Process(ctx context.Context, callback StreamCallback) error {
	chunk := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := e.r.Read(chunk)
		if n > 0 {
			e.buf = append(e.buf, chunk[:n]...)
			done, procErr := e.drainFrames(callback)
			if procErr != nil {
				return procErr
			}
			if done {
				return nil
			}
		}
		if err != nil {
			if err == io.EOF {
				// Flush a final frame that was not newline-terminated.
				done, procErr := e.flushTail(callback)
				if procErr != nil {
					return procErr
				}
				_ = done
				return nil
			}
			return mapTransportError(err)
		}
	}
}

// drainFrames emits every complete frame currently buffered. Returns true
// once a done event has been delivered.
func (e *EventReader) drainFrames(callback StreamCallback) (bool, error) {
	for {
		idx := bytes.Index(e.buf, []byte("\n\n"))
		if idx < 0 {
			return false, nil
		}
		frame := e.buf[:idx]
		e.buf = e.buf[idx+2:]

		done, err := e.emitFrame(frame, callback)
		if err != nil || done {
			return done, err
		}
	}
}

// flushTail parses whatever remains in the buffer as a last frame.
func (e *EventReader) flushTail(callback StreamCallback) (bool, error) {
	if len(bytes.TrimSpace(e.buf)) == 0 {
		return false, nil
	}
	frame := e.buf
	e.buf = nil
	return e.emitFrame(frame, callback)
}

// emitFrame decodes one SSE frame and delivers its event. Frames without a
// data line and malformed JSON payloads are skipped.
func (e *EventReader) emitFrame(frame []byte, callback StreamCallback) (bool, error) {
	payload := extractData(frame)
	if payload == "" {
		return false, nil
	}
	if !utf8.ValidString(payload) {
		// A complete frame with invalid UTF-8 means the server sent
		// garbage, not a split rune; drop it.
		return false, nil
	}

	var event StreamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return false, nil
	}

	switch event.Type {
	case EventError:
		callback(event)
		return true, &ClientError{Type: ErrTypeServer, Message: event.Message}
	case EventDone:
		callback(event)
		return true, nil
	default:
		callback(event)
		return false, nil
	}
}

// extractData joins the data lines of one SSE frame.
func extractData(frame []byte) string {
	var parts []string
	for _, line := range strings.Split(string(frame), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "data:") {
			parts = append(parts, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	return strings.Join(parts, "\n")
}
