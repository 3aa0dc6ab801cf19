// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// chunkReader returns its chunks one Read at a time, letting tests control
// exactly where the byte stream is split.
type chunkReader struct {
	chunks [][]byte
	pos    int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if c.pos >= len(c.chunks) {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[c.pos])
	c.pos++
	return n, nil
}

func collectEvents(t *testing.T, r io.Reader) ([]StreamEvent, error) {
	t.Helper()
	var events []StreamEvent
	err := NewEventReader(r).Process(context.Background(), func(e StreamEvent) {
		events = append(events, e)
	})
	return events, err
}

func TestEventReaderTokensThenDone(t *testing.T) {
	stream := "data: {\"type\":\"token\",\"content\":\"Hel\"}\n\n" +
		"data: {\"type\":\"token\",\"content\":\"lo!\"}\n\n" +
		"data: {\"type\":\"done\",\"conversation_id\":\"conv-7\"}\n\n"

	events, err := collectEvents(t, strings.NewReader(stream))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("event count = %d, want 3", len(events))
	}

	var sb strings.Builder
	for _, e := range events {
		if e.Type == EventToken {
			sb.WriteString(e.Content)
		}
	}
	if sb.String() != "Hello!" {
		t.Errorf("concatenated tokens = %q, want %q", sb.String(), "Hello!")
	}
	if last := events[len(events)-1]; last.Type != EventDone || last.ConversationID != "conv-7" {
		t.Errorf("final event = %+v", last)
	}
}

func TestEventReaderMultibyteSplitAcrossReads(t *testing.T) {
	// "héllo" with the two-byte é split across two reads, mid-frame.
	frame := []byte("data: {\"type\":\"token\",\"content\":\"héllo\"}\n\ndata: {\"type\":\"done\"}\n\n")

	// Split inside the é (0xC3 0xA9).
	split := -1
	for i, b := range frame {
		if b == 0xC3 {
			split = i + 1
			break
		}
	}
	if split < 0 {
		t.Fatal("no multibyte char found in fixture")
	}

	reader := &chunkReader{chunks: [][]byte{frame[:split], frame[split:]}}
	events, err := collectEvents(t, reader)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("event count = %d, want 2", len(events))
	}
	if events[0].Content != "héllo" {
		t.Errorf("token content = %q, want %q", events[0].Content, "héllo")
	}
}

func TestEventReaderErrorEvent(t *testing.T) {
	stream := "data: {\"type\":\"token\",\"content\":\"par\"}\n\n" +
		"data: {\"type\":\"error\",\"message\":\"model exploded\"}\n\n"

	events, err := collectEvents(t, strings.NewReader(stream))
	if err == nil {
		t.Fatal("expected error from error event")
	}
	if !IsServerError(err) {
		t.Errorf("error type = %v", err)
	}
	if len(events) != 2 || events[1].Type != EventError {
		t.Errorf("events = %+v", events)
	}
}

func TestEventReaderSkipsMalformedFrames(t *testing.T) {
	stream := "data: this is not json\n\n" +
		": comment line\n\n" +
		"data: {\"type\":\"token\",\"content\":\"ok\"}\n\n" +
		"data: {\"type\":\"done\"}\n\n"

	events, err := collectEvents(t, strings.NewReader(stream))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(events) != 2 || events[0].Content != "ok" {
		t.Errorf("events = %+v", events)
	}
}

func TestEventReaderFlushesUnterminatedTail(t *testing.T) {
	// Final frame lacks the trailing blank line before EOF.
	stream := "data: {\"type\":\"token\",\"content\":\"tail\"}"

	events, err := collectEvents(t, strings.NewReader(stream))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(events) != 1 || events[0].Content != "tail" {
		t.Errorf("events = %+v", events)
	}
}

func TestAskStreamEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coding/ask/stream" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		io.WriteString(w, "data: {\"type\":\"token\",\"content\":\"Hel\"}\n\n")
		flusher.Flush()
		io.WriteString(w, "data: {\"type\":\"token\",\"content\":\"lo!\"}\n\n")
		flusher.Flush()
		io.WriteString(w, "data: {\"type\":\"done\",\"conversation_id\":\"conv-2\"}\n\n")
	}))
	defer srv.Close()

	var sb strings.Builder
	var doneConv string
	err := newTestClient(srv.URL).AskStream(context.Background(), "coding",
		StreamRequest{Message: "write code"},
		func(e StreamEvent) {
			switch e.Type {
			case EventToken:
				sb.WriteString(e.Content)
			case EventDone:
				doneConv = e.ConversationID
			}
		})
	if err != nil {
		t.Fatalf("AskStream failed: %v", err)
	}
	if sb.String() != "Hello!" {
		t.Errorf("streamed content = %q", sb.String())
	}
	if doneConv != "conv-2" {
		t.Errorf("conversation id = %q", doneConv)
	}
}

func TestAskStreamCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	err := newTestClient(srv.URL).AskStream(ctx, "coding", StreamRequest{Message: "x"}, func(StreamEvent) {})
	if !IsCanceled(err) {
		t.Errorf("expected cancellation, got %v", err)
	}
}
