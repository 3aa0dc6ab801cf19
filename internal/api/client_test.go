// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(url string) *Client {
	return NewClientWithConfig(&ClientConfig{BaseURL: url, UserName: "tester"})
}

func TestChatSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %q, want /chat", r.URL.Path)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.AgentID != "travel" || req.Message != "hello" {
			t.Errorf("unexpected request: %+v", req)
		}
		if req.UserName != "tester" {
			t.Errorf("user name not filled in: %q", req.UserName)
		}
		json.NewEncoder(w).Encode(ChatResponse{Response: "hi there", ConversationID: "conv-1"})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Chat(context.Background(), ChatRequest{AgentID: "travel", Message: "hello"})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Response != "hi there" || resp.ConversationID != "conv-1" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestChatRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Chat(context.Background(), ChatRequest{AgentID: "news", Message: "x"})
	if !IsRateLimited(err) {
		t.Errorf("expected rate-limit error, got %v", err)
	}
}

func TestChatServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Chat(context.Background(), ChatRequest{AgentID: "news", Message: "x"})
	if !IsServerError(err) {
		t.Errorf("expected server error, got %v", err)
	}
}

func TestChatCancellationPassesThrough(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv.URL).Chat(ctx, ChatRequest{AgentID: "news", Message: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if !IsCanceled(err) {
		t.Error("IsCanceled should recognize the error")
	}
}

func TestConnectionFailure(t *testing.T) {
	// Unroutable port.
	_, err := newTestClient("http://127.0.0.1:1").Chat(context.Background(), ChatRequest{AgentID: "x", Message: "y"})
	if !IsConnectionError(err) {
		t.Errorf("expected connection error, got %v", err)
	}
}

func TestLegalMoves(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/games/legal_moves" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req LegalMovesRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.FEN == "" {
			t.Error("missing fen")
		}
		json.NewEncoder(w).Encode(LegalMovesResponse{LegalMoves: []string{"e2e4", "d2d4"}})
	}))
	defer srv.Close()

	moves, err := newTestClient(srv.URL).LegalMoves(context.Background(), "startpos-fen")
	if err != nil {
		t.Fatalf("LegalMoves failed: %v", err)
	}
	if len(moves) != 2 || moves[0] != "e2e4" {
		t.Errorf("moves = %v", moves)
	}
}

func TestInterruptPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(StatusResponse{Status: "ok"})
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).Interrupt(context.Background(), "coding", "conv-9"); err != nil {
		t.Fatalf("Interrupt failed: %v", err)
	}
	if gotPath != "/coding/ask/interrupt" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestSummarizeRolling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SummarizeRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.PreviousSummary != "old" || len(req.NewMessages) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(SummarizeResponse{Summary: "new summary"})
	}))
	defer srv.Close()

	summary, err := newTestClient(srv.URL).SummarizeRolling(context.Background(), "old", []string{"a", "b"})
	if err != nil {
		t.Fatalf("SummarizeRolling failed: %v", err)
	}
	if summary != "new summary" {
		t.Errorf("summary = %q", summary)
	}
}

func TestProjectFileOps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/project/files/read":
			json.NewEncoder(w).Encode(FileReadResponse{Path: "main.py", Content: "print('hi')"})
		case "/project/files/write", "/project/files/delete", "/project/files/rename", "/project/reindex", "/project/files/upload":
			json.NewEncoder(w).Encode(StatusResponse{Status: "ok"})
		case "/project/index":
			json.NewEncoder(w).Encode(ProjectIndexResponse{Files: []string{"main.py"}})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx := context.Background()

	content, err := client.ReadProjectFile(ctx, "main.py")
	if err != nil || content != "print('hi')" {
		t.Errorf("ReadProjectFile = %q, %v", content, err)
	}
	if err := client.WriteProjectFile(ctx, "main.py", "print('bye')"); err != nil {
		t.Errorf("WriteProjectFile: %v", err)
	}
	files, err := client.ProjectIndex(ctx)
	if err != nil || len(files) != 1 {
		t.Errorf("ProjectIndex = %v, %v", files, err)
	}
	if err := client.Reindex(ctx); err != nil {
		t.Errorf("Reindex: %v", err)
	}
}
