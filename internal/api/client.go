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
	"time"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://127.0.0.1:8000)
	BaseURL string

	// UserName is sent with chat requests (default: "friend")
	UserName string

	// Timeout for non-streaming requests (default: 60s)
	Timeout time.Duration

	// StreamTimeout for establishing streaming connections (default: 10s)
	StreamTimeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       "http://127.0.0.1:8000",
		UserName:      "friend",
		Timeout:       60 * time.Second,
		StreamTimeout: 10 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the robots backend.
//
// The Client is thread-safe for concurrent use. Chat requests carry no
// client-imposed timeout beyond the configured one; user cancellation is
// delivered through the context and passes through unwrapped.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new backend client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new backend client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8000"
	}
	if config.UserName == "" {
		config.UserName = "friend"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.StreamTimeout == 0 {
		config.StreamTimeout = 10 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// Chat sends a single-shot chat request and returns the complete response.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.UserName == "" {
		req.UserName = c.config.UserName
	}

	var result ChatResponse
	if err := c.postJSON(ctx, "/chat", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Interrupt signals the backend to stop server-side work for a streaming
// agent. Best effort: callers typically ignore the error.
func (c *Client) Interrupt(ctx context.Context, agentID, conversationID string) error {
	var result StatusResponse
	return c.postJSON(ctx, "/"+agentID+"/ask/interrupt", InterruptRequest{ConversationID: conversationID}, &result)
}

// =============================================================================
// GAMES
// =============================================================================

// LegalMoves fetches the legal moves for a FEN position.
func (c *Client) LegalMoves(ctx context.Context, fen string) ([]string, error) {
	var result LegalMovesResponse
	if err := c.postJSON(ctx, "/games/legal_moves", LegalMovesRequest{FEN: fen}, &result); err != nil {
		return nil, err
	}
	return result.LegalMoves, nil
}

// =============================================================================
// SUMMARIZATION
// =============================================================================

// SummarizeRolling asks the backend to fold new messages into a rolling
// conversation summary.
func (c *Client) SummarizeRolling(ctx context.Context, previousSummary string, newMessages []string) (string, error) {
	var result SummarizeResponse
	req := SummarizeRequest{PreviousSummary: previousSummary, NewMessages: newMessages}
	if err := c.postJSON(ctx, "/summarize/rolling", req, &result); err != nil {
		return "", err
	}
	return result.Summary, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// postJSON performs a JSON POST and decodes the JSON reply into out.
func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// mapTransportError translates transport failures into the client taxonomy.
// context.Canceled passes through unwrapped so callers can tell user
// cancellation apart from genuine failures.
func mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return &ClientError{Type: ErrTypeConnection, Message: "connection failed", Cause: err}
}

// checkStatus maps HTTP statuses into the client taxonomy.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 500:
		return &ClientError{Type: ErrTypeServer, Message: "server error: " + resp.Status}
	default:
		msg := readErrorMessage(resp.Body)
		if msg == "" {
			msg = "request failed: " + resp.Status
		}
		return &ClientError{Type: ErrTypeInvalidResponse, Message: msg}
	}
}

// readErrorMessage extracts a detail/message field from an error body.
func readErrorMessage(r io.Reader) string {
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&body); err != nil {
		return ""
	}
	if body.Detail != "" {
		return body.Detail
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
