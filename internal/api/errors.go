// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeServer
	ErrTypeRateLimited
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrRateLimited = &ClientError{Type: ErrTypeRateLimited, Message: "rate limit reached"}
	ErrServer      = &ClientError{Type: ErrTypeServer, Message: "server error"}
)

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// IsRateLimited checks if an error is a rate-limit error.
func IsRateLimited(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeRateLimited
	}
	return errors.Is(err, ErrRateLimited)
}

// IsServerError checks if an error is a backend 5xx error.
func IsServerError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeServer
	}
	return errors.Is(err, ErrServer)
}

// IsConnectionError checks if an error is a network-level failure.
func IsConnectionError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeConnection
	}
	return false
}

// IsCanceled checks if an error is a user cancellation. Cancellation passes
// through the client unwrapped so callers can suppress error banners for it.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
