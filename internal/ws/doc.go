// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ws wraps a WebSocket connection with heartbeat liveness checking
// and bounded exponential-backoff reconnection. The app runs two channels:
// file-change notifications and coding-agent suggestions.
package ws
