// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the robots backend: single-shot
// chat, per-agent SSE token streaming, interrupt signaling, chess legal
// moves, rolling summarization, and the coding-agent project file
// operations.
package api
