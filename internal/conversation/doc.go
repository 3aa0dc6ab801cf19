// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation persists chat sessions and their transcripts in a
// local SQLite database, and manages the active session lifecycle: lazy
// creation, rehydration of history, title updates, and rolling
// summarization once enough new messages accumulate.
package conversation
