// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workspace holds the coding-agent panel state: the remote project
// file tree maintained from file-change events, the pending agent
// suggestion, and the local directory watcher that mirrors edits up to the
// backend.
package workspace
