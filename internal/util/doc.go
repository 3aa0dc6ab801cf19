// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the robots TUI:
// rune-safe truncation, atomic file writes, and allocation-free
// integer formatting used in hot render paths.
package util
