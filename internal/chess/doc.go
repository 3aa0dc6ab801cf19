// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chess extracts board positions from free-form agent text and
// orchestrates the chess mini-game lifecycle against the games agent.
package chess
