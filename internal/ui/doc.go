// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the Bubble Tea shell: agent picker, chat transcript
// with glamour-rendered agent markdown, input area, chess board overlay,
// suggestion review, and the status line tying the pose and socket
// connectivity together.
package ui
