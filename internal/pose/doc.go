// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pose derives the avatar animation state from conversation
// activity. It is a presentation-only state machine: it owns no timers,
// and resetting it has no effect on the message pipeline.
package pose
