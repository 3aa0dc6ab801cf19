// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline drives one chat turn end to end: validation, file
// attachment composition, persistence, dispatch to the streaming or
// single-shot backend path, response classification, and the error banners
// that keep the transcript self-describing. UI concerns are injected as
// callbacks at call time.
package pipeline
