// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agent defines the capability descriptors for the backend agent
// roster. Dispatch decisions that used to be scattered string comparisons
// (which agents stream, which get a chess board, which trigger the
// painting pose) are consolidated here and looked up once.
package agent
