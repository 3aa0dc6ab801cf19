// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chess

import (
	"encoding/json"
	"regexp"
	"strings"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult is the outcome of inspecting agent text for a board position.
type ParseResult struct {
	FEN               string
	IsChessResponse   bool
	ShouldUpdateBoard bool
	DisplayText       string
}

// movePrefix gates natural-language extraction; it avoids false positives
// on unrelated agent text.
const movePrefix = "I've made the move"

// positionMarker introduces the FEN clause inside a move announcement.
const positionMarker = "position is "

// FEN field patterns. The placement field is eight rank groups; the
// shorter fallbacks stop after side-to-move or castling/en-passant, with
// the missing trailing fields padded by chess-standard defaults. The
// side-to-move field is never invented.
var (
	fenSix = regexp.MustCompile(
		`([rnbqkpRNBQKP1-8]+(?:/[rnbqkpRNBQKP1-8]+){7})\s+([wb])\s+([KQkq]{1,4}|-)\s+([a-h][36]|-)\s+(\d+)\s+(\d+)`)
	fenFour = regexp.MustCompile(
		`([rnbqkpRNBQKP1-8]+(?:/[rnbqkpRNBQKP1-8]+){7})\s+([wb])\s+([KQkq]{1,4}|-)\s+([a-h][36]|-)`)
	fenTwo = regexp.MustCompile(
		`([rnbqkpRNBQKP1-8]+(?:/[rnbqkpRNBQKP1-8]+){7})\s+([wb])`)
)

// jsonFence strips a ```json ... ``` fence around a structured reply.
var jsonFence = regexp.MustCompile("(?s)^\\s*```(?:json)?\\s*(.*?)\\s*```\\s*$")

// =============================================================================
// PARSE
// =============================================================================

// Parse extracts a board position and display text from agent text.
// Pure function; returns a zero result when the text is not a chess
// response or isChessAgent is false.
func Parse(text string, isChessAgent bool) ParseResult {
	if !isChessAgent {
		return ParseResult{}
	}

	// Structured replies win: a JSON object with a fen field, possibly
	// wrapped in a code fence.
	if result, ok := parseStructured(text); ok {
		return result
	}

	// Natural-language extraction is gated on the move announcement.
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, movePrefix) {
		return ParseResult{}
	}

	idx := strings.Index(trimmed, positionMarker)
	if idx < 0 {
		return ParseResult{}
	}
	tail := trimmed[idx+len(positionMarker):]

	fen, matched := extractFEN(tail)
	if fen == "" {
		return ParseResult{}
	}

	// Strip the matched "position is ..." clause, longest-first so no
	// partial leftovers survive.
	display := strings.Replace(trimmed, positionMarker+matched, "", 1)
	display = strings.Join(strings.Fields(display), " ")

	return ParseResult{
		FEN:               fen,
		IsChessResponse:   true,
		ShouldUpdateBoard: true,
		DisplayText:       display,
	}
}

// parseStructured handles a strict-JSON reply carrying a fen field.
func parseStructured(text string) (ParseResult, bool) {
	candidate := strings.TrimSpace(text)
	if m := jsonFence.FindStringSubmatch(candidate); m != nil {
		candidate = m[1]
	}
	if !strings.HasPrefix(candidate, "{") {
		return ParseResult{}, false
	}

	var payload struct {
		FEN         string `json:"fen"`
		DisplayText string `json:"display_text"`
	}
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil || payload.FEN == "" {
		return ParseResult{}, false
	}

	display := payload.DisplayText
	if display == "" {
		display = "I've made my move."
	}
	return ParseResult{
		FEN:               NormalizeFEN(payload.FEN),
		IsChessResponse:   true,
		ShouldUpdateBoard: true,
		DisplayText:       display,
	}, true
}

// extractFEN returns the normalized 6-field FEN and the raw matched clause,
// preferring the most complete match.
func extractFEN(tail string) (fen, matched string) {
	if m := fenSix.FindString(tail); m != "" {
		return NormalizeFEN(m), m
	}
	if m := fenFour.FindString(tail); m != "" {
		return NormalizeFEN(m), m
	}
	if m := fenTwo.FindString(tail); m != "" {
		return NormalizeFEN(m), m
	}
	return "", ""
}

// NormalizeFEN pads a partial FEN out to the full 6 fields. Only trailing
// fields after side-to-move are defaulted: castling "-", en-passant "-",
// half-move "0", full-move "1". Inputs with fewer than 2 fields are
// returned unchanged.
func NormalizeFEN(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return fen
	}
	defaults := []string{"-", "-", "0", "1"}
	for len(fields) < 6 {
		fields = append(fields, defaults[len(fields)-2])
	}
	return strings.Join(fields[:6], " ")
}
