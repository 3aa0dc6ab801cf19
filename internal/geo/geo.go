// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package geo

import (
	"encoding/json"
	"regexp"
	"strings"
)

// =============================================================================
// MAP DATA
// =============================================================================

// Point is a named coordinate.
type Point struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Route is a named coordinate path.
type Route struct {
	Name   string       `json:"name"`
	Coords [][2]float64 `json:"coords"`
}

// Polygon is a named closed coordinate ring.
type Polygon struct {
	Name   string       `json:"name"`
	Coords [][2]float64 `json:"coords"`
}

// MapData is the geographic payload an agent may embed in its reply.
type MapData struct {
	Points   []Point   `json:"points,omitempty"`
	Routes   []Route   `json:"routes,omitempty"`
	Polygons []Polygon `json:"polygons,omitempty"`
}

// IsEmpty reports whether the payload carries no entities.
func (m *MapData) IsEmpty() bool {
	return m == nil || (len(m.Points) == 0 && len(m.Routes) == 0 && len(m.Polygons) == 0)
}

// =============================================================================
// PARSING
// =============================================================================

// envelope is the wire shape: {"map_data": {...}}.
type envelope struct {
	MapData *MapData `json:"map_data"`
}

// fencedJSON matches a ```json ... ``` block anywhere in the text.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseMapData extracts an embedded map_data JSON payload from agent text.
// Returns the payload (nil when absent or malformed) and the display text
// with the JSON block removed. Malformed JSON leaves the text untouched.
func ParseMapData(text string) (*MapData, string) {
	// Fenced block first.
	if m := fencedJSON.FindStringSubmatchIndex(text); m != nil {
		payload := text[m[2]:m[3]]
		if data := decode(payload); data != nil {
			cleaned := text[:m[0]] + text[m[1]:]
			return data, strings.TrimSpace(cleaned)
		}
	}

	// Bare {"map_data": ...} object: locate the key and bracket-match the
	// enclosing object.
	keyIdx := strings.Index(text, `"map_data"`)
	if keyIdx < 0 {
		return nil, text
	}
	start := strings.LastIndex(text[:keyIdx], "{")
	if start < 0 {
		return nil, text
	}
	end := matchBrace(text, start)
	if end < 0 {
		return nil, text
	}
	if data := decode(text[start : end+1]); data != nil {
		cleaned := text[:start] + text[end+1:]
		return data, strings.TrimSpace(cleaned)
	}
	return nil, text
}

// decode unmarshals one candidate JSON object; nil when it is not a
// well-formed non-empty map_data envelope.
func decode(payload string) *MapData {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil
	}
	if env.MapData.IsEmpty() {
		return nil
	}
	return env.MapData
}

// matchBrace returns the index of the brace closing the one at start, or
// -1 when unbalanced. String-aware so braces inside values don't count.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
