// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

// =============================================================================
// CAPABILITY DESCRIPTOR
// =============================================================================

// Agent describes one backend agent and its client-side capabilities.
type Agent struct {
	ID   string
	Name string

	// Streaming agents use the token-streaming endpoint; the rest use the
	// single-shot chat endpoint.
	Streaming bool

	// HasBoard enables the chess game overlay.
	HasBoard bool

	// HasWorkspace enables the coding workspace panel (file tree,
	// suggestions).
	HasWorkspace bool

	// IsImage marks the image-generation agent for the painting pose.
	IsImage bool

	// HasMapData agents may embed geographic JSON in their responses.
	HasMapData bool
}

// =============================================================================
// REGISTRY
// =============================================================================

// roster is the fixed backend agent roster.
var roster = []Agent{
	{ID: "travel", Name: "Travel Agent", HasMapData: true},
	{ID: "realestate", Name: "Real Estate Agent", HasMapData: true},
	{ID: "news", Name: "News Agent", Streaming: true},
	{ID: "finance", Name: "Finance Agent", Streaming: true},
	{ID: "shopping", Name: "Shopping Agent"},
	{ID: "image", Name: "Image Agent", IsImage: true},
	{ID: "coding", Name: "Coding Agent", Streaming: true, HasWorkspace: true},
	{ID: "games", Name: "Games Agent", HasBoard: true},
}

var byID = func() map[string]Agent {
	m := make(map[string]Agent, len(roster))
	for _, a := range roster {
		m[a.ID] = a
	}
	return m
}()

// All returns the full roster in display order.
func All() []Agent {
	out := make([]Agent, len(roster))
	copy(out, roster)
	return out
}

// Lookup returns the descriptor for an agent id. Unknown ids get a
// non-streaming default so the client degrades to the plain chat path.
func Lookup(id string) Agent {
	if a, ok := byID[id]; ok {
		return a
	}
	return Agent{ID: id, Name: id}
}

// IsKnown reports whether the id is part of the roster.
func IsKnown(id string) bool {
	_, ok := byID[id]
	return ok
}
