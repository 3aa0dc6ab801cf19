// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/robotsdev/robots-tui/internal/ui/styles"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// mdRenderer wraps a glamour renderer that is rebuilt when the wrap width
// changes. Agent markdown goes through it; user and system text does not.
type mdRenderer struct {
	mu       sync.Mutex
	width    int
	renderer *glamour.TermRenderer
}

func newMDRenderer() *mdRenderer {
	return &mdRenderer{}
}

// Render renders agent markdown at the given wrap width, falling back to
// the raw text when glamour fails.
func (m *mdRenderer) Render(text string, width int) string {
	if width < 20 {
		width = 20
	}

	m.mu.Lock()
	if m.renderer == nil || m.width != width {
		style := "light"
		if styles.IsDarkBackground() {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			m.mu.Unlock()
			return text
		}
		m.renderer = r
		m.width = width
	}
	renderer := m.renderer
	m.mu.Unlock()

	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
