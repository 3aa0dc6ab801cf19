// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the robots TUI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// PALETTE
// =============================================================================

// Teal - brand color, agent names, selections
var Teal = lipgloss.AdaptiveColor{Light: "#0D9488", Dark: "#2DD4BF"}

// Blue - user messages
var Blue = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}

// Violet - agent messages
var Violet = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Amber - system notices, warnings, countdowns
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Rose - errors, disconnected channels
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Emerald - connected channels, accepted suggestions
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Text colors
var (
	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
)

// Surfaces and borders
var (
	Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
	Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}
)

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// UserLabel styles the "You" prefix on user messages.
	UserLabel = lipgloss.NewStyle().Foreground(Blue).Bold(true)

	// AgentLabel styles the agent name prefix.
	AgentLabel = lipgloss.NewStyle().Foreground(Violet).Bold(true)

	// SystemText styles local system notices.
	SystemText = lipgloss.NewStyle().Foreground(Amber).Italic(true)

	// ErrorText styles error banners.
	ErrorText = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	// MutedText styles hints and timestamps.
	MutedText = lipgloss.NewStyle().Foreground(TextMuted)

	// StatusBar styles the bottom status line.
	StatusBar = lipgloss.NewStyle().Foreground(TextSecondary).
			BorderTop(true).BorderStyle(lipgloss.NormalBorder()).BorderForeground(Overlay)

	// InputBox frames the message textarea.
	InputBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).BorderForeground(Teal)

	// PickerTitle styles the agent picker header.
	PickerTitle = lipgloss.NewStyle().Foreground(Teal).Bold(true).Padding(0, 1)

	// BoardFrame surrounds the chess board overlay.
	BoardFrame = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).BorderForeground(Violet).Padding(0, 1)

	// SuggestionFrame surrounds the suggestion review modal.
	SuggestionFrame = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).BorderForeground(Amber).Padding(0, 1)
)

// Connectivity indicators for the status bar.
var (
	ConnectedDot    = lipgloss.NewStyle().Foreground(Emerald).Render("●")
	DisconnectedDot = lipgloss.NewStyle().Foreground(Rose).Render("●")
)

// =============================================================================
// TERMINAL PROFILE
// =============================================================================

// HasTrueColor reports whether the terminal supports 24-bit color; the
// highlight formatter keys off this.
func HasTrueColor() bool {
	return termenv.ColorProfile() == termenv.TrueColor
}

// IsDarkBackground reports the detected terminal background.
func IsDarkBackground() bool {
	return termenv.HasDarkBackground()
}
