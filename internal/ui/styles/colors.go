// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// colors.go - Color palette definitions.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PRIMARY ACCENT COLORS
// =============================================================================

// Green - Primary accent, assistant identity, success states
var Green = lipgloss.AdaptiveColor{Light: "#078930", Dark: "#34D399"}

// GreenDeep - Darker green for backgrounds
var GreenDeep = lipgloss.AdaptiveColor{Light: "#046A26", Dark: "#064E3B"}

// Gold - Brand highlight, selections, active elements
var Gold = lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FCDD09"}

// GoldDeep - Darker gold for backgrounds
var GoldDeep = lipgloss.AdaptiveColor{Light: "#92400E", Dark: "#78350F"}

// Red - Errors, destructive actions
var Red = lipgloss.AdaptiveColor{Light: "#DA121A", Dark: "#FB7185"}

// RedDeep - Darker red for backgrounds
var RedDeep = lipgloss.AdaptiveColor{Light: "#A50E14", Dark: "#881337"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// Surface - Main background
var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// SurfaceDim - Slightly darker/lighter surface for headers/footers
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// Overlay - Borders, separators, subtle backgrounds
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels, less prominent text
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints, timestamps, very subtle text
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// TextInverse - Text on colored backgrounds
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// =============================================================================
// MESSAGE BUBBLE COLORS
// =============================================================================

// User message bubble - Blue tones
var UserBubbleBg = lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1D4ED8"}
var UserBubbleFg = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
var UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}

// Assistant message bubble - Soft green tones
var AssistantBubbleBg = lipgloss.AdaptiveColor{Light: "#ECFDF5", Dark: "#1C3A2E"}
var AssistantBubbleFg = lipgloss.AdaptiveColor{Light: "#065F46", Dark: "#D1FAE5"}
var AssistantBubbleBorder = lipgloss.AdaptiveColor{Light: "#6EE7B7", Dark: "#34D399"}

// Error message bubble - Red tones
var ErrorBubbleBg = lipgloss.AdaptiveColor{Light: "#FEE2E2", Dark: "#3B1A22"}
var ErrorBubbleFg = lipgloss.AdaptiveColor{Light: "#991B1B", Dark: "#FECACA"}
var ErrorBubbleBorder = Red

// =============================================================================
// CITATION PILL COLORS
// =============================================================================

var CitePillBg = lipgloss.AdaptiveColor{Light: "#FEF9C3", Dark: "#3A3520"}
var CitePillFg = lipgloss.AdaptiveColor{Light: "#854D0E", Dark: "#FCDD09"}

// Selection highlight
var SelectionBg = lipgloss.AdaptiveColor{Light: "#D1FAE5", Dark: "#1E3A2F"}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicatorSet contains text/shape indicators for status states.
// These symbols provide visual cues beyond color for colorblind accessibility.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
	Active  string
}

// StatusIndicators provides accessible shape/text indicators alongside colors.
// ACCESSIBILITY: ASCII-only indicators for maximum compatibility.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Active:  "[*]",
}

// RenderSuccess renders a success message with indicator and green accent.
func RenderSuccess(message string) string {
	style := lipgloss.NewStyle().
		Foreground(Green).
		Bold(true)
	return style.Render(StatusIndicators.Success + " " + message)
}

// RenderError renders an error message with indicator and red accent.
func RenderError(message string) string {
	style := lipgloss.NewStyle().
		Foreground(Red).
		Bold(true)
	return style.Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders a warning message with indicator and gold accent.
func RenderWarning(message string) string {
	style := lipgloss.NewStyle().
		Foreground(Gold).
		Bold(true)
	return style.Render(StatusIndicators.Warning + " " + message)
}

// RenderStatus renders a status message based on success/failure.
func RenderStatus(success bool, message string) string {
	if success {
		return RenderSuccess(message)
	}
	return RenderError(message)
}
