// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// statusbar.go - Bottom status bar component.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yaredbooks/kidus-tui/internal/ui/styles"
	"github.com/yaredbooks/kidus-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusThinking
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusThinking:
		return "Thinking..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a shape indicator for the status.
// ACCESSIBILITY: Distinct shapes alongside colors for colorblind users.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusThinking:
		return styles.StatusIndicators.Active
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// StatusBar is the bottom status bar: connection state, conversation count,
// current status, and keyboard shortcuts.
type StatusBar struct {
	Status            Status
	Online            bool
	ConversationCount int
	Width             int
	ShowShortcuts     bool
	theme             *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status:        StatusReady,
		Online:        false,
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetOnline updates the connection indicator.
func (s *StatusBar) SetOnline(online bool) {
	s.Online = online
}

// SetStatus updates the current status.
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
}

// shortcuts shown on wide terminals.
var shortcuts = []struct{ key, desc string }{
	{"ctrl+n", "new"},
	{"ctrl+r", "regen"},
	{"ctrl+s", "sidebar"},
	{"ctrl+c", "quit"},
}

// View renders the status bar.
func (s *StatusBar) View() string {
	conn := s.theme.StatusOffline.Render("offline")
	if s.Online {
		conn = s.theme.StatusOnline.Render("online")
	}

	left := fmt.Sprintf("%s %s | %s | %d chats",
		s.Status.Icon(), s.Status.String(), conn, s.ConversationCount)

	right := ""
	if s.ShowShortcuts && s.Width >= 70 {
		var parts []string
		for _, sc := range shortcuts {
			parts = append(parts,
				s.theme.ShortcutKey.Render(sc.key)+" "+s.theme.ShortcutDesc.Render(sc.desc))
		}
		right = strings.Join(parts, "  ")
	}

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
		right = ""
	}

	return s.theme.StatusBar.Width(s.Width).Render(
		left + util.PadRight("", gap) + right)
}
