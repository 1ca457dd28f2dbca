// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// view.go - Screen rendering for the chat view.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full chat screen.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderMain())
	b.WriteString("\n")
	b.WriteString(m.renderThinkingLine())
	b.WriteString("\n")
	b.WriteString(m.renderInputArea())
	b.WriteString("\n")
	b.WriteString(m.statusBar.View())

	if m.showHelp {
		return m.overlayHelp(b.String())
	}
	return b.String()
}

// renderHeader renders the title bar.
func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("Kidus Yared")
	subtitle := m.theme.HeaderSubtitle.Render("Ethiopian Orthodox Tewahedo teaching companion")
	return m.theme.Header.Width(m.width - 2).Render(title + "  " + subtitle)
}

// renderMain renders the sidebar and transcript row.
func (m Model) renderMain() string {
	transcript := m.viewport.View()
	if !m.sidebarShown() {
		return transcript
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), transcript)
}

// renderThinkingLine renders the spinner row, or a transient status message.
func (m Model) renderThinkingLine() string {
	if m.thinking.Active() {
		return m.thinking.View()
	}
	if m.statusMsg != "" {
		return m.theme.ThinkingText.Render(m.statusMsg)
	}
	return ""
}

// renderInputArea renders the composer, or the active modal prompt.
func (m Model) renderInputArea() string {
	switch {
	case m.renaming:
		return m.theme.InputContainer.Width(m.width).Render(m.renameInput.View())

	case m.confirmDelete != "":
		prompt := m.theme.DialogDanger.Render("Delete this conversation?") +
			" " + m.theme.SidebarItemMeta.Render("(y/n)")
		return m.theme.InputContainer.Width(m.width).Render(prompt)

	default:
		return m.theme.InputContainer.Width(m.width).Render(m.input.View())
	}
}

// helpRows lists every binding for the help overlay.
var helpRows = []struct{ key, desc string }{
	{"enter", "send message / select conversation"},
	{"tab", "switch between composer and sidebar"},
	{"up/down", "scroll transcript / move in sidebar"},
	{"pgup/pgdn", "scroll transcript by page"},
	{"ctrl+n", "start a new conversation"},
	{"ctrl+r", "regenerate the last reply"},
	{"ctrl+s", "toggle the sidebar"},
	{"f2", "rename the selected conversation"},
	{"ctrl+x", "delete the selected conversation"},
	{"ctrl+b", "restore the last deleted conversations"},
	{"ctrl+h", "toggle this help"},
	{"ctrl+c", "quit"},
}

// overlayHelp centers the help dialog over the screen.
func (m Model) overlayHelp(_ string) string {
	var b strings.Builder
	b.WriteString(m.theme.DialogTitle.Render("Keyboard shortcuts"))
	b.WriteString("\n\n")
	for _, row := range helpRows {
		b.WriteString(m.theme.ShortcutKey.Render(padKey(row.key)))
		b.WriteString("  ")
		b.WriteString(m.theme.ShortcutDesc.Render(row.desc))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.SidebarItemMeta.Render("Press ctrl+h to close"))

	dialog := m.theme.DialogBox.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}

// padKey left-pads the key column for alignment.
func padKey(key string) string {
	const width = 10
	if len(key) >= width {
		return key
	}
	return strings.Repeat(" ", width-len(key)) + key
}
