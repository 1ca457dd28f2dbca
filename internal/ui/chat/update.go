// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// update.go - Event handling and key dispatch for the chat view.
package chat

import (
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yaredbooks/kidus-tui/internal/api"
	"github.com/yaredbooks/kidus-tui/internal/citation"
	"github.com/yaredbooks/kidus-tui/internal/model"
	"github.com/yaredbooks/kidus-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ReplyMsg:
		return m.handleReply(msg)

	case HealthMsg:
		m.online = msg.Online
		m.statusBar.SetOnline(msg.Online)
		return m, nil

	case healthTickMsg:
		return m, tea.Batch(healthCmd(m.client), healthTickCmd())

	case statusExpireMsg:
		if msg.id == m.statusMsgID {
			m.statusMsg = ""
		}
		return m, nil

	case ConfigReloadedMsg:
		if w := msg.Config.UI.SidebarWidth; w > 0 {
			m.sidebarWidth = w
		}
		m.viewport.Width = m.transcriptWidth()
		m.markdown = newMarkdownRenderer(m.transcriptWidth() - 2)
		m.refreshTranscript()
		return m, m.setStatus("Configuration reloaded")
	}

	// Everything else feeds the animations.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.thinking, cmd = m.thinking.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleResize recomputes the layout for a new terminal size.
func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.statusBar.SetWidth(msg.Width)

	m.viewport.Width = m.transcriptWidth()
	m.viewport.Height = m.mainHeight()
	m.input.Width = msg.Width - 6

	// Word wrap follows the transcript width.
	m.markdown = newMarkdownRenderer(m.transcriptWidth() - 2)
	m.refreshTranscript()
	return m
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleKey dispatches a key press by mode and focus.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Modal states eat all keys first.
	if m.renaming {
		return m.handleRenameKey(msg)
	}
	if m.confirmDelete != "" {
		return m.handleConfirmDeleteKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keyMap.ToggleSidebar):
		m.sidebarVisible = !m.sidebarVisible
		if !m.sidebarShown() {
			m.focus = focusInput
		}
		m.viewport.Width = m.transcriptWidth()
		m.markdown = newMarkdownRenderer(m.transcriptWidth() - 2)
		m.refreshTranscript()
		return m, nil

	case key.Matches(msg, m.keyMap.FocusCycle):
		if m.sidebarShown() {
			if m.focus == focusInput {
				m.focus = focusSidebar
				m.input.Blur()
			} else {
				m.focus = focusInput
				m.input.Focus()
			}
		}
		return m, nil

	case key.Matches(msg, m.keyMap.NewChat):
		m.history.ClearActive()
		m.input.Reset()
		m.input.Focus()
		m.focus = focusInput
		m.follow = true
		m.refreshSidebar()
		m.refreshTranscript()
		return m, nil

	case key.Matches(msg, m.keyMap.Regenerate):
		return m.handleRegenerate()

	case key.Matches(msg, m.keyMap.Restore):
		if err := m.history.RestoreBackup(); err != nil {
			return m, m.setStatus("Nothing to restore")
		}
		m.follow = true
		m.refreshSidebar()
		m.refreshTranscript()
		return m, m.setStatus("Restored deleted conversations")
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

// handleInputKey handles keys while the composer has focus.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keyMap.Up), key.Matches(msg, m.keyMap.Down),
		key.Matches(msg, m.keyMap.PageUp), key.Matches(msg, m.keyMap.PageDown),
		key.Matches(msg, m.keyMap.Home), key.Matches(msg, m.keyMap.End):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.follow = m.viewport.AtBottom()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSidebarKey handles keys while the sidebar has focus.
func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	selectable := selectableIndices(m.sidebarItems)

	switch {
	case key.Matches(msg, m.keyMap.Up):
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		if m.sidebarIndex < len(selectable)-1 {
			m.sidebarIndex++
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		if id := m.selectedConvID(); id != "" {
			m.history.Select(id)
			m.focus = focusInput
			m.input.Focus()
			m.follow = true
			m.refreshTranscript()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Rename):
		if id := m.selectedConvID(); id != "" {
			if conv := m.history.Get(id); conv != nil {
				m.renaming = true
				m.renameTarget = id
				m.renameInput.SetValue(conv.Title)
				m.renameInput.Focus()
			}
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Delete):
		if id := m.selectedConvID(); id != "" {
			m.confirmDelete = id
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Cancel):
		m.focus = focusInput
		m.input.Focus()
		return m, nil
	}
	return m, nil
}

// handleRenameKey handles the rename prompt.
func (m Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Submit):
		title := strings.TrimSpace(m.renameInput.Value())
		m.renaming = false
		m.renameInput.Blur()
		if err := m.history.Rename(m.renameTarget, title); err != nil {
			return m, m.setStatus("Title cannot be blank")
		}
		m.refreshSidebar()
		return m, nil

	case key.Matches(msg, m.keyMap.Cancel):
		m.renaming = false
		m.renameInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.renameInput, cmd = m.renameInput.Update(msg)
	return m, cmd
}

// handleConfirmDeleteKey handles the delete confirmation prompt.
func (m Model) handleConfirmDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target := m.confirmDelete
	m.confirmDelete = ""

	if msg.String() == "y" || msg.String() == "Y" {
		m.history.Delete(target)
		m.recorder.Record("conversation_deleted", nil)
		m.refreshSidebar()
		m.refreshTranscript()
		return m, m.setStatus("Deleted. Press C-b to restore.")
	}
	return m, nil
}

// =============================================================================
// SEND / REPLY
// =============================================================================

// handleSubmit sends the composer content to the gateway.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.pendingConvID != "" {
		return m, m.setStatus("Still waiting for the last reply")
	}

	convID := m.history.ActiveID()
	if convID == "" {
		convID = m.history.Create(text).ID
	}
	m.history.Append(convID, model.NewUserMessage(text))
	m.recorder.Record("message_sent", map[string]string{
		"detailed": boolLabel(api.NeedsDetailed(text)),
	})

	m.input.Reset()
	m.follow = true
	m.pendingConvID = convID
	m.statusBar.SetStatus(components.StatusThinking)
	m.refreshSidebar()
	m.refreshTranscript()

	return m, tea.Batch(m.thinking.Start(), sendCmd(m.client, convID, text))
}

// handleRegenerate re-requests the reply to the last user message, splicing
// out the conversation tail from the regenerated point.
func (m Model) handleRegenerate() (tea.Model, tea.Cmd) {
	if m.pendingConvID != "" {
		return m, m.setStatus("Still waiting for the last reply")
	}
	convID := m.history.ActiveID()
	conv := m.history.Get(convID)
	if conv == nil {
		return m, m.setStatus("No active conversation")
	}
	lastUser := conv.LastUserMessage()
	if lastUser == nil {
		return m, m.setStatus("Nothing to regenerate")
	}

	// Drop everything after the last user message before re-asking.
	for i, msg := range conv.Messages {
		if msg.ID == lastUser.ID {
			if i+1 < len(conv.Messages) {
				m.history.TruncateFrom(convID, conv.Messages[i+1].ID)
			}
			break
		}
	}
	m.recorder.Record("reply_regenerated", nil)

	m.follow = true
	m.pendingConvID = convID
	m.statusBar.SetStatus(components.StatusThinking)
	m.refreshTranscript()

	return m, tea.Batch(m.thinking.Start(), sendCmd(m.client, convID, lastUser.Content))
}

// handleReply applies a gateway response to the conversation it was issued
// for. A reply for a conversation that no longer exists is dropped.
func (m Model) handleReply(msg ReplyMsg) (tea.Model, tea.Cmd) {
	if msg.ConversationID == m.pendingConvID {
		m.pendingConvID = ""
	}
	m.thinking.Stop()
	m.statusBar.SetStatus(components.StatusReady)

	if !m.history.Exists(msg.ConversationID) {
		log.Printf("chat: reply for deleted conversation %s dropped", msg.ConversationID)
		return m, nil
	}

	if msg.Err != nil {
		m.history.Append(msg.ConversationID, model.NewErrorMessage(api.UserMessage(msg.Err)))
		m.statusBar.SetStatus(components.StatusError)
	} else {
		text := citation.Rewrite(msg.Reply.Text, msg.Reply.Sources)
		reply := model.NewAssistantMessage(text, msg.Reply.Sources)
		reply.ModelUsed = msg.Reply.ModelUsed
		m.history.Append(msg.ConversationID, reply)
		m.recorder.Record("reply_received", map[string]string{"model": msg.Reply.ModelUsed})
	}

	m.refreshSidebar()
	m.refreshTranscript()
	return m, nil
}

// boolLabel renders a bool for analytics fields.
func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
