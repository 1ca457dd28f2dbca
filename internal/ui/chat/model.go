// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// model.go - State for the chat view.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/yaredbooks/kidus-tui/internal/analytics"
	"github.com/yaredbooks/kidus-tui/internal/api"
	"github.com/yaredbooks/kidus-tui/internal/history"
	"github.com/yaredbooks/kidus-tui/internal/ui/components"
	"github.com/yaredbooks/kidus-tui/internal/ui/styles"
)

// =============================================================================
// FOCUS AREAS
// =============================================================================

// focusArea marks which pane receives keyboard input.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// sidebarCollapseWidth is the terminal width below which the sidebar is
// hidden regardless of the user's toggle.
const sidebarCollapseWidth = 80

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Services (injected, never constructed here)
	history  *history.Store
	client   *api.Client
	recorder *analytics.Recorder

	// UI components
	viewport  viewport.Model
	input     textinput.Model
	thinking  components.Thinking
	statusBar *components.StatusBar
	markdown  *glamour.TermRenderer

	// Key bindings
	keyMap KeyMap

	// Sidebar state
	sidebarVisible bool
	sidebarWidth   int
	sidebarItems   []sidebarItem
	sidebarIndex   int
	focus          focusArea

	// Auto-follow: the transcript tracks the bottom until the user scrolls
	// up, and resumes when they return to the bottom.
	follow bool

	// In-flight request tracking. Only one send at a time; the ID names
	// the conversation the pending request belongs to.
	pendingConvID string

	// Transient status line
	statusMsg   string
	statusMsgID int

	// Rename state
	renaming     bool
	renameTarget string
	renameInput  textinput.Model

	// Delete confirmation state
	confirmDelete string

	// Help overlay
	showHelp bool

	// Backend reachability
	online bool
}

// New creates a new chat model over the injected services.
func New(theme *styles.Theme, hist *history.Store, client *api.Client, rec *analytics.Recorder, sidebarWidth int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask Kidus Yared..."
	ti.CharLimit = 4096
	ti.Focus()

	ri := textinput.New()
	ri.Prompt = "Rename: "
	ri.CharLimit = 120

	vp := viewport.New(80, 20)
	vp.SetContent("")

	if sidebarWidth <= 0 {
		sidebarWidth = 30
	}

	m := Model{
		theme:          theme,
		history:        hist,
		client:         client,
		recorder:       rec,
		viewport:       vp,
		input:          ti,
		renameInput:    ri,
		thinking:       components.NewThinking(theme),
		statusBar:      components.NewStatusBar(theme),
		keyMap:         DefaultKeyMap(),
		sidebarVisible: true,
		sidebarWidth:   sidebarWidth,
		follow:         true,
	}
	m.refreshSidebar()
	m.refreshTranscript()
	return m
}

// Init starts the health probe cycle.
func (m Model) Init() tea.Cmd {
	return tea.Batch(healthCmd(m.client), healthTickCmd(), textinput.Blink)
}

// =============================================================================
// STATE REFRESH HELPERS
// =============================================================================

// refreshSidebar rebuilds the sidebar rows from the store.
func (m *Model) refreshSidebar() {
	m.sidebarItems = buildSidebarItems(m.history.List(), time.Now())
	m.statusBar.ConversationCount = m.history.Len()

	if n := len(selectableIndices(m.sidebarItems)); m.sidebarIndex >= n {
		m.sidebarIndex = n - 1
	}
	if m.sidebarIndex < 0 {
		m.sidebarIndex = 0
	}
}

// refreshTranscript re-renders the active conversation into the viewport.
// Follows to the bottom only if the user has not scrolled away.
func (m *Model) refreshTranscript() {
	var content string
	if conv := m.history.Get(m.history.ActiveID()); conv != nil {
		content = renderTranscript(conv.Messages, m.theme, m.markdown)
	} else {
		content = renderTranscript(nil, m.theme, m.markdown)
	}
	m.viewport.SetContent(content)
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// selectedConvID returns the conversation under the sidebar cursor, or "".
func (m *Model) selectedConvID() string {
	selectable := selectableIndices(m.sidebarItems)
	if m.sidebarIndex < 0 || m.sidebarIndex >= len(selectable) {
		return ""
	}
	return m.sidebarItems[selectable[m.sidebarIndex]].convID
}

// setStatus shows a transient status-bar message.
func (m *Model) setStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusMsgID++
	return statusExpireCmd(m.statusMsgID)
}

// transcriptWidth returns the width available to the message pane.
func (m *Model) transcriptWidth() int {
	w := m.width
	if m.sidebarShown() {
		w -= m.sidebarWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// sidebarShown reports whether the sidebar is rendered at the current size.
func (m *Model) sidebarShown() bool {
	return m.sidebarVisible && m.width >= sidebarCollapseWidth
}

// mainHeight returns the height of the transcript/sidebar row.
func (m *Model) mainHeight() int {
	// Header, thinking line, input, status bar.
	h := m.height - 4
	if h < 5 {
		h = 5
	}
	return h
}
