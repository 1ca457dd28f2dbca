// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// thinking.go - Animated thinking indicator component.
package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yaredbooks/kidus-tui/internal/ui/styles"
)

// =============================================================================
// THINKING INDICATOR
// =============================================================================

// thinkingStage is one cosmetic status line shown while a reply is pending.
// Stages advance on elapsed time only; they say nothing about what the
// backend is actually doing.
type thinkingStage struct {
	after time.Duration
	text  string
}

// thinkingStages is the progression of status lines. The final stage holds
// until the reply arrives or the request fails.
var thinkingStages = []thinkingStage{
	{0, "Thinking"},
	{3 * time.Second, "Searching the teachings"},
	{8 * time.Second, "Gathering sources"},
	{15 * time.Second, "Preparing your answer"},
}

// Thinking is the loading indicator shown while a reply is pending: a
// spinner, a staged status line, and an elapsed-time readout.
type Thinking struct {
	spinner   spinner.Model
	theme     *styles.Theme
	startTime time.Time
	active    bool
}

// NewThinking creates a thinking indicator with ASCII-safe spinner frames.
func NewThinking(theme *styles.Theme) Thinking {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = theme.Spinner

	return Thinking{
		spinner: s,
		theme:   theme,
	}
}

// Start activates the indicator and returns the spinner tick command.
func (t *Thinking) Start() tea.Cmd {
	t.active = true
	t.startTime = time.Now()
	return t.spinner.Tick
}

// Stop deactivates the indicator.
func (t *Thinking) Stop() {
	t.active = false
}

// Active reports whether the indicator is running.
func (t *Thinking) Active() bool {
	return t.active
}

// Elapsed returns the duration since Start.
func (t *Thinking) Elapsed() time.Duration {
	if t.startTime.IsZero() {
		return 0
	}
	return time.Since(t.startTime)
}

// Update advances the spinner animation.
func (t Thinking) Update(msg tea.Msg) (Thinking, tea.Cmd) {
	if !t.active {
		return t, nil
	}
	var cmd tea.Cmd
	t.spinner, cmd = t.spinner.Update(msg)
	return t, cmd
}

// View renders the indicator line, or "" when inactive.
func (t Thinking) View() string {
	if !t.active {
		return ""
	}

	elapsed := t.Elapsed()
	line := fmt.Sprintf("%s %s%s",
		t.spinner.View(),
		t.theme.ThinkingText.Render(stageFor(elapsed)+"..."),
		t.theme.ThinkingTime.Render(fmt.Sprintf(" (%ds)", int(elapsed.Seconds()))),
	)
	return line
}

// stageFor picks the status line for the given elapsed time.
func stageFor(elapsed time.Duration) string {
	text := thinkingStages[0].text
	for _, stage := range thinkingStages {
		if elapsed >= stage.after {
			text = stage.text
		}
	}
	return text
}
