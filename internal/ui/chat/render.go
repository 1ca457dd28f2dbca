// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Transcript rendering for the chat view.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/yaredbooks/kidus-tui/internal/citation"
	"github.com/yaredbooks/kidus-tui/internal/model"
	"github.com/yaredbooks/kidus-tui/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// newMarkdownRenderer builds a glamour renderer sized to the transcript
// width. Returns nil on failure; rendering then falls back to plain text.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderTranscript renders a conversation's messages for the viewport.
func renderTranscript(msgs []*model.Message, theme *styles.Theme, md *glamour.TermRenderer) string {
	if len(msgs) == 0 {
		return theme.SourceMeta.Render("Ask about the faith, the saints, the fasts, or anything else.")
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(renderMessage(msg, theme, md))
	}
	return b.String()
}

// renderMessage renders one message: role header, body, and source list.
func renderMessage(msg *model.Message, theme *styles.Theme, md *glamour.TermRenderer) string {
	var b strings.Builder

	b.WriteString(theme.MessageRole.Render(msg.Role.DisplayName()))
	b.WriteString(" ")
	b.WriteString(theme.MessageTime.Render(msg.Timestamp.Format("15:04")))
	b.WriteString("\n")

	switch {
	case msg.IsError:
		b.WriteString(theme.ErrorBubble.Render(msg.Content))
	case msg.Role == model.RoleAssistant:
		b.WriteString(renderAssistantBody(msg, theme, md))
	default:
		b.WriteString(theme.UserBubble.Render(msg.Content))
	}

	return b.String()
}

// renderAssistantBody renders an assistant reply: markdown, then citation
// pills over the rendered output, then the source list.
func renderAssistantBody(msg *model.Message, theme *styles.Theme, md *glamour.TermRenderer) string {
	body := msg.Content
	if md != nil {
		if rendered, err := md.Render(body); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}

	body, _ = citation.RenderPills(body, theme.CitePill)

	var b strings.Builder
	b.WriteString(body)

	if len(msg.Sources) > 0 {
		b.WriteString("\n")
		b.WriteString(renderSources(msg.Sources, theme))
	}
	return b.String()
}

// renderSources renders the numbered source list under an assistant reply.
func renderSources(sources []model.Source, theme *styles.Theme) string {
	var b strings.Builder
	b.WriteString(theme.SourceMeta.Render("Sources:"))
	for i, src := range sources {
		b.WriteString("\n")
		line := fmt.Sprintf("  [%d] %s", i+1, src.DisplayTitle())
		if d := src.DisplayDomain(); d != "" && d != src.DisplayTitle() {
			line += " - " + d
		}
		b.WriteString(theme.SourceMeta.Render(line))
	}
	return b.String()
}
