// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package citation

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// PILL RENDERING
// =============================================================================

// Cite is one parsed [CITE:index:label] token.
type Cite struct {
	Index int    // zero-based index into the message's source list
	Label string // display text for the pill
}

// RenderPills replaces [CITE:index:label] tokens in text with the label
// rendered through the given style, returning the display string and the
// cites in order of appearance. Tokens with malformed bodies are left
// verbatim, matching the leave-unresolvable-text-alone policy of Rewrite.
func RenderPills(text string, style lipgloss.Style) (string, []Cite) {
	var cites []Cite
	var out strings.Builder
	out.Grow(len(text))

	for i := 0; i < len(text); {
		start := strings.Index(text[i:], "[CITE:")
		if start < 0 {
			out.WriteString(text[i:])
			break
		}
		out.WriteString(text[i : i+start])
		i += start

		end := strings.IndexByte(text[i:], ']')
		if end < 0 {
			out.WriteString(text[i:])
			break
		}

		body := text[i+len("[CITE:") : i+end]
		idx, label, ok := parseCiteBody(body)
		if !ok {
			out.WriteString(text[i : i+end+1])
		} else {
			out.WriteString(style.Render(label))
			cites = append(cites, Cite{Index: idx, Label: label})
		}
		i += end + 1
	}

	return out.String(), cites
}

// StripTokens replaces [CITE:index:label] tokens with plain [label] text,
// for markdown export and plain-terminal output where styling is
// unavailable.
func StripTokens(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	for i := 0; i < len(text); {
		start := strings.Index(text[i:], "[CITE:")
		if start < 0 {
			out.WriteString(text[i:])
			break
		}
		out.WriteString(text[i : i+start])
		i += start

		end := strings.IndexByte(text[i:], ']')
		if end < 0 {
			out.WriteString(text[i:])
			break
		}
		body := text[i+len("[CITE:") : i+end]
		if _, label, ok := parseCiteBody(body); ok {
			out.WriteString("[" + label + "]")
		} else {
			out.WriteString(text[i : i+end+1])
		}
		i += end + 1
	}

	return out.String()
}

func parseCiteBody(body string) (int, string, bool) {
	colon := strings.IndexByte(body, ':')
	if colon <= 0 || colon == len(body)-1 {
		return 0, "", false
	}
	idx, err := strconv.Atoi(body[:colon])
	if err != nil || idx < 0 {
		return 0, "", false
	}
	return idx, body[colon+1:], true
}
