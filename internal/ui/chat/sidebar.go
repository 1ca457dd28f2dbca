// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sidebar.go - Conversation sidebar rendering and selection.
package chat

import (
	"strings"
	"time"

	"github.com/yaredbooks/kidus-tui/internal/model"
	"github.com/yaredbooks/kidus-tui/internal/util"
)

// =============================================================================
// SIDEBAR ITEMS
// =============================================================================

// sidebarItem is one rendered sidebar row: either a bucket heading or a
// selectable conversation entry.
type sidebarItem struct {
	heading bool
	label   string
	convID  string
}

// sidebarBucketOrder fixes the display order of recency buckets.
var sidebarBucketOrder = []model.Bucket{
	model.BucketToday,
	model.BucketWeek,
	model.BucketMonth,
	model.BucketOlder,
}

// buildSidebarItems flattens the conversation list into sidebar rows,
// grouped by recency bucket. Input ordering (most recent first) is
// preserved within each bucket; empty buckets are omitted.
func buildSidebarItems(convs []*model.Conversation, now time.Time) []sidebarItem {
	groups := model.GroupByBucket(convs, now)

	var items []sidebarItem
	for _, bucket := range sidebarBucketOrder {
		group := groups[bucket]
		if len(group) == 0 {
			continue
		}
		items = append(items, sidebarItem{heading: true, label: bucket.Label()})
		for _, conv := range group {
			items = append(items, sidebarItem{label: conv.Title, convID: conv.ID})
		}
	}
	return items
}

// selectableIndices returns the positions of conversation rows.
func selectableIndices(items []sidebarItem) []int {
	var out []int
	for i, it := range items {
		if !it.heading {
			out = append(out, i)
		}
	}
	return out
}

// =============================================================================
// SIDEBAR RENDERING
// =============================================================================

// renderSidebar renders the sidebar column. selected is an index into the
// selectable (non-heading) rows; activeID marks the open conversation.
func (m Model) renderSidebar() string {
	innerWidth := m.sidebarWidth - 4
	if innerWidth < 8 {
		innerWidth = 8
	}

	var b strings.Builder
	b.WriteString(m.theme.SidebarHeading.Render("Conversations"))
	b.WriteString("\n\n")

	if len(m.sidebarItems) == 0 {
		b.WriteString(m.theme.SidebarItemMeta.Render("No chats yet"))
	}

	selectable := selectableIndices(m.sidebarItems)
	selectedRow := -1
	if m.focus == focusSidebar && m.sidebarIndex >= 0 && m.sidebarIndex < len(selectable) {
		selectedRow = selectable[m.sidebarIndex]
	}

	for i, item := range m.sidebarItems {
		if item.heading {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(m.theme.SidebarBucket.Render(item.label))
			b.WriteString("\n")
			continue
		}

		label := util.TruncateWidth(item.label, innerWidth)
		marker := "  "
		if item.convID == m.history.ActiveID() {
			marker = "> "
		}

		style := m.theme.SidebarItem
		if i == selectedRow {
			style = m.theme.SidebarItemSelected
		}
		b.WriteString(style.Render(marker + label))
		b.WriteString("\n")
	}

	return m.theme.Sidebar.
		Width(m.sidebarWidth).
		Height(m.mainHeight()).
		Render(b.String())
}
