// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// The model wires the conversation store, the chat gateway, and the
// citation rewriter into a single Bubble Tea event loop: a viewport
// transcript that follows new messages unless the user has scrolled up, a
// sidebar of conversations grouped by recency, and a one-line composer.
// Network sends run as tea.Cmd goroutines; their replies re-validate that
// the target conversation still exists before touching the store, so a
// slow response cannot resurrect a deleted chat.
package chat
