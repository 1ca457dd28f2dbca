// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the kidus-tui.
//
// Components here are self-contained Bubble Tea building blocks used by the
// chat model: the thinking indicator with its staged status lines, and the
// bottom status bar.
package components
