// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the kidus-tui.
//
// The palette takes its accents from the Ethiopian flag (green, yellow,
// red) over neutral dark/light surfaces. All colors use Lip Gloss
// AdaptiveColor so light and dark terminals both get readable output, and
// the theme detects the terminal's color capability through termenv.
package styles
