// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the command-line interface for kidus-tui: argument
// parsing, the one-shot ask command, the line-based chat REPL, history
// management, and status reporting.
//
// The TUI itself lives in internal/ui; this package covers everything that
// runs without the full-screen interface, including piped and scripted use.
package cli
