// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for kidus-tui.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation. A Watcher reloads the
// config file on change so a running TUI picks up edits without a restart.
//
// Configuration file locations (in order of precedence):
//   - ~/.kidus/config.toml
//   - ~/.kidus/config.json
//   - Built-in defaults
package config
