// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// messages.go - Bubble Tea message types for the chat view.
package chat

import (
	"time"

	"github.com/yaredbooks/kidus-tui/internal/api"
	"github.com/yaredbooks/kidus-tui/internal/config"
)

// =============================================================================
// GATEWAY MESSAGES
// =============================================================================

// ReplyMsg delivers the outcome of a chat request. ConversationID names the
// conversation the request was issued for; the handler re-validates that it
// still exists before applying the reply.
type ReplyMsg struct {
	ConversationID string
	Reply          *api.Reply
	Err            error
}

// HealthMsg reports the backend's health-endpoint status.
type HealthMsg struct {
	Online bool
}

// healthTickMsg schedules the next periodic health probe.
type healthTickMsg struct {
	at time.Time
}

// =============================================================================
// UI STATE MESSAGES
// =============================================================================

// statusExpireMsg clears a transient status-bar message.
type statusExpireMsg struct {
	id int
}

// ConfigReloadedMsg carries a hot-reloaded configuration. Only the UI
// settings are applied live; service-level settings take effect on restart.
type ConfigReloadedMsg struct {
	Config *config.Config
}
