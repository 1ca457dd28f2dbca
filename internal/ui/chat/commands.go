// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - Bubble Tea commands for gateway calls and timers.
package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yaredbooks/kidus-tui/internal/api"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// healthProbeInterval is how often the backend is re-probed.
const healthProbeInterval = 30 * time.Second

// sendCmd creates a command that submits a message through the gateway.
// The gateway owns the timeout; the command just reports the outcome.
func sendCmd(client *api.Client, conversationID, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := client.Send(context.Background(), text, conversationID)
		return ReplyMsg{
			ConversationID: conversationID,
			Reply:          reply,
			Err:            err,
		}
	}
}

// healthCmd creates a command that probes the backend health endpoint.
func healthCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return HealthMsg{Online: client.Health(ctx)}
	}
}

// healthTickCmd schedules the next periodic health probe.
func healthTickCmd() tea.Cmd {
	return tea.Tick(healthProbeInterval, func(t time.Time) tea.Msg {
		return healthTickMsg{at: t}
	})
}

// statusExpireCmd clears a transient status message after a short delay.
func statusExpireCmd(id int) tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return statusExpireMsg{id: id}
	})
}
