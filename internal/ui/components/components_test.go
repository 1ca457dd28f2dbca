// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/yaredbooks/kidus-tui/internal/ui/styles"
)

func TestStageForProgression(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    string
	}{
		{0, "Thinking"},
		{2 * time.Second, "Thinking"},
		{3 * time.Second, "Searching the teachings"},
		{10 * time.Second, "Gathering sources"},
		{20 * time.Second, "Preparing your answer"},
		{5 * time.Minute, "Preparing your answer"},
	}
	for _, tt := range tests {
		if got := stageFor(tt.elapsed); got != tt.want {
			t.Errorf("stageFor(%v) = %q, want %q", tt.elapsed, got, tt.want)
		}
	}
}

func TestThinkingLifecycle(t *testing.T) {
	th := NewThinking(styles.NewTheme())
	if th.Active() {
		t.Error("new indicator should be inactive")
	}
	if th.View() != "" {
		t.Error("inactive indicator should render empty")
	}

	cmd := th.Start()
	if cmd == nil {
		t.Error("Start should return a tick command")
	}
	if !th.Active() {
		t.Error("indicator should be active after Start")
	}
	if !strings.Contains(th.View(), "Thinking") {
		t.Errorf("active view missing status line: %q", th.View())
	}

	th.Stop()
	if th.Active() {
		t.Error("indicator should be inactive after Stop")
	}
}

func TestStatusStrings(t *testing.T) {
	if StatusReady.String() != "Ready" {
		t.Errorf("StatusReady = %q", StatusReady.String())
	}
	if StatusThinking.String() != "Thinking..." {
		t.Errorf("StatusThinking = %q", StatusThinking.String())
	}
	if StatusError.Icon() != styles.StatusIndicators.Error {
		t.Errorf("StatusError icon = %q", StatusError.Icon())
	}
}

func TestStatusBarView(t *testing.T) {
	bar := NewStatusBar(styles.NewTheme())
	bar.SetWidth(100)
	bar.SetOnline(true)
	bar.ConversationCount = 3

	out := bar.View()
	if !strings.Contains(out, "online") {
		t.Errorf("status bar missing connection state: %q", out)
	}
	if !strings.Contains(out, "3 chats") {
		t.Errorf("status bar missing conversation count: %q", out)
	}

	// Narrow terminals drop the shortcut hints.
	bar.SetWidth(40)
	narrow := bar.View()
	if strings.Contains(narrow, "ctrl+n") {
		t.Errorf("narrow status bar should drop shortcuts: %q", narrow)
	}
}
