// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewThemeInitializesStyles(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme returned nil")
	}

	// Spot-check that styles render without panicking and carry content.
	out := theme.UserBubble.Render("hello")
	if !strings.Contains(out, "hello") {
		t.Errorf("UserBubble lost content: %q", out)
	}
	out = theme.SidebarItemSelected.Render("Timkat questions")
	if !strings.Contains(out, "Timkat questions") {
		t.Errorf("SidebarItemSelected lost content: %q", out)
	}
}

func TestSetSize(t *testing.T) {
	theme := NewTheme()
	theme.SetSize(120, 40)
	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("SetSize = %dx%d", theme.Width, theme.Height)
	}
}

func TestStatusRenderers(t *testing.T) {
	if !strings.Contains(RenderSuccess("saved"), "[OK]") {
		t.Error("RenderSuccess missing indicator")
	}
	if !strings.Contains(RenderError("failed"), "[X]") {
		t.Error("RenderError missing indicator")
	}
	if !strings.Contains(RenderStatus(false, "down"), "[X]") {
		t.Error("RenderStatus(false) should use error indicator")
	}
}
