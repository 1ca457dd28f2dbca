// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/yaredbooks/kidus-tui/internal/config"
	"github.com/yaredbooks/kidus-tui/internal/model"
)

// =============================================================================
// PARSE
// =============================================================================

func TestParseDefaultsToTUI(t *testing.T) {
	cmd, _ := Parse(nil)
	if cmd != CmdTUI {
		t.Errorf("no args should default to TUI, got %v", cmd)
	}
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{[]string{"tui"}, CmdTUI},
		{[]string{"ask", "what", "is", "Timkat"}, CmdAsk},
		{[]string{"chat"}, CmdChat},
		{[]string{"history", "list"}, CmdHistory},
		{[]string{"conversations"}, CmdHistory},
		{[]string{"status"}, CmdStatus},
		{[]string{"s"}, CmdStatus},
		{[]string{"config", "show"}, CmdConfig},
		{[]string{"version"}, CmdVersion},
		{[]string{"--version"}, CmdVersion},
		{[]string{"help"}, CmdHelp},
		{[]string{"-h"}, CmdHelp},
	}
	for _, tt := range tests {
		cmd, _ := Parse(tt.argv)
		if cmd != tt.want {
			t.Errorf("Parse(%v) = %v, want %v", tt.argv, cmd, tt.want)
		}
	}
}

func TestParseAskJoinsQuery(t *testing.T) {
	_, args := Parse([]string{"ask", "what", "is", "the", "fast", "of", "Nineveh"})
	if args.Query != "what is the fast of Nineveh" {
		t.Errorf("query not joined: %q", args.Query)
	}
}

func TestParseBareQuestionBecomesAsk(t *testing.T) {
	cmd, args := Parse([]string{"who", "was", "Saint", "Yared"})
	if cmd != CmdAsk {
		t.Fatalf("bare words should become an ask, got %v", cmd)
	}
	if args.Query != "who was Saint Yared" {
		t.Errorf("query = %q", args.Query)
	}
}

func TestParseGlobalFlags(t *testing.T) {
	cmd, args := Parse([]string{"--json", "-q", "status"})
	if cmd != CmdStatus {
		t.Fatalf("got command %v", cmd)
	}
	if !args.JSON || !args.Quiet {
		t.Error("global flags not parsed before the command word")
	}
}

func TestParseAPIOverride(t *testing.T) {
	_, args := Parse([]string{"--api", "http://other:9000", "status"})
	if args.APIURL != "http://other:9000" {
		t.Errorf("--api value form: %q", args.APIURL)
	}

	_, args = Parse([]string{"--api=http://eq:9000", "status"})
	if args.APIURL != "http://eq:9000" {
		t.Errorf("--api equals form: %q", args.APIURL)
	}
}

func TestParseConfigSet(t *testing.T) {
	_, args := Parse([]string{"config", "set", "api.url", "http://gw:8080"})
	if args.Subcommand != "set" || args.ConfigKey != "api.url" || args.ConfigVal != "http://gw:8080" {
		t.Errorf("config set parse: %+v", args)
	}
}

// =============================================================================
// ARG PARSER
// =============================================================================

func TestArgParserFlags(t *testing.T) {
	p := NewArgParser([]string{"export", "abc123", "--format", "json", "--output=out.json", "--confirm"})

	if p.Subcommand() != "export" {
		t.Errorf("subcommand = %q", p.Subcommand())
	}
	if p.Positional(1) != "abc123" {
		t.Errorf("positional 1 = %q", p.Positional(1))
	}
	if p.Flag("format") != "json" {
		t.Errorf("space-separated flag = %q", p.Flag("format"))
	}
	if p.Flag("output") != "out.json" {
		t.Errorf("equals flag = %q", p.Flag("output"))
	}
	if !p.BoolFlag("confirm") {
		t.Error("bare flag should be boolean true")
	}
	if p.BoolFlag("missing") {
		t.Error("missing bool flag should be false")
	}
}

func TestArgParserDefaults(t *testing.T) {
	p := NewArgParser([]string{"show"})
	if got := p.FlagOrDefault("format", "txt"); got != "txt" {
		t.Errorf("FlagOrDefault = %q", got)
	}
	if got := p.FlagIntOrDefault("lines", 50); got != 50 {
		t.Errorf("FlagIntOrDefault = %d", got)
	}
}

func TestArgParserPositionalFrom(t *testing.T) {
	p := NewArgParser([]string{"search", "error", "in", "production"})
	got := strings.Join(p.PositionalFrom(1), " ")
	if got != "error in production" {
		t.Errorf("PositionalFrom = %q", got)
	}
}

// =============================================================================
// HISTORY HELPERS
// =============================================================================

func testConversation() *model.Conversation {
	conv := &model.Conversation{
		ID:        "11111111-2222-3333-4444-555555555555",
		Title:     "What is the fast of Nineveh?",
		CreatedAt: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
	}
	user := model.NewUserMessage("What is the fast of Nineveh?")
	reply := model.NewAssistantMessage("A three day fast recalling the repentance of Nineveh.", []model.Source{
		{Title: "On Fasting", URL: "https://example.org/fasting"},
	})
	conv.Messages = []*model.Message{user, reply}
	return conv
}

func TestFormatTranscriptText(t *testing.T) {
	out := formatTranscript(testConversation(), "txt")

	for _, want := range []string{
		"What is the fast of Nineveh?",
		"You:",
		"Kidus Yared:",
		"[1] On Fasting",
		"<https://example.org/fasting>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("transcript missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTranscriptMarkdown(t *testing.T) {
	out := formatTranscript(testConversation(), "md")
	if !strings.HasPrefix(out, "# What is the fast of Nineveh?") {
		t.Errorf("markdown transcript should start with a title heading:\n%s", out)
	}
	if !strings.Contains(out, "## Kidus Yared") {
		t.Errorf("markdown transcript missing role heading:\n%s", out)
	}
}

func TestConversationMatches(t *testing.T) {
	conv := testConversation()

	if !conversationMatches(conv, "nineveh") {
		t.Error("title match should be case-insensitive")
	}
	if !conversationMatches(conv, "repentance") {
		t.Error("message body should be searched")
	}
	if conversationMatches(conv, "epiphany") {
		t.Error("unrelated text should not match")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("11111111-2222"); got != "11111111" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("short input should pass through, got %q", got)
	}
}

// =============================================================================
// CONFIG KEYS
// =============================================================================

func TestApplyConfigKey(t *testing.T) {
	cfg := config.Default()

	if err := applyConfigKey(cfg, "api.url", "http://gw:9000"); err != nil {
		t.Fatalf("api.url: %v", err)
	}
	if cfg.API.URL != "http://gw:9000" {
		t.Errorf("api.url not applied: %q", cfg.API.URL)
	}

	if err := applyConfigKey(cfg, "ui.sidebar_width", "42"); err != nil {
		t.Fatalf("ui.sidebar_width: %v", err)
	}
	if cfg.UI.SidebarWidth != 42 {
		t.Errorf("sidebar width not applied: %d", cfg.UI.SidebarWidth)
	}

	if err := applyConfigKey(cfg, "analytics.enabled", "true"); err != nil {
		t.Fatalf("analytics.enabled: %v", err)
	}
	if !cfg.Analytics.Enabled {
		t.Error("analytics.enabled not applied")
	}

	if err := applyConfigKey(cfg, "ui.sidebar_width", "wide"); err == nil {
		t.Error("non-integer value should be rejected")
	}
	if err := applyConfigKey(cfg, "no.such.key", "x"); err == nil {
		t.Error("unknown key should be rejected")
	}
}
