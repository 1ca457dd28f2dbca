// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNewConversation(t *testing.T) {
	conv := NewConversation("What is Timkat?")

	if !strings.HasPrefix(conv.ID, "conv_") {
		t.Errorf("ID should start with conv_, got %q", conv.ID)
	}
	if conv.Title != "What is Timkat?" {
		t.Errorf("Title = %q, want unmodified short text", conv.Title)
	}
	if conv.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if conv.Messages == nil || len(conv.Messages) != 0 {
		t.Error("Messages should be an empty non-nil slice")
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short passes through", "What is Timkat?", "What is Timkat?"},
		{"long truncated with ellipsis",
			strings.Repeat("a", 60),
			strings.Repeat("a", 47) + "..."},
		{"newlines collapsed", "first line\nsecond line", "first line second line"},
		{"blank falls back", "   \n  ", "New conversation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveTitle(tt.in)
			if got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if len([]rune(got)) > TitleMaxLen {
				t.Errorf("title longer than %d runes: %q", TitleMaxLen, got)
			}
		})
	}
}

func TestConversationIDsUnique(t *testing.T) {
	// Rapid-fire creation must never collide; this is the reason IDs are
	// UUIDs instead of timestamps.
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		c := NewConversation("x")
		if seen[c.ID] {
			t.Fatalf("duplicate conversation ID: %s", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestTruncateFrom(t *testing.T) {
	conv := NewConversation("q")
	m1 := NewUserMessage("one")
	m2 := NewAssistantMessage("two", nil)
	m3 := NewUserMessage("three")
	conv.AddMessage(m1)
	conv.AddMessage(m2)
	conv.AddMessage(m3)

	if !conv.TruncateFrom(m2.ID) {
		t.Fatal("TruncateFrom returned false for known ID")
	}
	if conv.MessageCount() != 1 || conv.Messages[0].ID != m1.ID {
		t.Errorf("expected only the first message to remain, have %d", conv.MessageCount())
	}

	if conv.TruncateFrom("msg_unknown") {
		t.Error("TruncateFrom should return false for unknown ID")
	}
}

func TestIsValid(t *testing.T) {
	valid := NewConversation("hello")
	if !valid.IsValid() {
		t.Error("fresh conversation should be valid")
	}

	cases := []*Conversation{
		nil,
		{Title: "t", Messages: []*Message{}},                    // no ID
		{ID: "conv_x", Messages: []*Message{}},                  // no title
		{ID: "conv_x", Title: "t"},                              // nil messages
		{ID: "conv_x", Title: "t", Messages: []*Message{nil}},   // nil entry
		{ID: "  ", Title: "t", Messages: []*Message{}},          // blank ID
	}
	for i, c := range cases {
		if c.IsValid() {
			t.Errorf("case %d should be invalid", i)
		}
	}
}

func TestClone(t *testing.T) {
	conv := NewConversation("q")
	conv.AddMessage(NewAssistantMessage("a", []Source{{Domain: "wikipedia.org"}}))

	clone := conv.Clone()
	clone.Messages[0].Content = "mutated"
	clone.Messages[0].Sources[0].Domain = "mutated.org"

	if conv.Messages[0].Content != "a" {
		t.Error("clone shares message memory with original")
	}
	if conv.Messages[0].Sources[0].Domain != "wikipedia.org" {
		t.Error("clone shares source memory with original")
	}
}

// =============================================================================
// SOURCE TESTS
// =============================================================================

func TestSourceDisplayDomain(t *testing.T) {
	tests := []struct {
		src  Source
		want string
	}{
		{Source{Domain: "www.wikipedia.org"}, "wikipedia.org"},
		{Source{Domain: "Ethiopianorthodox.org"}, "ethiopianorthodox.org"},
		{Source{URL: "https://www.britannica.com/topic/Timkat"}, "britannica.com"},
		{Source{}, ""},
	}
	for _, tt := range tests {
		if got := tt.src.DisplayDomain(); got != tt.want {
			t.Errorf("DisplayDomain(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

// =============================================================================
// RECENCY TESTS
// =============================================================================

func TestBucketFor(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		created time.Time
		want    Bucket
	}{
		{time.Date(2025, 6, 15, 0, 30, 0, 0, time.UTC), BucketToday},
		{time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC), BucketWeek},
		{time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC), BucketWeek},
		{time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), BucketMonth},
		{time.Date(2025, 5, 17, 12, 0, 0, 0, time.UTC), BucketMonth},
		{time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC), BucketOlder},
	}
	for _, tt := range tests {
		if got := BucketFor(tt.created, now); got != tt.want {
			t.Errorf("BucketFor(%v) = %v, want %v", tt.created, got.Label(), tt.want.Label())
		}
	}
}

func TestGroupByBucket(t *testing.T) {
	now := time.Now()
	today := NewConversation("a")
	old := NewConversation("b")
	old.CreatedAt = now.AddDate(0, -6, 0)

	groups := GroupByBucket([]*Conversation{today, old}, now)
	if len(groups[BucketToday]) != 1 || groups[BucketToday][0] != today {
		t.Error("today conversation not grouped under Today")
	}
	if len(groups[BucketOlder]) != 1 || groups[BucketOlder][0] != old {
		t.Error("old conversation not grouped under Older")
	}
}
