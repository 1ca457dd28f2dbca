// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// message.go - Message and Source records.
package model

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yaredbooks/kidus-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Kidus Yared"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
//
// Messages are immutable once created; "regenerate" removes the tail of a
// conversation rather than editing messages in place. Ordering within a
// conversation is by slice position, which is authoritative; never by ID
// or timestamp comparison.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Sources cited by an assistant reply, order significant (1-based
	// citation references resolve against this list).
	Sources []Source `json:"sources,omitempty"`

	// IsError marks a synthetic assistant message describing a failure.
	IsError bool `json:"is_error,omitempty"`

	// ModelUsed records which backend model produced an assistant reply.
	ModelUsed string `json:"model_used,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message with sources.
func NewAssistantMessage(content string, sources []Source) *Message {
	msg := NewMessage(RoleAssistant, content)
	msg.Sources = sources
	return msg
}

// NewErrorMessage creates a synthetic assistant message describing a failure.
// The conversation history around it stays intact; the flag only changes
// how the message is rendered.
func NewErrorMessage(content string) *Message {
	msg := NewMessage(RoleAssistant, content)
	msg.IsError = true
	return msg
}

// Preview returns a single-line truncated preview of the message content.
func (m *Message) Preview(maxLen int) string {
	return util.Truncate(util.CollapseLines(m.Content), maxLen)
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// =============================================================================
// SOURCE TYPE
// =============================================================================

// Source is a citation record attached to an assistant message. URL may be
// empty for internal knowledge-base material; Domain is derived from URL
// when the backend does not supply it.
type Source struct {
	ID      int    `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Domain  string `json:"domain,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// DisplayDomain returns the source's domain with any "www." prefix removed,
// deriving it from the URL if the domain field is empty.
func (s Source) DisplayDomain() string {
	domain := s.Domain
	if domain == "" && s.URL != "" {
		if u, err := url.Parse(s.URL); err == nil {
			domain = u.Hostname()
		}
	}
	return strings.TrimPrefix(strings.ToLower(domain), "www.")
}

// DisplayTitle returns the best available label for the source.
func (s Source) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	if d := s.DisplayDomain(); d != "" {
		return d
	}
	return "Knowledge base"
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateMessageID creates a unique message ID.
// UUIDs rather than timestamps: two sends in the same millisecond must not
// collide.
func generateMessageID() string {
	return "msg_" + uuid.NewString()
}
