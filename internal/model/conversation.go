// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// conversation.go - Conversation record and derived accessors.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yaredbooks/kidus-tui/internal/util"
)

// TitleMaxLen is the maximum length of an auto-derived conversation title.
const TitleMaxLen = 50

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a titled, ordered sequence of messages with its own
// identity. The backend session binding lives in the session package, keyed
// by the conversation ID.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages, insertion order chronological and authoritative.
	Messages []*Message `json:"messages"`
}

// NewConversation creates a conversation titled from its first user message.
func NewConversation(firstMessageText string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        generateConversationID(),
		Title:     DeriveTitle(firstMessageText),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// DeriveTitle builds a display title from the first user message: collapsed
// to one line and truncated to TitleMaxLen runes with an ellipsis.
func DeriveTitle(text string) string {
	title := util.Truncate(util.CollapseLines(text), TitleMaxLen)
	if title == "" {
		return "New conversation"
	}
	return title
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// LastUserMessage returns the most recent user message, or nil.
func (c *Conversation) LastUserMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i]
		}
	}
	return nil
}

// TruncateFrom removes the message with the given ID and everything after
// it. Used by regenerate: the tail from the regenerated point is spliced
// out before the request is re-issued. Returns false if the ID is unknown.
func (c *Conversation) TruncateFrom(messageID string) bool {
	for i, msg := range c.Messages {
		if msg.ID == messageID {
			c.Messages = c.Messages[:i]
			c.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// INTEGRITY
// =============================================================================

// IsValid reports whether the record is structurally sound. Records missing
// an ID, a title, or a message list are treated as corrupt (partially
// written or hand-edited storage) and filtered by the integrity sweep.
func (c *Conversation) IsValid() bool {
	if c == nil {
		return false
	}
	if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.Title) == "" {
		return false
	}
	if c.Messages == nil {
		return false
	}
	for _, msg := range c.Messages {
		if msg == nil {
			return false
		}
	}
	return true
}

// =============================================================================
// SERIALIZATION HELPERS
// =============================================================================

// Preview returns a short preview of the conversation.
func (c *Conversation) Preview() string {
	if len(c.Messages) == 0 {
		return "Empty conversation"
	}
	last := c.LastUserMessage()
	if last == nil {
		last = c.Messages[0]
	}
	return last.Preview(100)
}

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := &Conversation{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  make([]*Message, len(c.Messages)),
	}
	for i, msg := range c.Messages {
		msgCopy := *msg
		if msg.Sources != nil {
			msgCopy.Sources = append([]Source(nil), msg.Sources...)
		}
		clone.Messages[i] = &msgCopy
	}
	return clone
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateConversationID creates a unique conversation ID.
func generateConversationID() string {
	return "conv_" + uuid.NewString()
}
