// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat conversations, messages, and citation sources.
//
// # Key Types
//
//   - Conversation: Titled, ordered sequence of messages with its own identity
//   - Message: Single message with role, content, timestamp, and optional sources
//   - Source: Citation record (title, url, domain, snippet) owned by a message
//   - Role: Message role enumeration (user, assistant)
//   - Bucket: Recency grouping for the sidebar (today / 7 days / 30 days / older)
//
// # Usage
//
// Create a new conversation from the first user message:
//
//	conv := model.NewConversation("What is Timkat?")
//	conv.AddMessage(model.NewUserMessage("What is Timkat?"))
package model
