// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the opaque backend session token bound to each
// conversation, preserving multi-turn context with the completion API.
package session

import (
	"log"
	"strings"
	"sync"

	"github.com/yaredbooks/kidus-tui/internal/storage"
)

// =============================================================================
// SESSION MAP
// =============================================================================

// Map binds conversation IDs to backend session tokens. A conversation
// either has no entry (fresh) or exactly one non-empty token; blank tokens
// found in storage are corrupt and pruned on load.
//
// The map is mirrored to storage on every mutation - tokens are cheap to
// write and losing one silently resets a conversation's server-side memory.
type Map struct {
	mu     sync.Mutex
	tokens map[string]string
	store  *storage.Store
}

// NewMap creates a session map backed by the given store, loading and
// validating any persisted bindings.
func NewMap(store *storage.Store) *Map {
	m := &Map{
		tokens: make(map[string]string),
		store:  store,
	}
	m.load()
	return m
}

// Get returns the session token for a conversation, or "" if fresh.
func (m *Map) Get(conversationID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[conversationID]
}

// Set binds a token to a conversation and persists the map.
// Blank tokens are ignored rather than stored.
func (m *Map) Set(conversationID, token string) {
	if strings.TrimSpace(token) == "" || conversationID == "" {
		return
	}
	m.mu.Lock()
	m.tokens[conversationID] = token
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.persist(snapshot)
}

// Clear discards the binding for a conversation, if any.
func (m *Map) Clear(conversationID string) {
	m.mu.Lock()
	_, had := m.tokens[conversationID]
	delete(m.tokens, conversationID)
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	if had {
		m.persist(snapshot)
	}
}

// ClearAll discards every binding.
func (m *Map) ClearAll() {
	m.mu.Lock()
	m.tokens = make(map[string]string)
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.persist(snapshot)
}

// Len returns the number of bindings.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// load reads persisted bindings, dropping entries with blank tokens.
func (m *Map) load() {
	var stored map[string]string
	if err := m.store.Load(storage.KeySessions, &stored); err != nil {
		return
	}

	pruned := 0
	for id, token := range stored {
		if strings.TrimSpace(token) == "" {
			pruned++
			continue
		}
		m.tokens[id] = token
	}

	if pruned > 0 {
		log.Printf("session: pruned %d corrupt session bindings", pruned)
		m.persist(m.snapshot())
	}
}

func (m *Map) snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// snapshotLocked copies the map while m.mu is held, so the flush always
// serializes the state at mutation time.
func (m *Map) snapshotLocked() map[string]string {
	out := make(map[string]string, len(m.tokens))
	for k, v := range m.tokens {
		out[k] = v
	}
	return out
}

func (m *Map) persist(snapshot map[string]string) {
	// Best-effort: the adapter already logged any failure, and a lost
	// token only costs server-side conversation memory.
	_ = m.store.Save(storage.KeySessions, snapshot)
}
