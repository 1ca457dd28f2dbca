// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the persistent key/value blob store backing
// conversation history, session bindings, and the delete backup slot.
package storage

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/yaredbooks/kidus-tui/internal/util"
)

// =============================================================================
// WELL-KNOWN KEYS
// =============================================================================

// Keys for the blobs this client owns. One file per key under BaseDir.
const (
	// KeyHistory holds the full conversation list.
	KeyHistory = "chat_history"

	// KeyCurrentChat holds the most recently active conversation ID.
	KeyCurrentChat = "current_chat_id"

	// KeySessions holds the conversationID -> session token map.
	KeySessions = "chat_sessions"

	// KeyHistoryBackup holds the single-generation backup written before a
	// conversation delete. It is also the first thing sacrificed when a
	// save fails for lack of space.
	KeyHistoryBackup = "chat_history_backup"
)

// ErrNotFound is returned by Load when the key has never been saved, or when
// its content is corrupt and has been discarded. Callers treat both the same
// way: start from empty state.
var ErrNotFound = errors.New("storage: key not found")

// =============================================================================
// STORE
// =============================================================================

// Store is a file-per-key JSON blob store. Values are marshaled on Save and
// written atomically (temp file + fsync + rename) so a crash never leaves a
// half-written blob behind.
//
// Persistence here is deliberately best-effort: a Save that still fails after
// its one recovery pass is logged and reported, but callers are expected to
// carry on with their in-memory state rather than surface the failure.
type Store struct {
	// BaseDir is the directory holding one <key>.json file per key.
	// Default: ~/.kidus/state/
	BaseDir string
}

// NewStore creates a store rooted at the default data directory.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewStoreWithDir(filepath.Join(homeDir, ".kidus", "state"))
}

// NewStoreWithDir creates a store rooted at a custom directory.
func NewStoreWithDir(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &Store{BaseDir: baseDir}, nil
}

// =============================================================================
// LOAD / SAVE / REMOVE
// =============================================================================

// Load reads the blob for key into v. A missing key returns ErrNotFound.
// Malformed JSON is logged and also returns ErrNotFound: a corrupt blob must
// never propagate a parse failure into the UI.
func (s *Store) Load(key string, v any) error {
	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		log.Printf("storage: read %s failed: %v", key, err)
		return ErrNotFound
	}

	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("storage: discarding corrupt blob %s: %v", key, err)
		return ErrNotFound
	}
	return nil
}

// Save marshals v and writes it under key. On a write failure it makes one
// recovery pass: the backup blob is deleted to free space and the write is
// retried once. A second failure is logged and returned; conversation
// history is best-effort, not durable, so callers typically ignore it.
func (s *Store) Save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("storage: marshal %s failed: %v", key, err)
		return err
	}

	if err := s.write(key, data); err == nil {
		return nil
	}

	// Recovery pass: sacrifice the backup slot and retry once.
	s.Remove(KeyHistoryBackup)
	if err := s.write(key, data); err != nil {
		log.Printf("storage: save %s failed after recovery pass: %v", key, err)
		return err
	}
	return nil
}

// Remove deletes the blob for key. Removing a missing key is not an error.
func (s *Store) Remove(key string) {
	if err := os.Remove(s.filePath(key)); err != nil && !os.IsNotExist(err) {
		log.Printf("storage: remove %s failed: %v", key, err)
	}
}

// Exists reports whether a blob is present for key.
func (s *Store) Exists(key string) bool {
	_, err := os.Stat(s.filePath(key))
	return err == nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (s *Store) write(key string, data []byte) error {
	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	return util.AtomicWriteFile(s.filePath(key), data, 0644)
}

func (s *Store) filePath(key string) string {
	return filepath.Join(s.BaseDir, key+".json")
}
