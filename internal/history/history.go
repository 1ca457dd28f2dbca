// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history owns the canonical in-memory conversation list and keeps
// it synchronized with the persistent store.
package history

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/yaredbooks/kidus-tui/internal/model"
	"github.com/yaredbooks/kidus-tui/internal/session"
	"github.com/yaredbooks/kidus-tui/internal/storage"
)

// Defaults for the persistence policy.
const (
	// DefaultFlushDebounce coalesces rapid successive edits into one write.
	DefaultFlushDebounce = 500 * time.Millisecond

	// DefaultSweepInterval is how often the integrity sweep runs.
	DefaultSweepInterval = 30 * time.Second
)

// ErrBlankTitle is returned when renaming to an empty or whitespace title.
var ErrBlankTitle = errors.New("history: conversation title cannot be blank")

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// Store owns the conversation list (most-recent-first) and the active
// conversation ID. All mutations schedule a debounced flush of the full
// list; the active ID is small and is persisted immediately on change.
//
// In-memory state is authoritative: the persisted mirror is rewritten from
// memory on every flush and never read back after startup.
type Store struct {
	mu            sync.Mutex
	conversations []*model.Conversation
	activeID      string

	store    *storage.Store
	sessions *session.Map
	flusher  *Flusher

	sweepStop chan struct{}
	sweepOnce sync.Once
}

// Options configures the persistence policy.
type Options struct {
	FlushDebounce time.Duration
	SweepInterval time.Duration
}

// DefaultOptions returns the default persistence policy.
func DefaultOptions() Options {
	return Options{
		FlushDebounce: DefaultFlushDebounce,
		SweepInterval: DefaultSweepInterval,
	}
}

// NewStore creates a conversation store over the given blob store and
// session map, loading and sweeping any persisted history.
func NewStore(st *storage.Store, sessions *session.Map, opts Options) *Store {
	if opts.FlushDebounce <= 0 {
		opts.FlushDebounce = DefaultFlushDebounce
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}

	s := &Store{
		store:     st,
		sessions:  sessions,
		flusher:   NewFlusher(opts.FlushDebounce),
		sweepStop: make(chan struct{}),
	}
	s.load()

	go s.sweepLoop(opts.SweepInterval)
	return s
}

// load reads persisted history and the active conversation ID, filtering
// out malformed records up front.
func (s *Store) load() {
	var stored []*model.Conversation
	if err := s.store.Load(storage.KeyHistory, &stored); err == nil {
		kept := filterValid(stored)
		if dropped := len(stored) - len(kept); dropped > 0 {
			log.Printf("history: dropped %d malformed conversation records on load", dropped)
		}
		s.conversations = kept
	} else {
		s.conversations = make([]*model.Conversation, 0)
	}

	var activeID string
	if err := s.store.Load(storage.KeyCurrentChat, &activeID); err == nil {
		// The active ID must point at a surviving conversation.
		for _, c := range s.conversations {
			if c.ID == activeID {
				s.activeID = activeID
				break
			}
		}
	}
}

// Close stops the sweep loop and flushes any pending write.
func (s *Store) Close() {
	s.sweepOnce.Do(func() { close(s.sweepStop) })
	s.flusher.Close()
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Create allocates a new conversation titled from the first user message
// text, prepends it (most-recent-first), makes it active, and returns it.
func (s *Store) Create(firstMessageText string) *model.Conversation {
	conv := model.NewConversation(firstMessageText)

	s.mu.Lock()
	s.conversations = append([]*model.Conversation{conv}, s.conversations...)
	s.activeID = conv.ID
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistActive(conv.ID)
	s.scheduleFlush(snapshot)
	return conv
}

// Append adds a message to the named conversation. Unknown IDs are a logged
// no-op: a late response for a deleted conversation must not resurrect it.
func (s *Store) Append(conversationID string, msg *model.Message) {
	s.mu.Lock()
	conv := s.findLocked(conversationID)
	if conv == nil {
		s.mu.Unlock()
		log.Printf("history: append to unknown conversation %s dropped", conversationID)
		return
	}
	conv.AddMessage(msg)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleFlush(snapshot)
}

// Rename replaces a conversation's title. Blank titles are rejected.
func (s *Store) Rename(conversationID, newTitle string) error {
	if strings.TrimSpace(newTitle) == "" {
		return ErrBlankTitle
	}

	s.mu.Lock()
	conv := s.findLocked(conversationID)
	if conv == nil {
		s.mu.Unlock()
		log.Printf("history: rename of unknown conversation %s dropped", conversationID)
		return nil
	}
	conv.Title = newTitle
	conv.UpdatedAt = time.Now()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.scheduleFlush(snapshot)
	return nil
}

// Delete removes a conversation. The entire current list is first written
// to the single backup slot (overwriting any prior backup), and the
// conversation's session binding is discarded.
func (s *Store) Delete(conversationID string) {
	s.mu.Lock()
	idx := -1
	for i, c := range s.conversations {
		if c.ID == conversationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	backup := s.snapshotLocked()
	s.conversations = append(s.conversations[:idx], s.conversations[idx+1:]...)
	activeCleared := false
	if s.activeID == conversationID {
		s.activeID = ""
		activeCleared = true
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	// Backup before the delete is observable on disk.
	_ = s.store.Save(storage.KeyHistoryBackup, backup)

	if s.sessions != nil {
		s.sessions.Clear(conversationID)
	}
	if activeCleared {
		s.store.Remove(storage.KeyCurrentChat)
	}
	s.scheduleFlush(snapshot)
}

// Select makes a conversation active and returns its messages. Unknown IDs
// yield an empty slice, guarding against corrupt persisted references.
func (s *Store) Select(conversationID string) []*model.Message {
	s.mu.Lock()
	conv := s.findLocked(conversationID)
	if conv == nil {
		s.mu.Unlock()
		return []*model.Message{}
	}
	s.activeID = conversationID
	msgs := append([]*model.Message(nil), conv.Messages...)
	s.mu.Unlock()

	s.persistActive(conversationID)
	return msgs
}

// Get returns the conversation with the given ID, or nil.
func (s *Store) Get(conversationID string) *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(conversationID)
}

// Exists reports whether a conversation is still present. Callers applying
// a late gateway response re-validate with this before appending.
func (s *Store) Exists(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(conversationID) != nil
}

// ActiveID returns the active conversation ID, or "".
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// ClearActive deselects the active conversation (new-chat state).
func (s *Store) ClearActive() {
	s.mu.Lock()
	s.activeID = ""
	s.mu.Unlock()
	s.store.Remove(storage.KeyCurrentChat)
}

// List returns the conversations, most recent first. The slice is a copy;
// the elements are live and must only be mutated through Store methods.
func (s *Store) List() []*model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.Conversation(nil), s.conversations...)
}

// Len returns the number of conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// TruncateFrom splices out a conversation's tail starting at the given
// message, for regenerate. Returns false if either ID is unknown.
func (s *Store) TruncateFrom(conversationID, messageID string) bool {
	s.mu.Lock()
	conv := s.findLocked(conversationID)
	if conv == nil {
		s.mu.Unlock()
		return false
	}
	ok := conv.TruncateFrom(messageID)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if ok {
		s.scheduleFlush(snapshot)
	}
	return ok
}

// RestoreBackup replaces the current list with the backup slot's contents.
// Single generation: whatever was backed up by the most recent delete.
func (s *Store) RestoreBackup() error {
	var backup []*model.Conversation
	if err := s.store.Load(storage.KeyHistoryBackup, &backup); err != nil {
		return err
	}
	kept := filterValid(backup)

	s.mu.Lock()
	s.conversations = kept
	s.activeID = ""
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.store.Remove(storage.KeyCurrentChat)
	s.scheduleFlush(snapshot)
	log.Printf("history: restored %d conversations from backup", len(kept))
	return nil
}

// =============================================================================
// INTEGRITY SWEEP
// =============================================================================

// Sweep filters out malformed conversation records. Runs at load time and
// on a fixed interval to guard against partially-written or hand-edited
// storage content. Returns the number of records dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	kept := filterValid(s.conversations)
	dropped := len(s.conversations) - len(kept)
	if dropped == 0 {
		s.mu.Unlock()
		return 0
	}
	s.conversations = kept
	if s.activeID != "" && s.findLocked(s.activeID) == nil {
		s.activeID = ""
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	log.Printf("history: integrity sweep dropped %d malformed records", dropped)
	s.scheduleFlush(snapshot)
	return dropped
}

func (s *Store) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.sweepStop:
			return
		}
	}
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Flush forces any pending debounced write to disk now.
func (s *Store) Flush() {
	s.flusher.Flush()
}

// snapshotLocked deep-copies the list while s.mu is held, so scheduled
// flushes serialize the state at mutation time rather than at timer-fire
// time.
func (s *Store) snapshotLocked() []*model.Conversation {
	out := make([]*model.Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = c.Clone()
	}
	return out
}

func (s *Store) scheduleFlush(snapshot []*model.Conversation) {
	s.flusher.Schedule(func() {
		// Best-effort by policy: the adapter retries once and logs.
		_ = s.store.Save(storage.KeyHistory, snapshot)
	})
}

func (s *Store) persistActive(id string) {
	_ = s.store.Save(storage.KeyCurrentChat, id)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (s *Store) findLocked(id string) *model.Conversation {
	for _, c := range s.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func filterValid(convs []*model.Conversation) []*model.Conversation {
	kept := make([]*model.Conversation, 0, len(convs))
	for _, c := range convs {
		if c.IsValid() {
			kept = append(kept, c)
		}
	}
	return kept
}
