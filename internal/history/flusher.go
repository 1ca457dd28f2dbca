// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// flusher.go - Debounced write queue behind the history store.
// it synchronized with the persistent store.
package history

import (
	"sync"
	"time"
)

// =============================================================================
// DEBOUNCED FLUSHER
// =============================================================================

// Flusher coalesces rapid successive writes into a single trailing-edge
// flush. Each Schedule call replaces the pending write and restarts the
// debounce window, so a burst of edits costs one disk write.
//
// The write function passed to Schedule must capture a snapshot taken at
// schedule time - never a live pointer into mutable state - so the flush
// serializes the state as it was when scheduled, not at whatever later
// moment the timer fires.
//
// Close flushes any pending write before returning: shutdown never silently
// drops a scheduled save.
type Flusher struct {
	mu      sync.Mutex
	window  time.Duration
	timer   *time.Timer
	pending func()
	closed  bool
}

// NewFlusher creates a flusher with the given debounce window.
func NewFlusher(window time.Duration) *Flusher {
	return &Flusher{window: window}
}

// Schedule queues write to run after the debounce window, replacing any
// previously scheduled write. No-op after Close.
func (f *Flusher) Schedule(write func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	f.pending = write
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(f.window, f.fire)
}

// Flush runs the pending write immediately, if any, cancelling the timer.
func (f *Flusher) Flush() {
	f.mu.Lock()
	write := f.pending
	f.pending = nil
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.mu.Unlock()

	if write != nil {
		write()
	}
}

// Close flushes any pending write and rejects further scheduling.
func (f *Flusher) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.Flush()
}

// fire is the timer callback.
func (f *Flusher) fire() {
	f.mu.Lock()
	write := f.pending
	f.pending = nil
	f.timer = nil
	f.mu.Unlock()

	if write != nil {
		write()
	}
}

// HasPending reports whether a write is waiting on the debounce window.
func (f *Flusher) HasPending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending != nil
}
