// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"testing"

	"github.com/yaredbooks/kidus-tui/internal/storage"
)

func newTestMap(t *testing.T) (*Map, *storage.Store) {
	t.Helper()
	store, err := storage.NewStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewMap(store), store
}

func TestSetGetClear(t *testing.T) {
	m, _ := newTestMap(t)

	if got := m.Get("conv_a"); got != "" {
		t.Errorf("fresh conversation should have no token, got %q", got)
	}

	m.Set("conv_a", "sess-token-1")
	if got := m.Get("conv_a"); got != "sess-token-1" {
		t.Errorf("Get = %q, want sess-token-1", got)
	}

	m.Clear("conv_a")
	if got := m.Get("conv_a"); got != "" {
		t.Errorf("token should be gone after Clear, got %q", got)
	}
}

func TestBlankTokensIgnored(t *testing.T) {
	m, _ := newTestMap(t)

	m.Set("conv_a", "")
	m.Set("conv_a", "   ")
	m.Set("", "token")

	if m.Len() != 0 {
		t.Errorf("blank tokens must not be stored, len = %d", m.Len())
	}
}

func TestPersistAcrossRestart(t *testing.T) {
	m, store := newTestMap(t)
	m.Set("conv_a", "token-a")
	m.Set("conv_b", "token-b")

	// A new map over the same store sees the same bindings.
	reloaded := NewMap(store)
	if got := reloaded.Get("conv_a"); got != "token-a" {
		t.Errorf("reloaded Get(conv_a) = %q, want token-a", got)
	}
	if got := reloaded.Get("conv_b"); got != "token-b" {
		t.Errorf("reloaded Get(conv_b) = %q, want token-b", got)
	}
}

func TestCorruptBindingsPrunedOnLoad(t *testing.T) {
	store, err := storage.NewStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	// Simulate hand-edited storage with blank tokens.
	if err := store.Save(storage.KeySessions, map[string]string{
		"conv_good": "token",
		"conv_bad":  "",
		"conv_ws":   "  ",
	}); err != nil {
		t.Fatal(err)
	}

	m := NewMap(store)
	if m.Len() != 1 {
		t.Errorf("expected 1 surviving binding, have %d", m.Len())
	}
	if got := m.Get("conv_good"); got != "token" {
		t.Errorf("valid binding lost: %q", got)
	}

	// The pruned state is what got written back.
	var onDisk map[string]string
	if err := store.Load(storage.KeySessions, &onDisk); err != nil {
		t.Fatal(err)
	}
	if len(onDisk) != 1 {
		t.Errorf("pruned map should be persisted, on disk: %v", onDisk)
	}
}

func TestClearAll(t *testing.T) {
	m, _ := newTestMap(t)
	m.Set("conv_a", "ta")
	m.Set("conv_b", "tb")

	m.ClearAll()
	if m.Len() != 0 {
		t.Errorf("ClearAll left %d bindings", m.Len())
	}
}
