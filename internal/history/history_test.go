// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/yaredbooks/kidus-tui/internal/model"
	"github.com/yaredbooks/kidus-tui/internal/session"
	"github.com/yaredbooks/kidus-tui/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.Store, *session.Map) {
	t.Helper()
	blob, err := storage.NewStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	sessions := session.NewMap(blob)
	s := NewStore(blob, sessions, Options{
		FlushDebounce: 10 * time.Millisecond,
		SweepInterval: time.Hour, // keep the ticker out of the way
	})
	t.Cleanup(s.Close)
	return s, blob, sessions
}

func TestCreateThenAppendThenSelect(t *testing.T) {
	s, _, _ := newTestStore(t)

	conv := s.Create("What is Timkat?")
	const n = 7
	var ids []string
	for i := 0; i < n; i++ {
		msg := model.NewUserMessage(fmt.Sprintf("message %d", i))
		ids = append(ids, msg.ID)
		s.Append(conv.ID, msg)
	}

	got := s.Select(conv.ID)
	if len(got) != n {
		t.Fatalf("Select returned %d messages, want %d", len(got), n)
	}
	// Call order is authoritative, not IDs or timestamps.
	for i, msg := range got {
		if msg.ID != ids[i] {
			t.Errorf("message %d out of order", i)
		}
	}
}

func TestCreatePrependsMostRecentFirst(t *testing.T) {
	s, _, _ := newTestStore(t)

	first := s.Create("first")
	second := s.Create("second")

	list := s.List()
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Error("conversations not ordered most-recent-first")
	}
}

func TestAppendUnknownConversationIsNoop(t *testing.T) {
	s, _, _ := newTestStore(t)
	s.Create("keep")

	// Must not panic, must not resurrect anything.
	s.Append("conv_deleted", model.NewUserMessage("late reply"))
	if s.Len() != 1 {
		t.Errorf("unknown append changed conversation count: %d", s.Len())
	}
}

func TestRenameRejectsBlank(t *testing.T) {
	s, _, _ := newTestStore(t)
	conv := s.Create("original title")

	if err := s.Rename(conv.ID, "   "); err != ErrBlankTitle {
		t.Errorf("expected ErrBlankTitle, got %v", err)
	}
	if got := s.Get(conv.ID).Title; got != "original title" {
		t.Errorf("title mutated by rejected rename: %q", got)
	}

	if err := s.Rename(conv.ID, "better title"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if got := s.Get(conv.ID).Title; got != "better title" {
		t.Errorf("title = %q", got)
	}
}

func TestSelectUnknownReturnsEmpty(t *testing.T) {
	s, _, _ := newTestStore(t)

	got := s.Select("conv_missing")
	if got == nil || len(got) != 0 {
		t.Errorf("Select of unknown ID should return empty slice, got %v", got)
	}
}

func TestDeleteBackupAndRestore(t *testing.T) {
	s, blob, sessions := newTestStore(t)

	conv := s.Create("doomed")
	s.Append(conv.ID, model.NewUserMessage("hello"))
	sessions.Set(conv.ID, "sess-token")
	keep := s.Create("survivor")

	s.Delete(conv.ID)

	if s.Exists(conv.ID) {
		t.Fatal("conversation still present after delete")
	}
	if sessions.Get(conv.ID) != "" {
		t.Error("session binding should be cleared on delete")
	}

	// The backup slot holds the full prior state (both conversations).
	var backup []*model.Conversation
	if err := blob.Load(storage.KeyHistoryBackup, &backup); err != nil {
		t.Fatalf("backup slot missing: %v", err)
	}
	if len(backup) != 2 {
		t.Fatalf("backup holds %d conversations, want 2", len(backup))
	}

	// Restore brings back exactly that state.
	if err := s.RestoreBackup(); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if !s.Exists(conv.ID) || !s.Exists(keep.ID) {
		t.Error("restore did not bring back the prior state")
	}
	restored := s.Get(conv.ID)
	if len(restored.Messages) != 1 || restored.Messages[0].Content != "hello" {
		t.Error("restored conversation lost its messages")
	}
}

func TestBackupIsSingleGeneration(t *testing.T) {
	s, blob, _ := newTestStore(t)

	a := s.Create("first delete")
	b := s.Create("second delete")

	s.Delete(a.ID) // backup now holds [b, a]
	s.Delete(b.ID) // backup overwritten, now holds [b]

	var backup []*model.Conversation
	if err := blob.Load(storage.KeyHistoryBackup, &backup); err != nil {
		t.Fatal(err)
	}
	if len(backup) != 1 || backup[0].ID != b.ID {
		t.Errorf("second delete should overwrite the first backup, got %d records", len(backup))
	}
}

func TestSweepDropsMalformedRecords(t *testing.T) {
	s, _, _ := newTestStore(t)
	good := s.Create("good")

	// Inject corruption the way a partial write would leave it.
	s.mu.Lock()
	s.conversations = append(s.conversations, &model.Conversation{ID: "conv_x"}) // no title
	s.conversations = append(s.conversations, &model.Conversation{Title: "t"})   // no ID
	s.mu.Unlock()

	if dropped := s.Sweep(); dropped != 2 {
		t.Errorf("Sweep dropped %d, want 2", dropped)
	}
	if s.Len() != 1 || !s.Exists(good.ID) {
		t.Error("sweep removed a valid record")
	}

	// Clean state sweeps to zero.
	if dropped := s.Sweep(); dropped != 0 {
		t.Errorf("second Sweep dropped %d, want 0", dropped)
	}
}

func TestDebouncedFlushPersists(t *testing.T) {
	s, blob, _ := newTestStore(t)

	conv := s.Create("persist me")
	for i := 0; i < 5; i++ {
		s.Append(conv.ID, model.NewUserMessage("rapid edit"))
	}

	// Before the window elapses nothing is forced; Flush makes it
	// deterministic for the test.
	s.Flush()

	var onDisk []*model.Conversation
	if err := blob.Load(storage.KeyHistory, &onDisk); err != nil {
		t.Fatalf("history blob missing after flush: %v", err)
	}
	if len(onDisk) != 1 || len(onDisk[0].Messages) != 5 {
		t.Errorf("flushed state incomplete: %d conversations", len(onDisk))
	}
}

func TestLoadFiltersCorruptRecords(t *testing.T) {
	blob, err := storage.NewStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	valid := model.NewConversation("valid")
	if err := blob.Save(storage.KeyHistory, []*model.Conversation{
		valid,
		{ID: "conv_broken"}, // no title, nil messages
	}); err != nil {
		t.Fatal(err)
	}
	if err := blob.Save(storage.KeyCurrentChat, valid.ID); err != nil {
		t.Fatal(err)
	}

	s := NewStore(blob, session.NewMap(blob), Options{SweepInterval: time.Hour})
	t.Cleanup(s.Close)

	if s.Len() != 1 {
		t.Errorf("load kept %d records, want 1", s.Len())
	}
	if s.ActiveID() != valid.ID {
		t.Errorf("active ID not restored: %q", s.ActiveID())
	}
}

func TestCloseFlushesPending(t *testing.T) {
	blob, err := storage.NewStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := NewStore(blob, session.NewMap(blob), Options{
		FlushDebounce: time.Hour, // window never elapses on its own
		SweepInterval: time.Hour,
	})
	s.Create("must survive shutdown")
	s.Close()

	var onDisk []*model.Conversation
	if err := blob.Load(storage.KeyHistory, &onDisk); err != nil {
		t.Fatalf("Close dropped the pending write: %v", err)
	}
	if len(onDisk) != 1 {
		t.Errorf("on disk: %d conversations, want 1", len(onDisk))
	}
}

func TestTruncateFromForRegenerate(t *testing.T) {
	s, _, _ := newTestStore(t)
	conv := s.Create("q")

	user := model.NewUserMessage("question")
	reply := model.NewAssistantMessage("bad answer", nil)
	s.Append(conv.ID, user)
	s.Append(conv.ID, reply)

	if !s.TruncateFrom(conv.ID, reply.ID) {
		t.Fatal("TruncateFrom failed for known message")
	}
	msgs := s.Select(conv.ID)
	if len(msgs) != 1 || msgs[0].ID != user.ID {
		t.Error("regenerate truncation left wrong tail")
	}
}
