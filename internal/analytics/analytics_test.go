// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func newSpool(t *testing.T) *Spool {
	t.Helper()
	spool, err := OpenSpool(filepath.Join(t.TempDir(), "analytics.db"))
	if err != nil {
		t.Fatalf("OpenSpool: %v", err)
	}
	t.Cleanup(func() { spool.Close() })
	return spool
}

func TestSpoolRoundTrip(t *testing.T) {
	spool := newSpool(t)

	if err := spool.Enqueue("message_sent", map[string]string{"endpoint": "/chat"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := spool.Enqueue("conversation_created", nil); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	events, err := spool.Batch(10)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Name != "message_sent" {
		t.Errorf("events out of order: first = %q", events[0].Name)
	}
	if events[0].Fields["endpoint"] != "/chat" {
		t.Errorf("fields lost: %v", events[0].Fields)
	}

	// Batch does not consume.
	if n, _ := spool.Count(); n != 2 {
		t.Errorf("Count after Batch = %d, want 2", n)
	}

	if err := spool.Delete([]int64{events[0].ID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := spool.Count(); n != 1 {
		t.Errorf("Count after Delete = %d, want 1", n)
	}
}

func TestSpoolBatchLimit(t *testing.T) {
	spool := newSpool(t)
	for i := 0; i < 5; i++ {
		if err := spool.Enqueue("ev", nil); err != nil {
			t.Fatal(err)
		}
	}
	events, err := spool.Batch(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Errorf("got %d events, want 3", len(events))
	}
}

func TestRecorderDisabledIsNoOp(t *testing.T) {
	r := NewRecorder(nil, "http://unused.test", false, time.Minute)
	r.Start()
	r.Record("message_sent", nil)
	if err := r.Flush(context.Background()); err != nil {
		t.Errorf("disabled Flush should be nil, got %v", err)
	}
	if r.Pending() != 0 {
		t.Errorf("disabled Pending = %d", r.Pending())
	}
	if err := r.Close(); err != nil {
		t.Errorf("disabled Close should be nil, got %v", err)
	}

	// A nil recorder is callable too.
	var nilRec *Recorder
	nilRec.Record("x", nil)
	nilRec.Start()
}

func TestRecorderFlushShipsAndDrains(t *testing.T) {
	var received [][]Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analytics/events" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Events []Event `json:"events"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		received = append(received, body.Events)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := NewRecorder(newSpool(t), srv.URL, true, time.Hour)
	rec.Record("message_sent", map[string]string{"endpoint": "/chat"})
	rec.Record("conversation_deleted", nil)

	if err := rec.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if len(received) != 1 || len(received[0]) != 2 {
		t.Fatalf("backend received %v", received)
	}
	if rec.Pending() != 0 {
		t.Errorf("Pending after flush = %d, want 0", rec.Pending())
	}
}

func TestRecorderFailedFlushKeepsEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rec := NewRecorder(newSpool(t), srv.URL, true, time.Hour)
	rec.Record("message_sent", nil)

	if err := rec.Flush(context.Background()); err == nil {
		t.Fatal("expected flush error")
	}
	if rec.Pending() != 1 {
		t.Errorf("Pending after failed flush = %d, want 1", rec.Pending())
	}
}
