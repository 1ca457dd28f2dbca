// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// RECORDER
// =============================================================================

const (
	// DefaultBatchSize caps events per shipment.
	DefaultBatchSize = 50

	// DefaultFlushInterval is how often the background loop ships events.
	DefaultFlushInterval = 60 * time.Second
)

// Recorder records usage events. Construct with NewRecorder and inject it
// where needed; there is deliberately no package-level instance. A nil or
// disabled Recorder is safe to call and does nothing.
type Recorder struct {
	spool    *Spool
	baseURL  string
	enabled  bool
	interval time.Duration

	httpClient *http.Client
	limiter    *rate.Limiter

	started  bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewRecorder creates a recorder shipping to baseURL's /analytics/events
// endpoint. When enabled is false, Record and Flush are no-ops; the spool
// may be nil in that case.
func NewRecorder(spool *Spool, baseURL string, enabled bool, interval time.Duration) *Recorder {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &Recorder{
		spool:      spool,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		enabled:    enabled && spool != nil,
		interval:   interval,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(10*time.Second), 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the background flush loop. Safe to skip entirely; events
// then only ship on explicit Flush calls.
func (r *Recorder) Start() {
	if r == nil || !r.enabled || r.started {
		return
	}
	r.started = true
	go r.flushLoop()
}

// Record spools one event. Never blocks on the network and never surfaces
// an error to the caller; a spool failure costs one event, not the action
// that produced it.
func (r *Recorder) Record(name string, fields map[string]string) {
	if r == nil || !r.enabled {
		return
	}
	if err := r.spool.Enqueue(name, fields); err != nil {
		log.Printf("analytics: failed to spool event %q: %v", name, err)
	}
}

// flushLoop ships batches on the configured interval until Close.
func (r *Recorder) flushLoop() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := r.Flush(ctx); err != nil {
				log.Printf("analytics: flush failed, events stay spooled: %v", err)
			}
			cancel()
		}
	}
}

// Flush ships one batch of spooled events. Events are deleted only after
// the backend accepts them, so a failure here is retried by the next pass.
func (r *Recorder) Flush(ctx context.Context) error {
	if r == nil || !r.enabled {
		return nil
	}
	if !r.limiter.Allow() {
		return nil
	}

	events, err := r.spool.Batch(DefaultBatchSize)
	if err != nil {
		return fmt.Errorf("failed to read spool: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	if err := r.ship(ctx, events); err != nil {
		return err
	}

	ids := make([]int64, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	return r.spool.Delete(ids)
}

// ship posts one batch to the backend.
func (r *Recorder) ship(ctx context.Context, events []Event) error {
	payload, err := json.Marshal(map[string]any{"events": events})
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/analytics/events", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("analytics endpoint returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// Pending returns the number of spooled events.
func (r *Recorder) Pending() int {
	if r == nil || !r.enabled {
		return 0
	}
	n, err := r.spool.Count()
	if err != nil {
		return 0
	}
	return n
}

// Close stops the flush loop and attempts one final best-effort flush.
func (r *Recorder) Close() error {
	if r == nil || !r.enabled {
		return nil
	}
	r.stopOnce.Do(func() {
		close(r.stop)
		if r.started {
			<-r.done
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.Flush(ctx)
	})
	return r.spool.Close()
}
