// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package analytics

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// EVENT SPOOL
// =============================================================================

// Event is one recorded usage event.
type Event struct {
	ID        int64
	Name      string            `json:"name"`
	Fields    map[string]string `json:"fields,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Spool is the durable on-disk event queue.
type Spool struct {
	db *sql.DB
}

const spoolSchema = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	fields     TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at);
`

// OpenSpool opens (creating if needed) the spool database at the given path.
func OpenSpool(path string) (*Spool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spool database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(spoolSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create spool schema: %w", err)
	}

	return &Spool{db: db}, nil
}

// Enqueue appends one event to the spool.
func (s *Spool) Enqueue(name string, fields map[string]string) error {
	blob := "{}"
	if len(fields) > 0 {
		data, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to encode event fields: %w", err)
		}
		blob = string(data)
	}

	_, err := s.db.Exec(
		"INSERT INTO events (name, fields, created_at) VALUES (?, ?, ?)",
		name, blob, time.Now().Unix(),
	)
	return err
}

// Batch returns up to limit oldest events without removing them. Removal
// happens only after a successful ship, via Delete.
func (s *Spool) Batch(limit int) ([]Event, error) {
	rows, err := s.db.Query(
		"SELECT id, name, fields, created_at FROM events ORDER BY id ASC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var blob string
		var created int64
		if err := rows.Scan(&ev.ID, &ev.Name, &blob, &created); err != nil {
			return nil, err
		}
		ev.CreatedAt = time.Unix(created, 0)
		if err := json.Unmarshal([]byte(blob), &ev.Fields); err != nil {
			// A mangled row still ships with its name and timestamp.
			ev.Fields = nil
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Delete removes shipped events by ID.
func (s *Spool) Delete(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.Exec("DELETE FROM events WHERE id = ?", id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Count returns the number of spooled events.
func (s *Spool) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&n)
	return n, err
}

// Close closes the spool database.
func (s *Spool) Close() error {
	return s.db.Close()
}
