// Package tracestore records every wire frame (direction, correlation id,
// type, status, byte length, timestamp) to a local SQLite file for
// postmortem debugging of the MIDI link, when FL_TRACE_DB names a database
// path.
// Grounded on plex.RegisterTuner's use of modernc.org/sqlite over
// database/sql: the pure-Go driver means this optional feature never
// drags cgo into the build.
package tracestore

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS frames (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	direction TEXT NOT NULL,
	correlation_id INTEGER NOT NULL,
	frame_type TEXT NOT NULL,
	status TEXT NOT NULL,
	payload_bytes INTEGER NOT NULL,
	recorded_at TEXT NOT NULL
);
`

// Direction distinguishes an outbound (to the Inner Bridge) frame from an
// inbound one.
type Direction string

const (
	DirectionOut Direction = "out"
	DirectionIn  Direction = "in"
)

// Store is an optional sink for wire-level frame traces. A nil *Store is
// valid and every method on it is a no-op, so callers can wire it
// unconditionally and simply leave it nil when FL_TRACE_DB is empty.
type Store struct {
	db *sql.DB
}

// Open creates (or reopens) a trace database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tracestore: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("tracestore: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts one frame trace. Safe to call on a nil *Store.
func (s *Store) Record(dir Direction, correlationID int, frameType, status string, payloadBytes int) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO frames (direction, correlation_id, frame_type, status, payload_bytes, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		string(dir), correlationID, frameType, status, payloadBytes, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("tracestore: insert frame: %w", err)
	}
	return nil
}

// Frame is one row read back by Recent.
type Frame struct {
	Direction     string
	CorrelationID int
	FrameType     string
	Status        string
	PayloadBytes  int
	RecordedAt    string
}

// Recent returns the most recent n frame traces, newest first. Safe to call
// on a nil *Store, returning (nil, nil).
func (s *Store) Recent(n int) ([]Frame, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.Query(
		`SELECT direction, correlation_id, frame_type, status, payload_bytes, recorded_at FROM frames ORDER BY id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("tracestore: query recent: %w", err)
	}
	defer rows.Close()

	var out []Frame
	for rows.Next() {
		var f Frame
		if err := rows.Scan(&f.Direction, &f.CorrelationID, &f.FrameType, &f.Status, &f.PayloadBytes, &f.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Close closes the underlying database. Safe to call on a nil *Store.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}
