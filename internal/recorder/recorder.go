// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/recorder/recorder.go
// Summary: SQLite journal of inbound frames for debugging and replay.
// Usage: cmd/vexel-view records sessions with -record and replays with -replay.
// Notes: Replay preserves frame order via the rowid; timestamps drive the
//        optional pacing in the replayer, not ordering.

package recorder

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/framegrace/vexel/protocol"
)

const schema = `
CREATE TABLE IF NOT EXISTS frames (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded  INTEGER NOT NULL,
	sequence  INTEGER NOT NULL,
	msg_type  INTEGER NOT NULL,
	payload   BLOB
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT
);
`

const schemaVersion = "1"

// Recorder journals frames into a SQLite file.
type Recorder struct {
	db     *sql.DB
	insert *sql.Stmt
}

// Frame is one replayed journal entry.
type Frame struct {
	Recorded time.Time
	Sequence uint64
	Type     protocol.MessageType
	Payload  []byte
}

// Open creates or appends to a journal at path.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("recorder: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("recorder: create schema: %w", err)
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES('schema_version', ?)`, schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("recorder: write meta: %w", err)
	}
	insert, err := db.Prepare(`INSERT INTO frames(recorded, sequence, msg_type, payload) VALUES(?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("recorder: prepare insert: %w", err)
	}
	return &Recorder{db: db, insert: insert}, nil
}

// Record appends one frame to the journal.
func (r *Recorder) Record(hdr protocol.Header, payload []byte) error {
	_, err := r.insert.Exec(time.Now().UnixNano(), int64(hdr.Sequence), int(hdr.Type), payload)
	if err != nil {
		return fmt.Errorf("recorder: insert frame: %w", err)
	}
	return nil
}

// Close flushes and closes the journal.
func (r *Recorder) Close() error {
	if r.insert != nil {
		r.insert.Close()
	}
	return r.db.Close()
}

// Replay streams journaled frames in recorded order. It stops early when fn
// returns an error and surfaces that error.
func Replay(path string, fn func(Frame) error) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("recorder: open %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT recorded, sequence, msg_type, payload FROM frames ORDER BY id`)
	if err != nil {
		return fmt.Errorf("recorder: query frames: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recorded, sequence int64
		var msgType int
		var payload []byte
		if err := rows.Scan(&recorded, &sequence, &msgType, &payload); err != nil {
			return fmt.Errorf("recorder: scan frame: %w", err)
		}
		f := Frame{
			Recorded: time.Unix(0, recorded),
			Sequence: uint64(sequence),
			Type:     protocol.MessageType(msgType),
			Payload:  payload,
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return rows.Err()
}
