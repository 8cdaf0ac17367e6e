// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package eventlog

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/trace"
)

const schema = `
CREATE TABLE IF NOT EXISTS event (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp REAL NOT NULL,
	event_tx_id INTEGER NOT NULL,
	type TEXT NOT NULL,
	ref_name BLOB,
	old_oid BLOB,
	new_oid BLOB,
	head_oid BLOB,
	message TEXT
);
CREATE INDEX IF NOT EXISTS event_tx_id_idx ON event (event_tx_id);
CREATE TABLE IF NOT EXISTS event_tx_seq (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	next_tx_id INTEGER NOT NULL
);
`

// Log is the append-only, transactional event store described in
// spec.md §4.2. It is backed by a single SQLite file; every logical
// repository open holds one Log with a single underlying connection
// so appends within a transaction remain atomic without needing
// SQLite's own concurrent-writer support.
type Log struct {
	db *sql.DB
}

// Open opens (creating if absent) the event log at path, typically
// "<repo>/.zeta/branchless/db.sqlite3".
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, trace.Errorf("eventlog: open %s: %w", path, err)
	}
	// A single writer avoids SQLITE_BUSY races; the log is always
	// mutated from one process-local critical section (Append).
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, trace.Errorf("eventlog: migrate %s: %w", path, err)
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO event_tx_seq (id, next_tx_id) VALUES (1, 1)`); err != nil {
		_ = db.Close()
		return nil, trace.Errorf("eventlog: seed tx seq: %w", err)
	}
	return &Log{db: db}, nil
}

// Close releases the underlying connection.
func (l *Log) Close() error {
	return l.db.Close()
}

// MakeTransactionID allocates the next transaction id. All events
// appended as part of one logical operation (e.g. one rebase, one
// commit) share a TxID so they invert together (internal/undo).
func (l *Log) MakeTransactionID(ctx context.Context) (int64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, trace.Errorf("eventlog: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT next_tx_id FROM event_tx_seq WHERE id = 1`).Scan(&id); err != nil {
		return 0, trace.Errorf("eventlog: read tx seq: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE event_tx_seq SET next_tx_id = ? WHERE id = 1`, id+1); err != nil {
		return 0, trace.Errorf("eventlog: bump tx seq: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, trace.Errorf("eventlog: commit tx seq: %w", err)
	}
	return id, nil
}

// Append writes events transactionally: either all of events land or
// none do. Order is preserved (the log is read back in insertion
// order for a given id range).
func (l *Log) Append(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return trace.Errorf("eventlog: begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO event
		(timestamp, event_tx_id, type, ref_name, old_oid, new_oid, head_oid, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return trace.Errorf("eventlog: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range events {
		oid := e.Oid
		if oid.IsZero() {
			oid = e.NewOid
		}
		if _, err := stmt.ExecContext(ctx, e.Timestamp, e.TxID, string(e.Kind),
			refNameBytes(e.RefName), oidBytes(e.OldOid), oidBytes(oid), oidBytes(e.HeadOid), e.Message); err != nil {
			return trace.Errorf("eventlog: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return trace.Errorf("eventlog: commit append: %w", err)
	}
	return nil
}

// All returns every event in the log in insertion order. Used by
// Replayer to build cursors and by internal/undo to locate the events
// belonging to a transaction.
func (l *Log) All(ctx context.Context) ([]Event, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT timestamp, event_tx_id, type, ref_name, old_oid, new_oid, head_oid, message
		FROM event ORDER BY id ASC`)
	if err != nil {
		return nil, trace.Errorf("eventlog: query all: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var (
			e                                    Event
			kind                                 string
			refName, oldOid, newOid, headOid, msg sql.NullString
		)
		if err := rows.Scan(&e.Timestamp, &e.TxID, &kind, &refName, &oldOid, &newOid, &headOid, &msg); err != nil {
			return nil, trace.Errorf("eventlog: scan: %w", err)
		}
		e.Kind = Kind(kind)
		e.RefName = plumbing.ReferenceName(refName.String)
		e.OldOid = parseOid(oldOid.String)
		e.NewOid = parseOid(newOid.String)
		e.HeadOid = parseOid(headOid.String)
		e.Message = msg.String
		// Append stores Oid in the new_oid column for these kinds.
		switch e.Kind {
		case KindCommit, KindObsolete, KindUnobsolete:
			e.Oid, e.NewOid = e.NewOid, plumbing.ZeroHash
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, trace.Errorf("eventlog: rows: %w", err)
	}
	return events, nil
}

func refNameBytes(r plumbing.ReferenceName) sql.NullString {
	if r == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(r), Valid: true}
}

func oidBytes(h plumbing.Hash) sql.NullString {
	if h.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: h.String(), Valid: true}
}

func parseOid(s string) plumbing.Hash {
	if s == "" {
		return plumbing.ZeroHash
	}
	return plumbing.NewHash(s)
}
