// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package eventlog

import (
	"context"
	"sort"

	"github.com/antgroup/hugescm/modules/plumbing"
)

// Cursor is an opaque position in the event log: "replay every event
// with id <= Cursor". The zero Cursor (MakeDefaultCursor) means
// "replay nothing observed yet" and is distinguished from "replay
// everything" (MakeCursor(len(events))) so an empty log and a
// just-initialized cursor behave identically.
type Cursor int

// Replayer loads the full event log once and answers cursor-relative
// queries against the in-memory copy. Rebuilt whenever the log is
// reopened; callers needing a live view should re-create it after an
// Append.
type Replayer struct {
	events []Event
}

// NewReplayer loads every event currently in l.
func NewReplayer(ctx context.Context, l *Log) (*Replayer, error) {
	events, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	return &Replayer{events: events}, nil
}

// MakeDefaultCursor returns a cursor preceding the first event.
func (r *Replayer) MakeDefaultCursor() Cursor {
	return Cursor(0)
}

// MakeCursor returns a cursor positioned after the n'th event
// (1-indexed count of events to include). n is clamped to the log
// length.
func (r *Replayer) MakeCursor(n int) Cursor {
	if n < 0 {
		n = 0
	}
	if n > len(r.events) {
		n = len(r.events)
	}
	return Cursor(n)
}

// Latest returns a cursor positioned after the most recent event.
func (r *Replayer) Latest() Cursor {
	return Cursor(len(r.events))
}

// GetEventsSinceCursor returns every event strictly after cursor, in
// log order.
func (r *Replayer) GetEventsSinceCursor(cursor Cursor) []Event {
	start := int(cursor)
	if start < 0 {
		start = 0
	}
	if start >= len(r.events) {
		return nil
	}
	out := make([]Event, len(r.events)-start)
	copy(out, r.events[start:])
	return out
}

// AdvanceCursorByTransaction returns the smallest cursor past the end
// of the transaction that begins at or after the given cursor — i.e.
// it skips forward so the whole next transaction is included, never
// stopping in the middle of one. Returns the unchanged cursor if
// there is no further transaction.
func (r *Replayer) AdvanceCursorByTransaction(cursor Cursor) Cursor {
	start := int(cursor)
	if start >= len(r.events) {
		return cursor
	}
	txID := r.events[start].TxID
	i := start
	for i < len(r.events) && r.events[i].TxID == txID {
		i++
	}
	return Cursor(i)
}

// GetTxEventsBeforeCursor returns every event with the given
// transaction id that occurs at or before cursor. Used by
// internal/undo to gather the events a single "undo" step must
// invert.
func (r *Replayer) GetTxEventsBeforeCursor(cursor Cursor, txID int64) []Event {
	limit := int(cursor)
	if limit > len(r.events) {
		limit = len(r.events)
	}
	var out []Event
	for _, e := range r.events[:limit] {
		if e.TxID == txID {
			out = append(out, e)
		}
	}
	return out
}

// GetCursorOids returns every commit oid observed (via Commit events)
// at or before cursor, in first-observed order.
func (r *Replayer) GetCursorOids(cursor Cursor) []plumbing.Hash {
	limit := int(cursor)
	if limit > len(r.events) {
		limit = len(r.events)
	}
	seen := make(map[plumbing.Hash]struct{})
	var order []plumbing.Hash
	for _, e := range r.events[:limit] {
		if e.Kind != KindCommit {
			continue
		}
		if _, ok := seen[e.Oid]; ok {
			continue
		}
		seen[e.Oid] = struct{}{}
		order = append(order, e.Oid)
	}
	return order
}

// GetCursorCommitActivityStatus classifies every commit observed at
// or before cursor as Active or Obsolete (Inactive is never produced
// here) by folding
// Obsolete/Unobsolete/Rewrite events in log order (spec.md §3, §9
// decision 3: a trailing Obsolete with no later Unobsolete, including
// one implied by a zero-target Rewrite, wins).
func (r *Replayer) GetCursorCommitActivityStatus(cursor Cursor) map[plumbing.Hash]CommitActivityStatus {
	limit := int(cursor)
	if limit > len(r.events) {
		limit = len(r.events)
	}
	status := make(map[plumbing.Hash]CommitActivityStatus)
	for _, e := range r.events[:limit] {
		switch e.Kind {
		case KindCommit:
			if _, ok := status[e.Oid]; !ok {
				status[e.Oid] = Active
			}
		case KindObsolete:
			status[e.Oid] = Obsolete
		case KindUnobsolete:
			status[e.Oid] = Active
		case KindRewrite:
			if !e.OldOid.IsZero() {
				status[e.OldOid] = Obsolete
			}
			if !e.NewOid.IsZero() {
				status[e.NewOid] = Active
			}
		}
	}
	return status
}

// GetReferencesSnapshot folds every RefUpdate event at or before
// cursor into a point-in-time view of HEAD, the main branch, and every
// branch-oid mapping (spec.md §4.2). mainBranchName identifies which
// branch name, if any, is treated as the main branch.
func (r *Replayer) GetReferencesSnapshot(cursor Cursor, mainBranchName string) *ReferencesSnapshot {
	limit := int(cursor)
	if limit > len(r.events) {
		limit = len(r.events)
	}
	snap := newReferencesSnapshot()
	for _, e := range r.events[:limit] {
		if e.Kind != KindRefUpdate {
			continue
		}
		switch {
		case e.RefName == plumbing.HEAD:
			snap.HeadOid = e.NewOid
		case e.RefName.IsBranch():
			name := e.RefName.BranchName()
			if !e.OldOid.IsZero() {
				snap.removeBranch(e.OldOid, name)
			}
			if !e.NewOid.IsZero() {
				snap.addBranch(e.NewOid, name)
				if name == mainBranchName {
					snap.MainBranchOid = e.NewOid
				}
			} else if name == mainBranchName {
				snap.MainBranchOid = plumbing.ZeroHash
			}
		}
	}
	return snap
}

// SortedTransactionIDs returns every distinct transaction id present
// in the log, in ascending numeric order. Used by internal/undo to
// enumerate "undo N steps" targets.
func (r *Replayer) SortedTransactionIDs() []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, e := range r.events {
		if _, ok := seen[e.TxID]; ok {
			continue
		}
		seen[e.TxID] = struct{}{}
		ids = append(ids, e.TxID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
