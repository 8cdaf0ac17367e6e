// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package undo implements the undo engine (C8): computing the
// structural inverse of an event-log transaction and re-applying it.
// Grounded on
// _examples/original_source/git-branchless-undo/src/lib.rs.
package undo

import (
	"context"

	"github.com/antgroup/hugescm/internal/eventlog"
	"github.com/antgroup/hugescm/modules/plumbing"
)

// WorkingCopyCheckout performs the one inverse operation that is not a
// literal event-field swap: restoring a past working-copy snapshot,
// rather than replaying a WorkingCopySnapshot event as data (spec.md
// §8, Testable Property 8).
type WorkingCopyCheckout interface {
	CheckoutSnapshot(ctx context.Context, snapshotOid plumbing.Hash) error
}

// InverseEvent is either a normal event to append, or a working-copy
// checkout to perform; exactly one of Event/Checkout is meaningful.
type InverseEvent struct {
	Event       *eventlog.Event
	CheckoutOid plumbing.Hash
	IsCheckout  bool
}

// ComputeInverseEvents returns, for each event in tx (in the order
// they should be re-applied, i.e. reverse of how they were recorded),
// the event(s) that undo it.
func ComputeInverseEvents(tx []eventlog.Event) []InverseEvent {
	inverses := make([]InverseEvent, 0, len(tx))
	for i := len(tx) - 1; i >= 0; i-- {
		inverses = append(inverses, invert(tx[i]))
	}
	return inverses
}

func invert(e eventlog.Event) InverseEvent {
	switch e.Kind {
	case eventlog.KindCommit:
		// A Commit event's inverse is itself (re-observing the commit
		// is idempotent); nothing to undo structurally.
		return InverseEvent{Event: &eventlog.Event{
			Timestamp: e.Timestamp, Kind: eventlog.KindCommit, Oid: e.Oid,
		}}
	case eventlog.KindObsolete:
		return InverseEvent{Event: &eventlog.Event{
			Timestamp: e.Timestamp, Kind: eventlog.KindUnobsolete, Oid: e.Oid,
		}}
	case eventlog.KindUnobsolete:
		return InverseEvent{Event: &eventlog.Event{
			Timestamp: e.Timestamp, Kind: eventlog.KindObsolete, Oid: e.Oid,
		}}
	case eventlog.KindRewrite:
		return InverseEvent{Event: &eventlog.Event{
			Timestamp: e.Timestamp, Kind: eventlog.KindRewrite, OldOid: e.NewOid, NewOid: e.OldOid,
		}}
	case eventlog.KindRefUpdate:
		return InverseEvent{Event: &eventlog.Event{
			Timestamp: e.Timestamp, Kind: eventlog.KindRefUpdate, RefName: e.RefName,
			OldOid: e.NewOid, NewOid: e.OldOid,
		}}
	case eventlog.KindWorkingCopySnapshot:
		// Not a data swap: undoing this event means checking out the
		// snapshot commit this event recorded (e.NewOid, captured when
		// the snapshot was taken).
		return InverseEvent{IsCheckout: true, CheckoutOid: e.NewOid}
	default:
		return InverseEvent{Event: &e}
	}
}

// Engine applies undo steps against an event log and a working copy.
type Engine struct {
	Log      *eventlog.Log
	Replayer *eventlog.Replayer
	Checkout WorkingCopyCheckout
}

// UndoNTransactions inverts the last n transactions (most recent
// first) and appends their inverse events as one new transaction,
// returning the new transaction id. Passing n larger than the number
// of transactions available undoes everything there is.
func (eng *Engine) UndoNTransactions(ctx context.Context, n int) (int64, error) {
	txIDs := eng.Replayer.SortedTransactionIDs()
	if len(txIDs) > n {
		txIDs = txIDs[len(txIDs)-n:]
	}
	// Undo most recent transaction first.
	for i, j := 0, len(txIDs)-1; i < j; i, j = i+1, j-1 {
		txIDs[i], txIDs[j] = txIDs[j], txIDs[i]
	}

	newTxID, err := eng.Log.MakeTransactionID(ctx)
	if err != nil {
		return 0, err
	}

	var toAppend []eventlog.Event
	for _, txID := range txIDs {
		events := eng.Replayer.GetTxEventsBeforeCursor(eng.Replayer.Latest(), txID)
		for _, inv := range ComputeInverseEvents(events) {
			if inv.IsCheckout {
				if eng.Checkout != nil {
					if err := eng.Checkout.CheckoutSnapshot(ctx, inv.CheckoutOid); err != nil {
						return 0, err
					}
				}
				continue
			}
			inv.Event.TxID = newTxID
			toAppend = append(toAppend, *inv.Event)
		}
	}

	if err := eng.Log.Append(ctx, toAppend); err != nil {
		return 0, err
	}
	return newTxID, nil
}
