// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package branchless

import (
	"context"

	"github.com/antgroup/hugescm/internal/eventlog"
	"github.com/antgroup/hugescm/internal/hooks"
	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/pkg/zeta"
)

// refMover is the rewrite.RefMover wired into the in-memory executor's
// epilogue. It moves every branch whose tip was rewritten, fires the
// reference-transaction hook once for the whole batch, appends the
// matching RefUpdate events to the log, and checks out HEAD's new oid
// when HEAD was itself rewritten.
type refMover struct {
	repo *Repository
}

func (m *refMover) MoveBranches(ctx context.Context, rewrittenOids map[plumbing.Hash]plumbing.Hash, headOid plumbing.Hash) error {
	if len(rewrittenOids) == 0 {
		return nil
	}

	db, err := m.repo.Zeta.References()
	if err != nil {
		return err
	}

	var changes []hooks.RefChange
	headMoved := false
	headNewOid := plumbing.ZeroHash

	for _, ref := range db.References() {
		if ref.Type() != plumbing.HashReference || !ref.Name().IsBranch() {
			continue
		}
		oldOid := ref.Hash()
		newOid, rewritten := rewrittenOids[oldOid]
		if !rewritten {
			continue
		}
		if newOid.IsZero() {
			if err := m.repo.Zeta.ReferenceRemove(ref); err != nil {
				return err
			}
		} else if err := m.repo.Zeta.ReferenceUpdate(plumbing.NewHashReference(ref.Name(), newOid), ref); err != nil {
			return err
		}
		changes = append(changes, hooks.RefChange{Old: oldOid, New: newOid, Name: ref.Name()})
		if oldOid == headOid {
			headMoved = true
			headNewOid = newOid
		}
	}

	// HEAD may be detached at a rewritten oid directly, with no branch
	// ref pointing at it to move.
	if !headMoved {
		if newOid, rewritten := rewrittenOids[headOid]; rewritten {
			headMoved = true
			headNewOid = newOid
		}
	}

	if len(changes) > 0 {
		if _, err := m.repo.currentTransaction(ctx, func(txID int64) []eventlog.Event {
			events := make([]eventlog.Event, 0, len(changes))
			for _, c := range changes {
				events = append(events, eventlog.Event{
					Timestamp: nowUnix(),
					TxID:      txID,
					Kind:      eventlog.KindRefUpdate,
					RefName:   c.Name,
					OldOid:    c.Old,
					NewOid:    c.New,
				})
			}
			return events
		}); err != nil {
			return err
		}
		if err := m.repo.hooks.RunReferenceTransaction(ctx, changes); err != nil {
			return err
		}
	}

	if headMoved && !headNewOid.IsZero() {
		return m.repo.Zeta.Worktree().Checkout(ctx, &zeta.CheckoutOptions{Hash: headNewOid, Quiet: true})
	}
	return nil
}
