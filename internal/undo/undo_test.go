// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package undo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/hugescm/internal/eventlog"
	"github.com/antgroup/hugescm/modules/plumbing"
)

func TestComputeInverseEventsReversesOrder(t *testing.T) {
	oidA := plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	tx := []eventlog.Event{
		{Kind: eventlog.KindCommit, Oid: oidA},
		{Kind: eventlog.KindObsolete, Oid: oidA},
	}
	inverses := ComputeInverseEvents(tx)
	require.Len(t, inverses, 2)
	require.Equal(t, eventlog.KindUnobsolete, inverses[0].Event.Kind)
	require.Equal(t, eventlog.KindCommit, inverses[1].Event.Kind)
}

func TestUndoNTransactionsRestoresReference(t *testing.T) {
	ctx := context.Background()
	l, err := eventlog.Open(filepath.Join(t.TempDir(), "db.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	oidA := plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	oidB := plumbing.NewHash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	main := plumbing.NewBranchReferenceName("main")

	tx1, err := l.MakeTransactionID(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, []eventlog.Event{
		{TxID: tx1, Kind: eventlog.KindCommit, Oid: oidA},
		{TxID: tx1, Kind: eventlog.KindRefUpdate, RefName: main, NewOid: oidA},
	}))

	tx2, err := l.MakeTransactionID(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, []eventlog.Event{
		{TxID: tx2, Kind: eventlog.KindCommit, Oid: oidB},
		{TxID: tx2, Kind: eventlog.KindRefUpdate, RefName: main, OldOid: oidA, NewOid: oidB},
	}))

	replayer, err := eventlog.NewReplayer(ctx, l)
	require.NoError(t, err)

	eng := &Engine{Log: l, Replayer: replayer}
	_, err = eng.UndoNTransactions(ctx, 1)
	require.NoError(t, err)

	replayer2, err := eventlog.NewReplayer(ctx, l)
	require.NoError(t, err)
	snap := replayer2.GetReferencesSnapshot(replayer2.Latest(), "main")
	require.Equal(t, oidA, snap.MainBranchOid)
}
