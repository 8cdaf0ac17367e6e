// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package eventlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/hugescm/modules/plumbing"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "db.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestAppendAndReplayIsDeterministic(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)

	oidA := plumbing.NewHash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	oidB := plumbing.NewHash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	tx1, err := l.MakeTransactionID(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, []Event{
		{Timestamp: 1, TxID: tx1, Kind: KindCommit, Oid: oidA},
		{Timestamp: 1, TxID: tx1, Kind: KindRefUpdate, RefName: plumbing.NewBranchReferenceName("main"), NewOid: oidA},
	}))

	tx2, err := l.MakeTransactionID(ctx)
	require.NoError(t, err)
	require.NotEqual(t, tx1, tx2)
	require.NoError(t, l.Append(ctx, []Event{
		{Timestamp: 2, TxID: tx2, Kind: KindCommit, Oid: oidB},
		{Timestamp: 2, TxID: tx2, Kind: KindObsolete, Oid: oidA},
		{Timestamp: 2, TxID: tx2, Kind: KindRewrite, OldOid: oidA, NewOid: oidB},
		{Timestamp: 2, TxID: tx2, Kind: KindRefUpdate, RefName: plumbing.NewBranchReferenceName("main"), OldOid: oidA, NewOid: oidB},
	}))

	r1, err := NewReplayer(ctx, l)
	require.NoError(t, err)
	r2, err := NewReplayer(ctx, l)
	require.NoError(t, err)

	cursor := r1.Latest()
	require.Equal(t, r1.GetCursorOids(cursor), r2.GetCursorOids(cursor))
	require.Equal(t, r1.GetCursorCommitActivityStatus(cursor), r2.GetCursorCommitActivityStatus(cursor))

	status := r1.GetCursorCommitActivityStatus(cursor)
	require.Equal(t, Obsolete, status[oidA])
	require.Equal(t, Active, status[oidB])

	snap := r1.GetReferencesSnapshot(cursor, "main")
	require.Equal(t, oidB, snap.MainBranchOid)
	require.Contains(t, snap.BranchOidToName[oidB], "main")
}

func TestAdvanceCursorByTransactionNeverSplitsATransaction(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)

	oid := plumbing.NewHash("cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc")
	tx, err := l.MakeTransactionID(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, []Event{
		{Timestamp: 1, TxID: tx, Kind: KindCommit, Oid: oid},
		{Timestamp: 1, TxID: tx, Kind: KindObsolete, Oid: oid},
		{Timestamp: 1, TxID: tx, Kind: KindUnobsolete, Oid: oid},
	}))

	r, err := NewReplayer(ctx, l)
	require.NoError(t, err)

	start := r.MakeDefaultCursor()
	advanced := r.AdvanceCursorByTransaction(start)
	require.Equal(t, r.Latest(), advanced)

	events := r.GetEventsSinceCursor(start)
	require.Len(t, events, 3)
}

func TestGetEventsSinceCursorEmptyAtEnd(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)
	r, err := NewReplayer(ctx, l)
	require.NoError(t, err)
	require.Empty(t, r.GetEventsSinceCursor(r.Latest()))
}
