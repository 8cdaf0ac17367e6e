// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package smartlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/hugescm/internal/dag"
	"github.com/antgroup/hugescm/internal/eventlog"
	"github.com/antgroup/hugescm/modules/plumbing"
)

type constParents struct{ parents []plumbing.Hash }

func (c constParents) ParentHashes() []plumbing.Hash { return c.parents }

type fakeLookup struct{ parents map[plumbing.Hash][]plumbing.Hash }

func (f *fakeLookup) Commit(_ context.Context, oid plumbing.Hash) (dag.Parents, error) {
	return constParents{parents: f.parents[oid]}, nil
}

type fakeTimes struct{ times map[plumbing.Hash]int64 }

func (f *fakeTimes) CommitTime(_ context.Context, oid plumbing.Hash) (int64, error) {
	return f.times[oid], nil
}

func oid(b byte) plumbing.Hash {
	var h plumbing.Hash
	h[0] = b
	return h
}

func TestBuildOmitsUnselectedHistory(t *testing.T) {
	ctx := context.Background()
	a, b, c := oid(1), oid(2), oid(3)
	lk := &fakeLookup{parents: map[plumbing.Hash][]plumbing.Hash{
		a: nil,
		b: {a},
		c: {b},
	}}
	g, err := dag.Open(lk, filepath.Join(t.TempDir(), "cache.gob"))
	require.NoError(t, err)

	snap := &eventlog.ReferencesSnapshot{HeadOid: c, MainBranchOid: plumbing.ZeroHash, BranchOidToName: map[plumbing.Hash]map[string]struct{}{}}
	state := dag.OpenWithoutSyncing(g, snap, []plumbing.Hash{a, b, c}, map[plumbing.Hash]eventlog.CommitActivityStatus{
		a: eventlog.Active, b: eventlog.Active, c: eventlog.Active,
	})

	times := &fakeTimes{times: map[plumbing.Hash]int64{a: 1, b: 2, c: 3}}
	graph, err := Build(ctx, state, dag.NewCommitSet(a, b, c), times, c)
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 3)
	require.True(t, graph.Nodes[len(graph.Nodes)-1].IsHead)
}
