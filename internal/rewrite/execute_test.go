// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rewrite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/zeta/object"
)

// fakeMerger is a minimal in-memory TreeMerger: commits and trees are
// preloaded by hash, MergeTree is driven by a caller-supplied function
// so each test can script exactly the merge outcome it needs.
type fakeMerger struct {
	commits     map[plumbing.Hash]*object.Commit
	trees       map[plumbing.Hash]*object.Tree
	mergeTreeFn func(base, ours, theirs plumbing.Hash) plumbing.Hash
	nextOid     byte
}

func (f *fakeMerger) Commit(_ context.Context, h plumbing.Hash) (*object.Commit, error) {
	c, ok := f.commits[h]
	if !ok {
		return nil, fmt.Errorf("fakeMerger: commit %s not found", h)
	}
	return c, nil
}

func (f *fakeMerger) Root(_ context.Context, c *object.Commit) (*object.Tree, error) {
	t, ok := f.trees[c.Tree]
	if !ok {
		return nil, fmt.Errorf("fakeMerger: tree %s not found", c.Tree)
	}
	return t, nil
}

func (f *fakeMerger) MergeTree(_ context.Context, base, ours, theirs *object.Tree, _, _ string) (plumbing.Hash, []string, error) {
	return f.mergeTreeFn(base.Hash, ours.Hash, theirs.Hash), nil, nil
}

func (f *fakeMerger) WriteCommit(_ context.Context, c *object.Commit) (plumbing.Hash, error) {
	f.nextOid++
	var h plumbing.Hash
	h[0] = f.nextOid
	c.Hash = h
	f.commits[h] = c
	return h, nil
}

func tree(h plumbing.Hash) *object.Tree {
	return &object.Tree{Hash: h}
}

// TestPickEmptyCommitRewindsHeadToParent exercises the §4.5 rule: when
// a cherry-pick's merged tree equals the destination's tree the commit
// is dropped, and the *next* pick must land on the destination, not on
// the dropped commit's never-written oid.
func TestPickEmptyCommitRewindsHeadToParent(t *testing.T) {
	ctx := context.Background()

	treeP := oid(10)
	treeD := oid(20)
	treeC2 := oid(21)
	mergedTree := oid(22)

	parent := &object.Commit{Hash: oid(1), Tree: treeP}
	c1 := &object.Commit{Hash: oid(2), Tree: treeP, Parents: []plumbing.Hash{parent.Hash}}
	c2 := &object.Commit{Hash: oid(3), Tree: treeC2, Parents: []plumbing.Hash{c1.Hash}}
	dest := &object.Commit{Hash: oid(4), Tree: treeD}

	merger := &fakeMerger{
		commits: map[plumbing.Hash]*object.Commit{
			parent.Hash: parent,
			c1.Hash:     c1,
			c2.Hash:     c2,
			dest.Hash:   dest,
		},
		trees: map[plumbing.Hash]*object.Tree{
			treeP:  tree(treeP),
			treeD:  tree(treeD),
			treeC2: tree(treeC2),
		},
		mergeTreeFn: func(base, ours, theirs plumbing.Hash) plumbing.Hash {
			if ours == base {
				// Source introduced no change relative to its parent:
				// the merge is a no-op, producing dest's own tree back.
				return theirs
			}
			return mergedTree
		},
	}

	plan := &RebasePlan{
		FirstDestOid: dest.Hash,
		Commands: []RebaseCommand{
			{Kind: Pick, CommitOid: c1.Hash},
			{Kind: DetectEmptyCommit, CommitOid: c1.Hash},
			{Kind: Pick, CommitOid: c2.Hash},
		},
	}

	executor := &InMemoryExecutor{Merger: merger}
	result := executor.Run(ctx, plan, ExecuteOptions{PreserveTimestamps: true, CommitterNow: time.Unix(0, 0)})

	require.Equal(t, Succeeded, result.Kind)
	require.Equal(t, plumbing.ZeroHash, result.RewrittenOids[c1.Hash])

	newC2Oid := result.RewrittenOids[c2.Hash]
	require.False(t, newC2Oid.IsZero())
	newC2, ok := merger.commits[newC2Oid]
	require.True(t, ok)
	require.Equal(t, []plumbing.Hash{dest.Hash}, newC2.Parents, "c2 must be rebased onto dest, not onto the dropped empty commit")
}

// fakeRefMover records how the executor's epilogue invoked it.
type fakeRefMover struct {
	called        bool
	rewrittenOids map[plumbing.Hash]plumbing.Hash
	headOid       plumbing.Hash
	err           error
}

func (f *fakeRefMover) MoveBranches(_ context.Context, rewrittenOids map[plumbing.Hash]plumbing.Hash, headOid plumbing.Hash) error {
	f.called = true
	f.rewrittenOids = rewrittenOids
	f.headOid = headOid
	return f.err
}

func TestRunInvokesRefMoverEpilogueOnSuccess(t *testing.T) {
	ctx := context.Background()

	treeD := oid(30)
	treeC := oid(31)
	parent := &object.Commit{Hash: oid(5), Tree: treeD}
	src := &object.Commit{Hash: oid(6), Tree: treeC, Parents: []plumbing.Hash{parent.Hash}}
	dest := &object.Commit{Hash: oid(7), Tree: treeD}

	merger := &fakeMerger{
		commits: map[plumbing.Hash]*object.Commit{parent.Hash: parent, src.Hash: src, dest.Hash: dest},
		trees:   map[plumbing.Hash]*object.Tree{treeD: tree(treeD), treeC: tree(treeC)},
		mergeTreeFn: func(base, ours, theirs plumbing.Hash) plumbing.Hash {
			return oid(99)
		},
	}

	plan := &RebasePlan{
		FirstDestOid: dest.Hash,
		Commands:     []RebaseCommand{{Kind: Pick, CommitOid: src.Hash}},
	}

	mover := &fakeRefMover{}
	executor := &InMemoryExecutor{Merger: merger, Refs: mover}
	headOid := oid(42)
	result := executor.Run(ctx, plan, ExecuteOptions{PreserveTimestamps: true, HeadOid: headOid})

	require.Equal(t, Succeeded, result.Kind)
	require.True(t, mover.called)
	require.Equal(t, result.RewrittenOids, mover.rewrittenOids)
	require.Equal(t, headOid, mover.headOid)
}

func TestRunFailsWhenRefMoverErrors(t *testing.T) {
	ctx := context.Background()

	treeD := oid(40)
	treeC := oid(41)
	parent := &object.Commit{Hash: oid(8), Tree: treeD}
	src := &object.Commit{Hash: oid(9), Tree: treeC, Parents: []plumbing.Hash{parent.Hash}}
	dest := &object.Commit{Hash: oid(11), Tree: treeD}

	merger := &fakeMerger{
		commits:     map[plumbing.Hash]*object.Commit{parent.Hash: parent, src.Hash: src, dest.Hash: dest},
		trees:       map[plumbing.Hash]*object.Tree{treeD: tree(treeD), treeC: tree(treeC)},
		mergeTreeFn: func(base, ours, theirs plumbing.Hash) plumbing.Hash { return oid(98) },
	}

	plan := &RebasePlan{
		FirstDestOid: dest.Hash,
		Commands:     []RebaseCommand{{Kind: Pick, CommitOid: src.Hash}},
	}

	mover := &fakeRefMover{err: fmt.Errorf("ref locked")}
	executor := &InMemoryExecutor{Merger: merger, Refs: mover}
	result := executor.Run(ctx, plan, ExecuteOptions{PreserveTimestamps: true})

	require.Equal(t, Failed, result.Kind)
	require.ErrorContains(t, result.Err, "ref locked")
}
