// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package dag

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/hugescm/modules/plumbing"
)

// fakeLookup is an in-memory CommitLookup for graph-algebra tests,
// standing in for the object store.
type fakeLookup struct {
	parents map[plumbing.Hash][]plumbing.Hash
}

func (f *fakeLookup) Commit(_ context.Context, oid plumbing.Hash) (Parents, error) {
	return commitParents{parents: f.parents[oid]}, nil
}

func oid(b byte) plumbing.Hash {
	var h plumbing.Hash
	h[0] = b
	return h
}

// Linear history: a <- b <- c <- d (d newest).
func linearLookup() *fakeLookup {
	a, b, c, d := oid(1), oid(2), oid(3), oid(4)
	return &fakeLookup{parents: map[plumbing.Hash][]plumbing.Hash{
		a: nil,
		b: {a},
		c: {b},
		d: {c},
	}}
}

func TestAncestorsAndDescendants(t *testing.T) {
	ctx := context.Background()
	lk := linearLookup()
	g, err := Open(lk, filepath.Join(t.TempDir(), "cache.gob"))
	require.NoError(t, err)

	a, b, c, d := oid(1), oid(2), oid(3), oid(4)
	ancestors, err := g.Ancestors(ctx, NewCommitSet(d))
	require.NoError(t, err)
	require.ElementsMatch(t, []plumbing.Hash{a, b, c, d}, ancestors.ToSlice())

	descendants := g.Descendants(NewCommitSet(a))
	require.ElementsMatch(t, []plumbing.Hash{a, b, c, d}, descendants.ToSlice())

	isAncestor, err := g.IsAncestor(ctx, a, d)
	require.NoError(t, err)
	require.True(t, isAncestor)

	isAncestor, err = g.IsAncestor(ctx, d, a)
	require.NoError(t, err)
	require.False(t, isAncestor)
}

func TestRootsAndHeads(t *testing.T) {
	ctx := context.Background()
	lk := linearLookup()
	g, err := Open(lk, filepath.Join(t.TempDir(), "cache.gob"))
	require.NoError(t, err)

	a, b, c, d := oid(1), oid(2), oid(3), oid(4)
	set := NewCommitSet(a, b, c, d)
	_, err = g.Ancestors(ctx, set)
	require.NoError(t, err)

	require.Equal(t, NewCommitSet(a), g.Roots(set))
	require.Equal(t, NewCommitSet(d), g.Heads(set))
}

func TestConnectedComponentsSplitsDisjointHistories(t *testing.T) {
	a, b := oid(1), oid(2)
	x, y := oid(10), oid(11)
	lk := &fakeLookup{parents: map[plumbing.Hash][]plumbing.Hash{
		a: nil,
		b: {a},
		x: nil,
		y: {x},
	}}
	g, err := Open(lk, filepath.Join(t.TempDir(), "cache.gob"))
	require.NoError(t, err)

	ctx := context.Background()
	set := NewCommitSet(a, b, x, y)
	_, err = g.Ancestors(ctx, set)
	require.NoError(t, err)

	components := g.GetConnectedComponents(set)
	require.Len(t, components, 2)

	total := 0
	for _, c := range components {
		total += c.Len()
	}
	require.Equal(t, set.Len(), total)
}

func TestFlushAndReopenPreservesCache(t *testing.T) {
	ctx := context.Background()
	lk := linearLookup()
	cachePath := filepath.Join(t.TempDir(), "cache.gob")
	g, err := Open(lk, cachePath)
	require.NoError(t, err)

	d := oid(4)
	_, err = g.Ancestors(ctx, NewCommitSet(d))
	require.NoError(t, err)
	require.NoError(t, g.Flush())

	g2, err := Open(lk, cachePath)
	require.NoError(t, err)
	require.True(t, g2.Known(d))
}
