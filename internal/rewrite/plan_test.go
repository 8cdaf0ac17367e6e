// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rewrite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antgroup/hugescm/internal/dag"
	"github.com/antgroup/hugescm/modules/plumbing"
)

func oid(b byte) plumbing.Hash {
	var h plumbing.Hash
	h[0] = b
	return h
}

func TestCheckForCyclesDetectsTwoNodeCycle(t *testing.T) {
	a, b := oid(1), oid(2)
	constraints := map[plumbing.Hash]dag.CommitSet{
		a: dag.NewCommitSet(b),
		b: dag.NewCommitSet(a),
	}
	err := checkForCycles(constraints)
	require.Error(t, err)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	require.NotEmpty(t, cycleErr.Cycle)
}

func TestCheckForCyclesAcceptsDAG(t *testing.T) {
	a, b, c := oid(1), oid(2), oid(3)
	constraints := map[plumbing.Hash]dag.CommitSet{
		a: dag.NewCommitSet(b, c),
	}
	require.NoError(t, checkForCycles(constraints))
}

func TestFindRootsReturnsOnlyNonSourceKeys(t *testing.T) {
	a, b, c := oid(1), oid(2), oid(3)
	constraints := map[plumbing.Hash]dag.CommitSet{
		a: dag.NewCommitSet(b),
		b: dag.NewCommitSet(c),
	}
	roots := findRoots(constraints)
	require.Equal(t, []plumbing.Hash{a}, roots)
}

func TestTouchedPathsCacheSharePaths(t *testing.T) {
	a := map[string]struct{}{"foo.go": {}, "bar.go": {}}
	b := map[string]struct{}{"bar.go": {}}
	require.True(t, SharePaths(a, b))

	c := map[string]struct{}{"baz.go": {}}
	require.False(t, SharePaths(a, c))
}
