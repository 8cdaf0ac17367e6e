// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package smartlog implements the smartlog projection (C6): the full
// commit DAG pruned down to a user-facing graph rooted at the visible
// commits intersected with a caller-chosen revset, with immediate vs
// elided (non-immediate) parent links. Grounded on
// _examples/original_source/git-branchless-smartlog/src/lib.rs.
package smartlog

import (
	"context"
	"sort"

	"github.com/antgroup/hugescm/internal/dag"
	"github.com/antgroup/hugescm/modules/plumbing"
)

// Node is one rendered commit in the smartlog graph.
type Node struct {
	Oid plumbing.Hash
	// ParentOid is the immediate parent actually drawn as an edge. It
	// may differ from the commit's real first parent when that parent
	// was elided (not in the node set): in that case ParentOid points
	// to the nearest ancestor that IS in the node set, and
	// NumElidedAncestors counts how many real generations were skipped.
	ParentOid          plumbing.Hash
	NumElidedAncestors int
	// NumOmittedChildren counts the immediate children of this commit
	// that are visible but were not selected into the node set, so the
	// renderer can print "(+N)".
	NumOmittedChildren int
	IsHead             bool
	CommitTime         int64
}

// Graph is the smartlog's pruned, ordered view.
type Graph struct {
	Nodes []*Node
}

// CommitTimeLookup resolves a commit's time, used for deterministic
// child ordering.
type CommitTimeLookup interface {
	CommitTime(ctx context.Context, oid plumbing.Hash) (int64, error)
}

// Build projects state's visible commits, intersected with revset,
// into a smartlog Graph rooted at the greatest common ancestors of the
// selected commits. The main branch is not consulted here.
func Build(ctx context.Context, state *dag.State, revset dag.CommitSet, times CommitTimeLookup, head plumbing.Hash) (*Graph, error) {
	visible, err := state.QueryVisibleCommitsSlow(ctx)
	if err != nil {
		return nil, err
	}
	selected := visible.Intersection(revset)
	if selected.IsEmpty() {
		return &Graph{}, nil
	}

	graph := state.Graph()

	// Root the rendered tree at the merge-base(s) of the selected
	// commits so unrelated history before a fork point is never drawn.
	roots := graph.Roots(selected)
	gca, err := graph.CommonAncestors(ctx, selected.Union(roots))
	if err != nil {
		return nil, err
	}
	anchors := graph.Heads(gca)
	nodeSet := selected.Union(anchors)

	allVisibleDescendants := graph.Descendants(nodeSet).Intersection(visible)
	omitted := allVisibleDescendants.Difference(nodeSet)

	var nodes []*Node
	for oid := range nodeSet {
		parentOid, elided, err := nearestSelectedAncestor(ctx, graph, nodeSet, oid)
		if err != nil {
			return nil, err
		}
		ts, err := times.CommitTime(ctx, oid)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, &Node{
			Oid:                oid,
			ParentOid:          parentOid,
			NumElidedAncestors: elided,
			NumOmittedChildren: countOmittedChildrenOf(graph, oid, omitted, nodeSet),
			IsHead:             oid == head,
			CommitTime:         ts,
		})
	}

	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].CommitTime != nodes[j].CommitTime {
			return nodes[i].CommitTime < nodes[j].CommitTime
		}
		return nodes[i].Oid.String() < nodes[j].Oid.String()
	})
	return &Graph{Nodes: nodes}, nil
}

// nearestSelectedAncestor walks oid's first-parent chain until it
// finds a commit that is itself in nodeSet, counting how many
// generations were skipped. The zero hash with elided==0 means oid is
// itself a root of the rendered graph.
func nearestSelectedAncestor(ctx context.Context, graph *dag.Graph, nodeSet dag.CommitSet, oid plumbing.Hash) (plumbing.Hash, int, error) {
	elided := 0
	current := oid
	for {
		parents, err := graph.Parents(ctx, current)
		if err != nil {
			return plumbing.ZeroHash, 0, err
		}
		if len(parents) == 0 {
			return plumbing.ZeroHash, elided, nil
		}
		parent := parents[0]
		if nodeSet.Contains(parent) {
			return parent, elided, nil
		}
		elided++
		current = parent
	}
}

func countOmittedChildrenOf(graph *dag.Graph, oid plumbing.Hash, omitted, nodeSet dag.CommitSet) int {
	count := 0
	for child := range graph.Children(dag.NewCommitSet(oid)) {
		if omitted.Contains(child) && !nodeSet.Contains(child) {
			count++
		}
	}
	return count
}
