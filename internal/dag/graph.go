// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package dag

import (
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"sync"

	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/trace"
)

// CommitLookup resolves a single commit's immediate parents. It is
// satisfied by *pkg/zeta/odb.ODB (via backend.Database.Commit), kept
// narrow so Graph has no compile-time dependency on the object store.
type CommitLookup interface {
	Commit(ctx context.Context, oid plumbing.Hash) (Parents, error)
}

// Parents is the minimal shape Graph needs out of a decoded commit.
type Parents interface {
	ParentHashes() []plumbing.Hash
}

// Graph is the commit-graph backend adapter (C1): a locally cached
// parent/child adjacency index over the object store, persisted under
// "<repo>/.zeta/branchless/dag/" so repeated opens don't re-walk
// history already seen. Grounded on the teacher's commit walkers
// (modules/zeta/object/commit_walker_topo_order.go) for the underlying
// one-commit-at-a-time parent fetch, and on
// _examples/original_source/git-branchless-lib/src/core/dag.rs for
// the query surface this type backs.
type Graph struct {
	lookup CommitLookup

	mu       sync.RWMutex
	parents  map[plumbing.Hash][]plumbing.Hash
	children map[plumbing.Hash][]plumbing.Hash

	cachePath string
}

type cacheFile struct {
	Parents map[plumbing.Hash][]plumbing.Hash
}

// Open loads (or initializes) the adjacency cache at cachePath, a file
// path such as "<repo>/.zeta/branchless/dag/cache.gob". A missing file
// is not an error: the graph simply starts empty.
func Open(lookup CommitLookup, cachePath string) (*Graph, error) {
	g := &Graph{
		lookup:    lookup,
		parents:   make(map[plumbing.Hash][]plumbing.Hash),
		children:  make(map[plumbing.Hash][]plumbing.Hash),
		cachePath: cachePath,
	}
	f, err := os.Open(cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return g, nil
		}
		return nil, trace.Errorf("dag: open cache %s: %w", cachePath, err)
	}
	defer func() { _ = f.Close() }()

	var cf cacheFile
	if err := gob.NewDecoder(f).Decode(&cf); err != nil {
		return nil, trace.Errorf("dag: decode cache %s: %w", cachePath, err)
	}
	for oid, parents := range cf.Parents {
		g.record(oid, parents)
	}
	return g, nil
}

// Flush persists the current adjacency cache to disk.
func (g *Graph) Flush() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(g.cachePath), 0o755); err != nil {
		return trace.Errorf("dag: mkdir cache dir: %w", err)
	}
	tmp := g.cachePath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return trace.Errorf("dag: create cache %s: %w", tmp, err)
	}
	if err := gob.NewEncoder(f).Encode(cacheFile{Parents: g.parents}); err != nil {
		_ = f.Close()
		return trace.Errorf("dag: encode cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return trace.Errorf("dag: close cache: %w", err)
	}
	return os.Rename(tmp, g.cachePath)
}

// record registers oid's parent edges in both directions. Caller must
// hold g.mu for writing.
func (g *Graph) record(oid plumbing.Hash, parents []plumbing.Hash) {
	g.parents[oid] = parents
	for _, p := range parents {
		g.children[p] = appendUnique(g.children[p], oid)
	}
}

func appendUnique(s []plumbing.Hash, v plumbing.Hash) []plumbing.Hash {
	for _, e := range s {
		if e == v {
			return s
		}
	}
	return append(s, v)
}

// Parents returns oid's immediate parents, fetching and caching them
// from the backend on first access.
func (g *Graph) Parents(ctx context.Context, oid plumbing.Hash) ([]plumbing.Hash, error) {
	g.mu.RLock()
	if p, ok := g.parents[oid]; ok {
		g.mu.RUnlock()
		return p, nil
	}
	g.mu.RUnlock()

	commit, err := g.lookup.Commit(ctx, oid)
	if err != nil {
		return nil, trace.Errorf("dag: fetch commit %s: %w", oid, err)
	}
	parents := commit.ParentHashes()

	g.mu.Lock()
	g.record(oid, parents)
	g.mu.Unlock()
	return parents, nil
}

// AddHeadsAndFlush walks the ancestry of every head into the cache and
// persists it, the equivalent of the original's eager `Dag::new` sync:
// every query below assumes the relevant region of history has already
// been pulled in this way.
func (g *Graph) AddHeadsAndFlush(ctx context.Context, heads []plumbing.Hash) error {
	if _, err := g.Ancestors(ctx, NewCommitSet(heads...)); err != nil {
		return err
	}
	return g.Flush()
}

// Known reports whether oid's parents have already been loaded.
func (g *Graph) Known(oid plumbing.Hash) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.parents[oid]
	return ok
}

// Ancestors returns set ∪ every ancestor of every element of set
// (inclusive), fetching and caching any commit not yet known.
func (g *Graph) Ancestors(ctx context.Context, set CommitSet) (CommitSet, error) {
	out := make(CommitSet, set.Len())
	queue := set.ToSlice()
	for len(queue) > 0 {
		oid := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if out.Contains(oid) {
			continue
		}
		out.Add(oid)
		parents, err := g.Parents(ctx, oid)
		if err != nil {
			return nil, err
		}
		for _, p := range parents {
			if !out.Contains(p) {
				queue = append(queue, p)
			}
		}
	}
	return out, nil
}

// Descendants returns set ∪ every descendant of every element of set
// (inclusive), using only already-cached child edges: callers must
// have synced the relevant forward history (AddHeadsAndFlush from a
// superset of heads) before relying on this.
func (g *Graph) Descendants(set CommitSet) CommitSet {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(CommitSet, set.Len())
	queue := set.ToSlice()
	for len(queue) > 0 {
		oid := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if out.Contains(oid) {
			continue
		}
		out.Add(oid)
		for _, c := range g.children[oid] {
			if !out.Contains(c) {
				queue = append(queue, c)
			}
		}
	}
	return out
}

// Roots returns the elements of set that have no parent within set.
func (g *Graph) Roots(set CommitSet) CommitSet {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(CommitSet)
	for oid := range set {
		isRoot := true
		for _, p := range g.parents[oid] {
			if set.Contains(p) {
				isRoot = false
				break
			}
		}
		if isRoot {
			out.Add(oid)
		}
	}
	return out
}

// Heads returns the elements of set that have no child within set.
func (g *Graph) Heads(set CommitSet) CommitSet {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(CommitSet)
	for oid := range set {
		isHead := true
		for _, c := range g.children[oid] {
			if set.Contains(c) {
				isHead = false
				break
			}
		}
		if isHead {
			out.Add(oid)
		}
	}
	return out
}

// Children returns the immediate children of every element of set
// that are themselves known to the graph.
func (g *Graph) Children(set CommitSet) CommitSet {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(CommitSet)
	for oid := range set {
		for _, c := range g.children[oid] {
			out.Add(c)
		}
	}
	return out
}

// Range returns every commit that is both a descendant of some root in
// roots and an ancestor of some head in heads — the set of commits "on
// the way" between them, inclusive.
func (g *Graph) Range(ctx context.Context, roots, heads CommitSet) (CommitSet, error) {
	ancestorsOfHeads, err := g.Ancestors(ctx, heads)
	if err != nil {
		return nil, err
	}
	descendantsOfRoots := g.Descendants(roots)
	return ancestorsOfHeads.Intersection(descendantsOfRoots), nil
}

// Only returns the elements of include that are not ancestors of any
// element of exclude (spec.md's "only(reachable, unreachable)").
func (g *Graph) Only(ctx context.Context, include, exclude CommitSet) (CommitSet, error) {
	excludeAncestors, err := g.Ancestors(ctx, exclude)
	if err != nil {
		return nil, err
	}
	return include.Difference(excludeAncestors), nil
}

// IsAncestor reports whether candidate is an ancestor of (or equal to)
// descendant.
func (g *Graph) IsAncestor(ctx context.Context, candidate, descendant plumbing.Hash) (bool, error) {
	if candidate == descendant {
		return true, nil
	}
	ancestors, err := g.Ancestors(ctx, NewCommitSet(descendant))
	if err != nil {
		return false, err
	}
	return ancestors.Contains(candidate), nil
}

// CommonAncestors returns the set of commits that are ancestors of
// every element of set.
func (g *Graph) CommonAncestors(ctx context.Context, set CommitSet) (CommitSet, error) {
	oids := set.ToSlice()
	if len(oids) == 0 {
		return NewCommitSet(), nil
	}
	common, err := g.Ancestors(ctx, NewCommitSet(oids[0]))
	if err != nil {
		return nil, err
	}
	for _, oid := range oids[1:] {
		a, err := g.Ancestors(ctx, NewCommitSet(oid))
		if err != nil {
			return nil, err
		}
		common = common.Intersection(a)
		if common.IsEmpty() {
			break
		}
	}
	return common, nil
}

// GCAOne returns one greatest common ancestor of set (the heads of its
// common-ancestor set), or the zero hash if there is none.
func (g *Graph) GCAOne(ctx context.Context, set CommitSet) (plumbing.Hash, error) {
	all, err := g.GCAAll(ctx, set)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if all.IsEmpty() {
		return plumbing.ZeroHash, nil
	}
	return all.ToSlice()[0], nil
}

// GCAAll returns every greatest common ancestor of set: the heads of
// the full common-ancestor set.
func (g *Graph) GCAAll(ctx context.Context, set CommitSet) (CommitSet, error) {
	common, err := g.CommonAncestors(ctx, set)
	if err != nil {
		return nil, err
	}
	return g.Heads(common), nil
}

// GetConnectedComponents partitions set into maximal subsets that are
// mutually reachable via parent/child edges restricted to set itself.
// Deliberately O(n²) — see DESIGN.md Open Question 1, matching
// _examples/original_source/.../dag.rs's documented algorithm exactly.
func (g *Graph) GetConnectedComponents(set CommitSet) []CommitSet {
	g.mu.RLock()
	defer g.mu.RUnlock()

	remaining := set.Clone()
	all := set.ToSlice()
	var components []CommitSet

	for _, start := range all {
		if !remaining.Contains(start) {
			continue
		}
		component := NewCommitSet(start)
		remaining = remaining.Difference(NewCommitSet(start))
		grew := true
		for grew {
			grew = false
			for oid := range component.Clone() {
				neighbors := append(append([]plumbing.Hash{}, g.parents[oid]...), g.children[oid]...)
				for _, n := range neighbors {
					if remaining.Contains(n) {
						component.Add(n)
						remaining = remaining.Difference(NewCommitSet(n))
						grew = true
					}
				}
			}
		}
		components = append(components, component)
	}
	return components
}
