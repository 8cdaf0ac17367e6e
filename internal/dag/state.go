// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package dag

import (
	"context"
	"sync"

	"github.com/antgroup/hugescm/internal/eventlog"
	"github.com/antgroup/hugescm/modules/plumbing"
)

// memo holds a once-computed (value, error) pair, the Go analogue of
// the original's OnceCell<Result<CommitSet>> fields.
type memo struct {
	once sync.Once
	val  CommitSet
	err  error
}

func (m *memo) get(compute func() (CommitSet, error)) (CommitSet, error) {
	m.once.Do(func() { m.val, m.err = compute() })
	return m.val, m.err
}

// State is the DAG & visibility engine (C3): a Graph plus the
// reference/activity facts derived from the event log at a particular
// cursor, with the public/visible/draft classification computed
// lazily and cached exactly once per State value — grounded on
// _examples/original_source/git-branchless-lib/src/core/dag.rs's
// `Dag` struct.
type State struct {
	graph *Graph

	headCommit       plumbing.Hash
	mainBranchCommit plumbing.Hash
	branchCommits    CommitSet
	observedCommits  CommitSet
	obsoleteCommits  CommitSet

	publicCommits  memo
	visibleHeads   memo
	visibleCommits memo
	draftCommits   memo
}

// OpenWithoutSyncing builds a State from already-known facts, without
// walking the object store for any commits not already cached in
// graph. Used by callers that have just called graph.AddHeadsAndFlush
// themselves (e.g. OpenAndSync) or that know the graph is already
// warm.
func OpenWithoutSyncing(graph *Graph, snapshot *eventlog.ReferencesSnapshot, observedOids []plumbing.Hash, activity map[plumbing.Hash]eventlog.CommitActivityStatus) *State {
	branches := make(CommitSet)
	for oid := range snapshot.BranchOidToName {
		branches.Add(oid)
	}
	observed := NewCommitSet(observedOids...)
	obsolete := make(CommitSet)
	for oid, status := range activity {
		if status == eventlog.Obsolete {
			obsolete.Add(oid)
		}
	}
	return &State{
		graph:            graph,
		headCommit:       snapshot.HeadOid,
		mainBranchCommit: snapshot.MainBranchOid,
		branchCommits:    branches,
		observedCommits:  observed,
		obsoleteCommits:  obsolete,
	}
}

// OpenAndSync builds a State for the snapshot at cursor and ensures
// every commit that snapshot references is loaded into graph.
func OpenAndSync(ctx context.Context, graph *Graph, replayer *eventlog.Replayer, cursor eventlog.Cursor, mainBranchName string) (*State, error) {
	snapshot := replayer.GetReferencesSnapshot(cursor, mainBranchName)
	observedOids := replayer.GetCursorOids(cursor)
	activity := replayer.GetCursorCommitActivityStatus(cursor)

	heads := NewCommitSet(observedOids...)
	heads.Add(snapshot.HeadOid)
	heads.Add(snapshot.MainBranchOid)
	for oid := range snapshot.BranchOidToName {
		heads.Add(oid)
	}
	delete(heads, plumbing.ZeroHash)

	if err := graph.AddHeadsAndFlush(ctx, heads.ToSlice()); err != nil {
		return nil, err
	}
	return OpenWithoutSyncing(graph, snapshot, observedOids, activity), nil
}

// SetCursor rebuilds the State at a different cursor, reusing the same
// underlying Graph (and therefore its cache).
func (s *State) SetCursor(ctx context.Context, replayer *eventlog.Replayer, cursor eventlog.Cursor, mainBranchName string) (*State, error) {
	return OpenAndSync(ctx, s.graph, replayer, cursor, mainBranchName)
}

// ClearObsoleteCommits returns a State identical to s but with every
// commit's obsolescence cleared, used by `git undo` style operations
// that want to "unhide everything" without touching the event log.
func (s *State) ClearObsoleteCommits() *State {
	clone := *s
	clone.obsoleteCommits = make(CommitSet)
	clone.publicCommits = memo{}
	clone.visibleHeads = memo{}
	clone.visibleCommits = memo{}
	clone.draftCommits = memo{}
	return &clone
}

// Graph exposes the underlying Graph for callers that need raw
// reachability queries (the planner, smartlog).
func (s *State) Graph() *Graph { return s.graph }

// HeadCommit returns the currently checked-out commit.
func (s *State) HeadCommit() plumbing.Hash { return s.headCommit }

// MainBranchCommit returns the commit the main branch points at, or
// the zero hash if there is none.
func (s *State) MainBranchCommit() plumbing.Hash { return s.mainBranchCommit }

// IsPublicCommit reports whether oid is an ancestor of (or equal to)
// the main branch commit.
func (s *State) IsPublicCommit(ctx context.Context, oid plumbing.Hash) (bool, error) {
	if s.mainBranchCommit.IsZero() {
		return false, nil
	}
	return s.graph.IsAncestor(ctx, oid, s.mainBranchCommit)
}

// QueryPublicCommits returns every commit that is an ancestor of the
// main branch commit.
func (s *State) QueryPublicCommits(ctx context.Context) (CommitSet, error) {
	return s.publicCommits.get(func() (CommitSet, error) {
		if s.mainBranchCommit.IsZero() {
			return NewCommitSet(), nil
		}
		return s.graph.Ancestors(ctx, NewCommitSet(s.mainBranchCommit))
	})
}

// QueryVisibleHeads returns heads(observed \ obsolete ∪ {head} ∪
// {main} ∪ branches) — the commits a user would currently consider
// "tips" of work.
func (s *State) QueryVisibleHeads(ctx context.Context) (CommitSet, error) {
	return s.visibleHeads.get(func() (CommitSet, error) {
		candidates := s.observedCommits.Difference(s.obsoleteCommits)
		candidates = candidates.Union(s.branchCommits)
		if !s.headCommit.IsZero() {
			candidates.Add(s.headCommit)
		}
		if !s.mainBranchCommit.IsZero() {
			candidates.Add(s.mainBranchCommit)
		}
		return s.graph.Heads(candidates), nil
	})
}

// QueryVisibleCommitsSlow returns the ancestors of the visible heads —
// named "slow" to match the original's naming, since it is an eager
// closure over potentially large history rather than an incremental
// query.
func (s *State) QueryVisibleCommitsSlow(ctx context.Context) (CommitSet, error) {
	return s.visibleCommits.get(func() (CommitSet, error) {
		heads, err := s.QueryVisibleHeads(ctx)
		if err != nil {
			return nil, err
		}
		return s.graph.Ancestors(ctx, heads)
	})
}

// FilterVisibleCommits restricts set to the commits that are both in
// set and reachable from the visible heads.
func (s *State) FilterVisibleCommits(ctx context.Context, set CommitSet) (CommitSet, error) {
	heads, err := s.QueryVisibleHeads(ctx)
	if err != nil {
		return nil, err
	}
	ranged, err := s.graph.Range(ctx, set, heads)
	if err != nil {
		return nil, err
	}
	return set.Intersection(ranged), nil
}

// QueryDraftCommits returns every commit that is visible but not
// public: only(visible_heads, main_branch_commit).
func (s *State) QueryDraftCommits(ctx context.Context) (CommitSet, error) {
	return s.draftCommits.get(func() (CommitSet, error) {
		visible, err := s.QueryVisibleCommitsSlow(ctx)
		if err != nil {
			return nil, err
		}
		if s.mainBranchCommit.IsZero() {
			return visible, nil
		}
		return s.graph.Only(ctx, visible, NewCommitSet(s.mainBranchCommit))
	})
}

// QueryStackCommits returns every commit belonging to the same
// "stack" (contiguous draft range) as any commit in commitSet: the
// roots of the draft set reachable below commitSet, ranged back up
// through the draft set.
func (s *State) QueryStackCommits(ctx context.Context, commitSet CommitSet) (CommitSet, error) {
	drafts, err := s.QueryDraftCommits(ctx)
	if err != nil {
		return nil, err
	}
	draftRoots := s.graph.Roots(drafts)
	toCommitSet, err := s.graph.Range(ctx, draftRoots, commitSet)
	if err != nil {
		return nil, err
	}
	heads, err := s.QueryVisibleHeads(ctx)
	if err != nil {
		return nil, err
	}
	return s.graph.Range(ctx, toCommitSet, heads.Union(commitSet))
}
