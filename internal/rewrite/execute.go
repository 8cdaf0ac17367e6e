// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rewrite

import (
	"context"
	"time"

	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/trace"
	"github.com/antgroup/hugescm/modules/zeta/object"
	"github.com/antgroup/hugescm/pkg/progress"
)

// ExecuteResultKind discriminates the executor's outcome (spec.md
// §4.5).
type ExecuteResultKind int

const (
	Succeeded ExecuteResultKind = iota
	DeclinedToMerge
	Failed
)

// ExecuteResult is what running a RebasePlan produces.
type ExecuteResult struct {
	Kind ExecuteResultKind
	// RewrittenOids maps every old oid touched by the plan to its new
	// oid, or to the zero hash if the rewrite produced an empty commit
	// that was dropped.
	RewrittenOids map[plumbing.Hash]plumbing.Hash
	// Conflicts is populated when Kind == DeclinedToMerge.
	Conflicts []string
	Err       error
}

// TreeMerger performs the three-way merge a Pick command needs,
// satisfied by *pkg/zeta/odb.ODB's MergeTree in the real backend.
type TreeMerger interface {
	MergeTree(ctx context.Context, base, ours, theirs *object.Tree, branch1, branch2 string) (newTree plumbing.Hash, conflicts []string, err error)
	WriteCommit(ctx context.Context, c *object.Commit) (plumbing.Hash, error)
	Commit(ctx context.Context, oid plumbing.Hash) (*object.Commit, error)
	Root(ctx context.Context, commit *object.Commit) (*object.Tree, error)
}

// RefMover applies the branch-move epilogue once a rebase has
// finished (spec.md §4.5 steps 1-5, execute.rs's move_branches): move
// every reference that pointed at a rewritten oid to its replacement
// (deleting references mapped to the zero hash), fire a single
// reference-transaction notification carrying every (old, new, name)
// triple, and check out HEAD's mapped oid if headOid itself was
// rewritten.
type RefMover interface {
	MoveBranches(ctx context.Context, rewrittenOids map[plumbing.Hash]plumbing.Hash, headOid plumbing.Hash) error
}

// ExecuteOptions configures a single plan execution.
type ExecuteOptions struct {
	PreserveTimestamps bool
	// CommitterNow overrides the committer timestamp used when
	// PreserveTimestamps is false. Tests pass a fixed value since
	// Workflow scripts (and this package) must not call time.Now.
	CommitterNow time.Time
	OnPick       func(oldOid plumbing.Hash)
	// HeadOid is the oid HEAD resolved to before the rebase started.
	// Refs is invoked with it so the epilogue can tell whether HEAD
	// itself needs checking out onto a new oid.
	HeadOid plumbing.Hash
}

// InMemoryExecutor runs a RebasePlan entirely against the object
// database, never touching the working copy — the fast path described
// in spec.md §4.5 and grounded on execute.rs's in_memory module and
// pkg/zeta/worktree_rebase.go's rebaseInternal (same MergeTree +
// WriteEncoded shape).
type InMemoryExecutor struct {
	Merger TreeMerger
	// Refs applies the post-rebase branch-move epilogue. Nil skips it,
	// which is only ever correct in tests that exercise plan execution
	// without a real repository behind it.
	Refs RefMover
}

// Run executes plan starting from labels resolved through
// plan.FirstDestOid. CannotRebaseMergeCommit is never returned: unlike
// the original, Pick here is only ever reached for single-parent
// commits (Merge commands handle multi-parent commits explicitly), so
// there is no separate in-memory merge-commit rejection path to model.
func (e *InMemoryExecutor) Run(ctx context.Context, plan *RebasePlan, opts ExecuteOptions) *ExecuteResult {
	result := &ExecuteResult{RewrittenOids: make(map[plumbing.Hash]plumbing.Hash)}
	labels := make(map[string]plumbing.Hash)
	current := plan.FirstDestOid

	numPicks := 0
	for _, cmd := range plan.Commands {
		if cmd.Kind == Pick {
			numPicks++
		}
	}
	bar := progress.NewBar("rebasing", numPicks, true)
	defer bar.Exit()

	for _, cmd := range plan.Commands {
		switch cmd.Kind {
		case CreateLabel:
			labels[cmd.Label] = current
		case Reset:
			if cmd.Label != "" {
				target, ok := labels[cmd.Label]
				if !ok {
					result.Kind = Failed
					result.Err = trace.Errorf("rewrite: reset to unknown label %q", cmd.Label)
					return result
				}
				current = target
			} else {
				current = cmd.Target
			}
		case Pick:
			newOid, empty, conflicts, err := e.pick(ctx, current, cmd.CommitOid, opts)
			if err != nil {
				result.Kind = Failed
				result.Err = err
				return result
			}
			if len(conflicts) > 0 {
				result.Kind = DeclinedToMerge
				result.Conflicts = conflicts
				return result
			}
			if empty {
				// New tree equals the parent's (spec.md §4.5): drop the
				// commit and leave head at the parent rather than
				// advancing onto a phantom new oid.
				result.RewrittenOids[cmd.CommitOid] = plumbing.ZeroHash
			} else {
				result.RewrittenOids[cmd.CommitOid] = newOid
				current = newOid
			}
			if opts.OnPick != nil {
				opts.OnPick(cmd.CommitOid)
			}
			bar.Add(1)
		case DetectEmptyCommit:
			// Emptiness is detected inline in pick() above, where head
			// can still be rewound before a throwaway commit is ever
			// written; nothing left to check here.
		case SkipUpstreamAppliedCommit:
			result.RewrittenOids[cmd.CommitOid] = plumbing.ZeroHash
		case Merge:
			newOid, conflicts, err := e.merge(ctx, current, cmd, labels, opts)
			if err != nil {
				result.Kind = Failed
				result.Err = err
				return result
			}
			if len(conflicts) > 0 {
				result.Kind = DeclinedToMerge
				result.Conflicts = conflicts
				return result
			}
			result.RewrittenOids[cmd.CommitOid] = newOid
			current = newOid
		case RegisterExtraPostRewriteHook:
			// Handled by the caller after Run returns Succeeded; the
			// executor itself has no hook-invocation dependency.
		}
	}
	if e.Refs != nil {
		if err := e.Refs.MoveBranches(ctx, result.RewrittenOids, opts.HeadOid); err != nil {
			result.Kind = Failed
			result.Err = err
			return result
		}
	}
	result.Kind = Succeeded
	return result
}

// pick cherry-picks sourceOid onto destOid. The bool return reports
// whether the merged tree equals destOid's tree (spec.md §4.5): when
// true no commit is written at all and the caller must leave head at
// destOid instead of advancing onto a dropped, empty commit.
func (e *InMemoryExecutor) pick(ctx context.Context, destOid, sourceOid plumbing.Hash, opts ExecuteOptions) (plumbing.Hash, bool, []string, error) {
	source, err := e.Merger.Commit(ctx, sourceOid)
	if err != nil {
		return plumbing.ZeroHash, false, nil, trace.Errorf("rewrite: load %s: %w", sourceOid, err)
	}
	if len(source.Parents) == 0 {
		return plumbing.ZeroHash, false, nil, trace.Errorf("rewrite: cannot pick root commit %s in memory", sourceOid)
	}
	parentOid := source.Parents[0]
	parent, err := e.Merger.Commit(ctx, parentOid)
	if err != nil {
		return plumbing.ZeroHash, false, nil, trace.Errorf("rewrite: load parent %s: %w", parentOid, err)
	}
	dest, err := e.Merger.Commit(ctx, destOid)
	if err != nil {
		return plumbing.ZeroHash, false, nil, trace.Errorf("rewrite: load dest %s: %w", destOid, err)
	}

	baseTree, err := e.Merger.Root(ctx, parent)
	if err != nil {
		return plumbing.ZeroHash, false, nil, err
	}
	sourceTree, err := e.Merger.Root(ctx, source)
	if err != nil {
		return plumbing.ZeroHash, false, nil, err
	}
	destTree, err := e.Merger.Root(ctx, dest)
	if err != nil {
		return plumbing.ZeroHash, false, nil, err
	}

	newTreeOid, conflicts, err := e.Merger.MergeTree(ctx, baseTree, sourceTree, destTree, "source", "dest")
	if err != nil {
		return plumbing.ZeroHash, false, nil, err
	}
	if len(conflicts) > 0 {
		return plumbing.ZeroHash, false, conflicts, nil
	}
	if newTreeOid == destTree.Hash {
		return plumbing.ZeroHash, true, nil, nil
	}

	committer := source.Committer
	if !opts.PreserveTimestamps {
		committer.When = opts.CommitterNow
	}
	newCommit := &object.Commit{
		Author:    source.Author,
		Committer: committer,
		Parents:   []plumbing.Hash{destOid},
		Tree:      newTreeOid,
		Message:   source.Message,
	}
	newOid, err := e.Merger.WriteCommit(ctx, newCommit)
	if err != nil {
		return plumbing.ZeroHash, false, nil, err
	}
	return newOid, false, nil, nil
}

func (e *InMemoryExecutor) merge(ctx context.Context, destOid plumbing.Hash, cmd RebaseCommand, labels map[string]plumbing.Hash, opts ExecuteOptions) (plumbing.Hash, []string, error) {
	source, err := e.Merger.Commit(ctx, cmd.CommitOid)
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}
	dest, err := e.Merger.Commit(ctx, destOid)
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}
	destTree, err := e.Merger.Root(ctx, dest)
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}
	sourceTree, err := e.Merger.Root(ctx, source)
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}

	newTreeOid := destTree.Hash
	var allConflicts []string
	parents := []plumbing.Hash{destOid}
	for _, label := range cmd.CommitsToMergeLabels {
		otherOid, ok := labels[label]
		if !ok {
			continue
		}
		other, err := e.Merger.Commit(ctx, otherOid)
		if err != nil {
			return plumbing.ZeroHash, nil, err
		}
		otherTree, err := e.Merger.Root(ctx, other)
		if err != nil {
			return plumbing.ZeroHash, nil, err
		}
		merged, conflicts, err := e.Merger.MergeTree(ctx, sourceTree, destTree, otherTree, "dest", "other")
		if err != nil {
			return plumbing.ZeroHash, nil, err
		}
		if len(conflicts) > 0 {
			allConflicts = append(allConflicts, conflicts...)
			continue
		}
		newTreeOid = merged
		parents = append(parents, otherOid)
	}
	if len(allConflicts) > 0 {
		return plumbing.ZeroHash, allConflicts, nil
	}

	committer := source.Committer
	if !opts.PreserveTimestamps {
		committer.When = opts.CommitterNow
	}
	newCommit := &object.Commit{
		Author:    source.Author,
		Committer: committer,
		Parents:   parents,
		Tree:      newTreeOid,
		Message:   source.Message,
	}
	newOid, err := e.Merger.WriteCommit(ctx, newCommit)
	return newOid, nil, err
}
