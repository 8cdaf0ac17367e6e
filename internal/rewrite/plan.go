// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package rewrite implements the rebase planner (C4) and the dual
// in-memory/on-disk rebase executor (C5), grounded on
// _examples/original_source/src/core/rewrite/plan.rs and execute.rs.
package rewrite

import (
	"context"
	"fmt"
	"strings"

	"github.com/antgroup/hugescm/internal/dag"
	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/trace"
)

// CommandKind discriminates RebaseCommand's tagged union (spec.md §3,
// mirroring plan.rs's RebaseCommand enum).
type CommandKind int

const (
	CreateLabel CommandKind = iota
	Reset
	Pick
	Merge
	RegisterExtraPostRewriteHook
	DetectEmptyCommit
	SkipUpstreamAppliedCommit
)

func (k CommandKind) String() string {
	switch k {
	case CreateLabel:
		return "create-label"
	case Reset:
		return "reset"
	case Pick:
		return "pick"
	case Merge:
		return "merge"
	case RegisterExtraPostRewriteHook:
		return "register-extra-post-rewrite-hook"
	case DetectEmptyCommit:
		return "detect-empty-commit"
	case SkipUpstreamAppliedCommit:
		return "skip-upstream-applied-commit"
	default:
		return "unknown"
	}
}

// RebaseCommand is one step of a RebasePlan. Only the fields relevant
// to Kind are meaningful, matching plan.rs's enum-of-structs shape
// collapsed into a single Go struct (spec.md's wire grammar, §6, does
// the same).
type RebaseCommand struct {
	Kind CommandKind

	// CreateLabel, Reset (when Label != ""): a named checkpoint.
	Label string

	// Reset (when Label == ""): reset directly to this oid.
	Target plumbing.Hash

	// Pick, Merge, DetectEmptyCommit, SkipUpstreamAppliedCommit: the
	// commit being replayed.
	CommitOid plumbing.Hash

	// Merge: the other parents being folded in, by label.
	CommitsToMergeLabels []string
}

func labelReset(label string) RebaseCommand {
	return RebaseCommand{Kind: Reset, Label: label}
}

func oidReset(oid plumbing.Hash) RebaseCommand {
	return RebaseCommand{Kind: Reset, Target: oid}
}

// RebasePlan is the complete, ordered command sequence the executor
// runs (spec.md §3).
type RebasePlan struct {
	FirstDestOid plumbing.Hash
	Commands     []RebaseCommand
}

// PatchIDComputer computes a stable content fingerprint for a commit's
// changes, used to detect commits already applied upstream (plan.rs's
// get_upstream_patch_ids pipeline). Returning a zero-length id means
// "could not compute" and disables dedup for that commit, never a
// false positive skip.
type PatchIDComputer interface {
	PatchID(ctx context.Context, oid plumbing.Hash) (string, error)
}

// CycleError reports a cycle detected in the move-request constraint
// graph, carrying the exact cycle as a witness (spec.md's planner
// "cycle detection" testable property).
type CycleError struct {
	Cycle []plumbing.Hash
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, oid := range e.Cycle {
		parts[i] = oid.String()
	}
	return fmt.Sprintf("rewrite: cycle detected in rebase plan: %s", strings.Join(parts, " -> "))
}

// buildState is the planner's working state while constructing a plan,
// mirroring plan.rs's BuildState.
type buildState struct {
	// constraints[dest] is the set of sources that must become
	// (possibly indirect, via further constraints) children of dest.
	constraints map[plumbing.Hash]dag.CommitSet
	usedLabels  map[string]int
	// mergeCommitParentLabels[mergeCommit][parent] = label name once
	// that parent's rewritten position has been labeled.
	mergeCommitParentLabels map[plumbing.Hash]map[plumbing.Hash]string
}

// Builder constructs a RebasePlan from a set of move requests,
// expanding them across descendants, detecting cycles, and emitting a
// depth-first command sequence. Grounded line-for-line on plan.rs's
// RebasePlanBuilder.
type Builder struct {
	state   *dag.State
	patchID PatchIDComputer

	initialConstraints map[plumbing.Hash]dag.CommitSet
	mainBranchOid      plumbing.Hash
	// UpstreamPatchIDs, when non-nil, are the patch ids of commits
	// already present on the destination branch: any source commit
	// whose own patch id matches is emitted as
	// SkipUpstreamAppliedCommit instead of Pick.
	UpstreamPatchIDs map[string]struct{}
}

// NewBuilder creates a Builder against state, used to expand move
// requests across descendants and to classify ancestry.
func NewBuilder(state *dag.State, patchID PatchIDComputer) *Builder {
	return &Builder{
		state:              state,
		patchID:            patchID,
		initialConstraints: make(map[plumbing.Hash]dag.CommitSet),
	}
}

// MoveSubtree registers that source (and its descendants) should be
// rebased onto dest.
func (b *Builder) MoveSubtree(source, dest plumbing.Hash) {
	if b.initialConstraints[dest] == nil {
		b.initialConstraints[dest] = dag.NewCommitSet()
	}
	b.initialConstraints[dest].Add(source)
}

// Build runs the full planning pipeline: descendant expansion, cycle
// detection, root enumeration, and depth-first command emission.
func (b *Builder) Build(ctx context.Context) (*RebasePlan, error) {
	state := &buildState{
		constraints:             cloneConstraints(b.initialConstraints),
		usedLabels:              make(map[string]int),
		mergeCommitParentLabels: make(map[plumbing.Hash]map[plumbing.Hash]string),
	}

	if err := b.addDescendantConstraints(ctx, state); err != nil {
		return nil, err
	}
	if err := checkForCycles(state.constraints); err != nil {
		return nil, err
	}

	roots := findRoots(state.constraints)
	if len(roots) == 0 {
		return &RebasePlan{}, nil
	}

	plan := &RebasePlan{FirstDestOid: roots[0]}
	includedInPlan := dag.NewCommitSet()
	for _, root := range roots {
		plan.Commands = append(plan.Commands, oidReset(root))
		sources := state.constraints[root].ToSlice()
		for _, source := range sources {
			cmds, err := b.emit(ctx, state, root, source, includedInPlan)
			if err != nil {
				return nil, err
			}
			plan.Commands = append(plan.Commands, cmds...)
		}
	}
	plan.Commands = append(plan.Commands, RebaseCommand{Kind: RegisterExtraPostRewriteHook})

	b.checkAllCommitsIncluded(state, includedInPlan)
	return plan, nil
}

// addDescendantConstraints expands every (dest, source) move request
// so that source's visible descendants are constrained to follow it,
// recursively.
func (b *Builder) addDescendantConstraints(ctx context.Context, state *buildState) error {
	visible, err := b.state.QueryVisibleCommitsSlow(ctx)
	if err != nil {
		return err
	}

	queue := rootDestPairs(b.initialConstraints)
	seen := make(map[[2]plumbing.Hash]struct{})
	for len(queue) > 0 {
		pair := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		dest, source := pair[0], pair[1]

		if state.constraints[dest] == nil {
			state.constraints[dest] = dag.NewCommitSet()
		}
		state.constraints[dest].Add(source)

		children := b.state.Graph().Children(dag.NewCommitSet(source))
		for child := range children {
			if !visible.Contains(child) {
				continue
			}
			queue = append(queue, [2]plumbing.Hash{source, child})
		}
	}
	return nil
}

func rootDestPairs(constraints map[plumbing.Hash]dag.CommitSet) [][2]plumbing.Hash {
	var pairs [][2]plumbing.Hash
	for dest, sources := range constraints {
		for source := range sources {
			pairs = append(pairs, [2]plumbing.Hash{dest, source})
		}
	}
	return pairs
}

func cloneConstraints(m map[plumbing.Hash]dag.CommitSet) map[plumbing.Hash]dag.CommitSet {
	out := make(map[plumbing.Hash]dag.CommitSet, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// findRoots returns the constraint keys that never appear as a value
// (a source) elsewhere — the entry points of the rebase — sorted for
// deterministic plan output.
func findRoots(constraints map[plumbing.Hash]dag.CommitSet) []plumbing.Hash {
	isSource := make(map[plumbing.Hash]struct{})
	for _, sources := range constraints {
		for s := range sources {
			isSource[s] = struct{}{}
		}
	}
	var roots []plumbing.Hash
	for dest := range constraints {
		if _, ok := isSource[dest]; !ok {
			roots = append(roots, dest)
		}
	}
	plumbing.HashesSort(roots)
	return roots
}

// checkForCycles runs a DFS over the constraint graph (dest -> source
// edges, read as "source moves under dest") tracking the current path
// so any revisit yields the exact cycle witness.
func checkForCycles(constraints map[plumbing.Hash]dag.CommitSet) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[plumbing.Hash]int)
	var path []plumbing.Hash

	keys := make([]plumbing.Hash, 0, len(constraints))
	for k := range constraints {
		keys = append(keys, k)
	}
	plumbing.HashesSort(keys)

	var visit func(node plumbing.Hash) error
	visit = func(node plumbing.Hash) error {
		color[node] = gray
		path = append(path, node)
		sources := constraints[node].ToSlice()
		for _, s := range sources {
			switch color[s] {
			case white:
				if err := visit(s); err != nil {
					return err
				}
			case gray:
				cycleStart := 0
				for i, p := range path {
					if p == s {
						cycleStart = i
						break
					}
				}
				cycle := append(append([]plumbing.Hash{}, path[cycleStart:]...), s)
				return &CycleError{Cycle: cycle}
			}
		}
		path = path[:len(path)-1]
		color[node] = black
		return nil
	}

	for _, k := range keys {
		if color[k] == white {
			if err := visit(k); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkAllCommitsIncluded logs nothing fatal: a commit constrained to
// move but never emitted is a planner bug, not a user-facing error,
// matching plan.rs's warning-only behavior.
func (b *Builder) checkAllCommitsIncluded(state *buildState, included dag.CommitSet) {
	for _, sources := range state.constraints {
		for _, source := range sources.ToSlice() {
			if !included.Contains(source) {
				trace.DbgPrint("rewrite: commit %s was constrained to move but never emitted", source)
			}
		}
	}
}

func (b *Builder) nextLabel(state *buildState, base string) string {
	n := state.usedLabels[base]
	state.usedLabels[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s%s", base, strings.Repeat("'", n))
}

// emit produces the command sequence that replays source (and,
// recursively, every commit constrained to follow it) on top of
// parentOid, already reset to or pending reset to parentOid's final
// rewritten position.
func (b *Builder) emit(ctx context.Context, state *buildState, parentOid, source plumbing.Hash, included dag.CommitSet) ([]RebaseCommand, error) {
	if included.Contains(source) {
		// A merge commit reached again through another parent: the
		// first path already emitted it.
		return nil, nil
	}
	if b.shouldSkipUpstreamApplied(ctx, source) {
		included.Add(source)
		cmds := []RebaseCommand{{Kind: SkipUpstreamAppliedCommit, CommitOid: source}}
		childCmds, err := b.emitChildren(ctx, state, source, included)
		if err != nil {
			return nil, err
		}
		return append(cmds, childCmds...), nil
	}

	commit, err := b.state.Graph().Parents(ctx, source)
	if err != nil {
		return nil, err
	}

	var cmds []RebaseCommand
	if len(commit) > 1 {
		// Merge commit: every non-first parent is passed to the Merge
		// command by label. plan.rs defers emission until each parent's
		// rewritten position is labeled; here the first-encountered
		// path always owns the primary parent edge (the current rebase
		// head), and any other parent not yet labeled falls back to its
		// original (unrewritten) oid: the head is saved under a label,
		// reset to that oid and labeled there, then restored.
		labels := make([]string, 0, len(commit)-1)
		if state.mergeCommitParentLabels[source] == nil {
			state.mergeCommitParentLabels[source] = make(map[plumbing.Hash]string)
		}
		headLabel := ""
		for _, p := range commit[1:] {
			label, ok := state.mergeCommitParentLabels[source][p]
			if !ok {
				if headLabel == "" {
					headLabel = b.nextLabel(state, "merge-head")
					cmds = append(cmds, RebaseCommand{Kind: CreateLabel, Label: headLabel})
				}
				label = b.nextLabel(state, "merge-parent")
				state.mergeCommitParentLabels[source][p] = label
				cmds = append(cmds, oidReset(p), RebaseCommand{Kind: CreateLabel, Label: label})
			}
			labels = append(labels, label)
		}
		if headLabel != "" {
			cmds = append(cmds, labelReset(headLabel))
		}
		cmds = append(cmds, RebaseCommand{Kind: Merge, CommitOid: source, CommitsToMergeLabels: labels})
	} else {
		cmds = append(cmds, RebaseCommand{Kind: Pick, CommitOid: source})
	}
	cmds = append(cmds, RebaseCommand{Kind: DetectEmptyCommit, CommitOid: source})
	included.Add(source)

	children := state.constraints[source]
	if children.Len() == 0 {
		return cmds, nil
	}

	sortedChildren := children.ToSlice()
	if len(sortedChildren) == 1 {
		childCmds, err := b.emit(ctx, state, source, sortedChildren[0], included)
		if err != nil {
			return nil, err
		}
		return append(cmds, childCmds...), nil
	}

	// Multiple children of the same source: give the source a label so
	// every child can Reset back to it before being emitted in turn.
	label := b.nextLabel(state, "label")
	cmds = append(cmds, RebaseCommand{Kind: CreateLabel, Label: label})
	for i, child := range sortedChildren {
		if i > 0 {
			cmds = append(cmds, labelReset(label))
		}
		childCmds, err := b.emit(ctx, state, source, child, included)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, childCmds...)
	}
	return cmds, nil
}

func (b *Builder) emitChildren(ctx context.Context, state *buildState, source plumbing.Hash, included dag.CommitSet) ([]RebaseCommand, error) {
	children := state.constraints[source].ToSlice()
	var cmds []RebaseCommand
	for _, child := range children {
		childCmds, err := b.emit(ctx, state, source, child, included)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, childCmds...)
	}
	return cmds, nil
}

func (b *Builder) shouldSkipUpstreamApplied(ctx context.Context, oid plumbing.Hash) bool {
	if b.patchID == nil || b.UpstreamPatchIDs == nil {
		return false
	}
	id, err := b.patchID.PatchID(ctx, oid)
	if err != nil || id == "" {
		return false
	}
	_, ok := b.UpstreamPatchIDs[id]
	return ok
}
