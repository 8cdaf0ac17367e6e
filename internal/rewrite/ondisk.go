// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rewrite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/antgroup/hugescm/modules/command"
	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/trace"
)

// planFileCommand mirrors spec.md §6's on-disk plan-file line
// grammar: one verb per line, oid/label arguments space-separated.
type planFileCommand struct {
	Verb string
	Args []string
}

func toPlanFile(plan *RebasePlan) []planFileCommand {
	var lines []planFileCommand
	lines = append(lines, planFileCommand{Verb: "reset", Args: []string{plan.FirstDestOid.String()}})
	for _, cmd := range plan.Commands {
		switch cmd.Kind {
		case CreateLabel:
			lines = append(lines, planFileCommand{Verb: "label", Args: []string{cmd.Label}})
		case Reset:
			if cmd.Label != "" {
				lines = append(lines, planFileCommand{Verb: "reset", Args: []string{cmd.Label}})
			} else {
				lines = append(lines, planFileCommand{Verb: "reset", Args: []string{cmd.Target.String()}})
			}
		case Pick:
			lines = append(lines, planFileCommand{Verb: "pick", Args: []string{cmd.CommitOid.String()}})
		case Merge:
			lines = append(lines, planFileCommand{Verb: "merge", Args: append([]string{cmd.CommitOid.String()}, cmd.CommitsToMergeLabels...)})
		case DetectEmptyCommit:
			lines = append(lines, planFileCommand{Verb: "exec", Args: []string{"git-branchless", "detect-empty", cmd.CommitOid.String()}})
		case SkipUpstreamAppliedCommit:
			lines = append(lines, planFileCommand{Verb: "exec", Args: []string{"git-branchless", "skip-upstream-applied", cmd.CommitOid.String()}})
		case RegisterExtraPostRewriteHook:
			lines = append(lines, planFileCommand{Verb: "exec", Args: []string{"git-branchless", "post-rewrite-hook"}})
		}
	}
	return lines
}

func renderPlanFile(plan *RebasePlan) string {
	var b strings.Builder
	for _, l := range toPlanFile(plan) {
		fmt.Fprintf(&b, "%s %s\n", l.Verb, strings.Join(l.Args, " "))
	}
	return b.String()
}

// RebaseState is the on-disk checkpoint written alongside the plan
// file, TOML-encoded the way pkg/zeta/worktree_rebase.go's RebaseMD
// already serializes in-progress rebase state.
type RebaseState struct {
	Head     string `toml:"head"`
	Onto     string `toml:"onto"`
	LastOid  string `toml:"last_oid"`
	PlanPath string `toml:"plan_path"`
}

// OnDiskExecutor runs a RebasePlan by writing a plan file into the
// repository's rebase-state directory and delegating to the VCS's own
// rebase machinery, the conflict-resolution path described in
// spec.md §4.5 and grounded on execute.rs's on-disk module plus
// pkg/zeta/worktree_rebase.go's RebaseMD / checkoutRebaseConflicts
// pattern for the state file it writes.
type OnDiskExecutor struct {
	// ZetaBinary is the path to the zeta executable to re-invoke for
	// `rebase --continue`; normally os.Executable().
	ZetaBinary string
	RepoPath   string
	StateDir   string // "<repo>/.zeta/branchless/rebase-state/"
}

// Start writes the plan and initial state to disk and launches the
// first batch of the underlying rebase, returning as soon as it either
// finishes or stops for conflict resolution.
func (e *OnDiskExecutor) Start(ctx context.Context, plan *RebasePlan, onto plumbing.Hash) error {
	if err := os.MkdirAll(e.StateDir, 0o755); err != nil {
		return trace.Errorf("rewrite: mkdir rebase state dir: %w", err)
	}
	planPath := filepath.Join(e.StateDir, "plan.txt")
	if err := os.WriteFile(planPath, []byte(renderPlanFile(plan)), 0o644); err != nil {
		return trace.Errorf("rewrite: write plan file: %w", err)
	}

	state := RebaseState{
		Head:     plan.FirstDestOid.String(),
		Onto:     onto.String(),
		PlanPath: planPath,
	}
	statePath := filepath.Join(e.StateDir, "state.toml")
	f, err := os.Create(statePath)
	if err != nil {
		return trace.Errorf("rewrite: create state file: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := toml.NewEncoder(f).Encode(state); err != nil {
		return trace.Errorf("rewrite: encode state file: %w", err)
	}

	return e.invoke(ctx, "rebase", "--onto", onto.String())
}

// Continue resumes a stopped on-disk rebase after the user has
// resolved conflicts in the working copy.
func (e *OnDiskExecutor) Continue(ctx context.Context) error {
	return e.invoke(ctx, "rebase", "--continue")
}

// Abort discards an in-progress on-disk rebase and its state.
func (e *OnDiskExecutor) Abort(ctx context.Context) error {
	if err := e.invoke(ctx, "rebase", "--abort"); err != nil {
		return err
	}
	return os.RemoveAll(e.StateDir)
}

func (e *OnDiskExecutor) invoke(ctx context.Context, args ...string) error {
	binary := e.ZetaBinary
	if binary == "" {
		var err error
		binary, err = os.Executable()
		if err != nil {
			return trace.Errorf("rewrite: resolve zeta binary: %w", err)
		}
	}
	runner := command.New(ctx, e.RepoPath, binary, args...)
	if err := runner.Run(); err != nil {
		return trace.Errorf("rewrite: on-disk rebase %v: %w", args, err)
	}
	return nil
}
