// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package hooks implements the hook-invocation contract (C7): running
// the "reference-transaction committed" and "post-rewrite rebase"
// hooks as child processes with a transaction id in the environment
// and a line-oriented stdin payload, matching spec.md §6 and grounded
// on modules/command's process-execution wrapper.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/antgroup/hugescm/modules/command"
	"github.com/antgroup/hugescm/modules/plumbing"
)

// Kind names the two hooks the branchless layer invokes.
type Kind string

const (
	ReferenceTransaction Kind = "reference-transaction"
	PostRewrite          Kind = "post-rewrite"
)

func (k Kind) filename() string {
	switch k {
	case ReferenceTransaction:
		return "reference-transaction"
	case PostRewrite:
		return "post-rewrite"
	default:
		return string(k)
	}
}

// RefChange is one line of reference-transaction stdin: old new name,
// hex-encoded and space-separated, matching git's own hook contract.
type RefChange struct {
	Old  plumbing.Hash
	New  plumbing.Hash
	Name plumbing.ReferenceName
}

// RewriteEntry is one line of post-rewrite stdin: old new, the commit
// an old oid was rewritten to.
type RewriteEntry struct {
	Old plumbing.Hash
	New plumbing.Hash
}

// Runner invokes hooks found in a repository's hooks directory. A
// missing hook file is not an error: it simply means nothing runs,
// matching git's own semantics and spec.md §6.
type Runner struct {
	HooksDir      string
	RepoPath      string
	TransactionID int64
}

func (r *Runner) path(kind Kind) string {
	return filepath.Join(r.HooksDir, kind.filename())
}

// exists reports whether the hook file is present and is not a
// directory; the executable bit is not checked.
func (r *Runner) exists(kind Kind) bool {
	info, err := os.Stat(r.path(kind))
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// RunReferenceTransaction invokes the reference-transaction hook with
// stdin lines "<old> <new> <name>", called once per logical
// transaction with the literal argument "committed" (git's
// reference-transaction hook also supports "prepared"/"aborted"; this
// layer only ever calls it post-commit).
func (r *Runner) RunReferenceTransaction(ctx context.Context, changes []RefChange) error {
	if !r.exists(ReferenceTransaction) || len(changes) == 0 {
		return nil
	}
	var buf bytes.Buffer
	for _, c := range changes {
		fmt.Fprintf(&buf, "%s %s %s\n", c.Old.String(), c.New.String(), c.Name)
	}
	return r.run(ctx, ReferenceTransaction, []string{"committed"}, buf.Bytes())
}

// RunPostRewrite invokes the post-rewrite hook with stdin lines
// "<old> <new>", called with the literal argument "rebase".
func (r *Runner) RunPostRewrite(ctx context.Context, entries []RewriteEntry) error {
	if !r.exists(PostRewrite) || len(entries) == 0 {
		return nil
	}
	var buf bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s %s\n", e.Old.String(), e.New.String())
	}
	return r.run(ctx, PostRewrite, []string{"rebase"}, buf.Bytes())
}

func (r *Runner) run(ctx context.Context, kind Kind, args []string, stdin []byte) error {
	cmd := command.NewFromOptions(ctx, &command.RunOpts{
		RepoPath: r.RepoPath,
		ExtraEnv: []string{fmt.Sprintf("BRANCHLESS_TRANSACTION_ID=%d", r.TransactionID)},
		Stdin:    bytes.NewReader(stdin),
	}, r.path(kind), args...)
	return cmd.Run()
}
