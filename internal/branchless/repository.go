// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package branchless

import (
	"context"
	"path/filepath"
	"time"

	"github.com/antgroup/hugescm/internal/dag"
	"github.com/antgroup/hugescm/internal/eventlog"
	"github.com/antgroup/hugescm/internal/hooks"
	"github.com/antgroup/hugescm/internal/rewrite"
	"github.com/antgroup/hugescm/internal/smartlog"
	"github.com/antgroup/hugescm/internal/undo"
	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/pkg/zeta"
)

const branchlessDirName = "branchless"

// Repository binds the branchless layer (C1-C8) to an underlying zeta
// repository, the new-package equivalent of
// _examples/original_source/git-branchless-lib/src/core/dag.rs's
// `Dag::open_and_sync(repo)` taking ownership of a `git2::Repository`.
type Repository struct {
	Zeta   *zeta.Repository
	Config Config

	dir      string
	log      *eventlog.Log
	graph    *dag.Graph
	hooks    *hooks.Runner
	merger   *ODBMerger
	differ   *ODBTreeDiffer
	replayer *eventlog.Replayer
}

// Open opens (creating on first use) the branchless layer for an
// already-open zeta repository.
func Open(ctx context.Context, z *zeta.Repository) (*Repository, error) {
	dir := filepath.Join(z.ZetaDir(), branchlessDirName)
	cfg, err := LoadConfig(dir)
	if err != nil {
		return nil, err
	}

	log, err := eventlog.Open(filepath.Join(dir, "db.sqlite3"))
	if err != nil {
		return nil, err
	}

	lookup := dag.NewODBLookup(z.ODB())
	graph, err := dag.Open(lookup, filepath.Join(dir, "dag", "cache.gob"))
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	hookRunner := &hooks.Runner{
		HooksDir: filepath.Join(z.ZetaDir(), "hooks"),
		RepoPath: z.BaseDir(),
	}

	return &Repository{
		Zeta:   z,
		Config: cfg,
		dir:    dir,
		log:    log,
		graph:  graph,
		hooks:  hookRunner,
		merger: &ODBMerger{ODB: z.ODB()},
		differ: &ODBTreeDiffer{ODB: z.ODB()},
	}, nil
}

// Close releases the event log's connection.
func (r *Repository) Close() error {
	return r.log.Close()
}

// currentTransaction allocates a transaction id and appends events to
// it; callers pass a builder function so the id is available while
// constructing events (e.g. to stamp hook invocations).
func (r *Repository) currentTransaction(ctx context.Context, build func(txID int64) []eventlog.Event) (int64, error) {
	txID, err := r.log.MakeTransactionID(ctx)
	if err != nil {
		return 0, err
	}
	events := build(txID)
	if err := r.log.Append(ctx, events); err != nil {
		return 0, err
	}
	return txID, nil
}

// RecordCommit appends a Commit event and a HEAD RefUpdate for a
// newly created commit, as zeta's own commit path should call after
// writing the object.
func (r *Repository) RecordCommit(ctx context.Context, oid plumbing.Hash, branch plumbing.ReferenceName, oldOid plumbing.Hash) error {
	_, err := r.currentTransaction(ctx, func(txID int64) []eventlog.Event {
		return []eventlog.Event{
			{Timestamp: nowUnix(), TxID: txID, Kind: eventlog.KindCommit, Oid: oid},
			{Timestamp: nowUnix(), TxID: txID, Kind: eventlog.KindRefUpdate, RefName: branch, OldOid: oldOid, NewOid: oid},
		}
	})
	return err
}

// state loads the DAG & visibility engine at the current (latest)
// cursor.
func (r *Repository) state(ctx context.Context) (*dag.State, error) {
	replayer, err := eventlog.NewReplayer(ctx, r.log)
	if err != nil {
		return nil, err
	}
	r.replayer = replayer
	return dag.OpenAndSync(ctx, r.graph, replayer, replayer.Latest(), r.Config.MainBranch)
}

// Smartlog renders the smartlog projection rooted at the commits in
// revset, defaulting to every visible commit when revset is empty.
func (r *Repository) Smartlog(ctx context.Context, revset dag.CommitSet) (*smartlog.Graph, error) {
	state, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	if revset == nil {
		revset, err = state.QueryVisibleCommitsSlow(ctx)
		if err != nil {
			return nil, err
		}
	}
	head, err := r.headOid(ctx)
	if err != nil {
		return nil, err
	}
	return smartlog.Build(ctx, state, revset, &commitTimes{merger: r.merger}, head)
}

func (r *Repository) headOid(ctx context.Context) (plumbing.Hash, error) {
	ref, err := r.Zeta.Current()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

// Hide marks a commit obsolete, the inverse of Unhide.
func (r *Repository) Hide(ctx context.Context, oid plumbing.Hash) error {
	_, err := r.currentTransaction(ctx, func(txID int64) []eventlog.Event {
		return []eventlog.Event{{Timestamp: nowUnix(), TxID: txID, Kind: eventlog.KindObsolete, Oid: oid}}
	})
	return err
}

// Unhide clears a commit's obsolescence.
func (r *Repository) Unhide(ctx context.Context, oid plumbing.Hash) error {
	_, err := r.currentTransaction(ctx, func(txID int64) []eventlog.Event {
		return []eventlog.Event{{Timestamp: nowUnix(), TxID: txID, Kind: eventlog.KindUnobsolete, Oid: oid}}
	})
	return err
}

// Move plans and executes moving source (and its descendants) onto
// dest, preferring the in-memory executor and falling back to the
// on-disk backend on conflict, per DESIGN.md Open Question 2.
func (r *Repository) Move(ctx context.Context, source, dest plumbing.Hash) (*rewrite.ExecuteResult, error) {
	state, err := r.state(ctx)
	if err != nil {
		return nil, err
	}

	builder := rewrite.NewBuilder(state, &rewrite.DiffPatchID{Differ: r.differ, Parents: r.differ})
	builder.MoveSubtree(source, dest)
	plan, err := builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	headOid, err := r.headOid(ctx)
	if err != nil {
		return nil, err
	}

	useOnDisk := r.Config.ForceOnDisk
	if !useOnDisk {
		executor := &rewrite.InMemoryExecutor{Merger: r.merger, Refs: &refMover{repo: r}}
		result := executor.Run(ctx, plan, rewrite.ExecuteOptions{
			PreserveTimestamps: r.Config.PreserveTimestamps,
			CommitterNow:       time.Unix(int64(nowUnix()), 0).UTC(),
			HeadOid:            headOid,
		})
		if result.Kind != rewrite.DeclinedToMerge {
			if err := r.recordRewrite(ctx, result); err != nil {
				return nil, err
			}
			return result, nil
		}
		if r.Config.ForceInMemory {
			return result, nil
		}
		// Fell back: the in-memory backend hit a conflict, hand off to
		// the on-disk backend for interactive resolution.
	}

	onDisk := &rewrite.OnDiskExecutor{
		RepoPath: r.Zeta.BaseDir(),
		StateDir: filepath.Join(r.dir, "rebase-state"),
	}
	if err := onDisk.Start(ctx, plan, dest); err != nil {
		return nil, err
	}
	return &rewrite.ExecuteResult{Kind: rewrite.DeclinedToMerge}, nil
}

func (r *Repository) recordRewrite(ctx context.Context, result *rewrite.ExecuteResult) error {
	_, err := r.currentTransaction(ctx, func(txID int64) []eventlog.Event {
		events := make([]eventlog.Event, 0, len(result.RewrittenOids))
		for oldOid, newOid := range result.RewrittenOids {
			events = append(events, eventlog.Event{
				Timestamp: nowUnix(), TxID: txID, Kind: eventlog.KindRewrite, OldOid: oldOid, NewOid: newOid,
			})
		}
		return events
	})
	if err != nil {
		return err
	}
	entries := make([]hooks.RewriteEntry, 0, len(result.RewrittenOids))
	for oldOid, newOid := range result.RewrittenOids {
		entries = append(entries, hooks.RewriteEntry{Old: oldOid, New: newOid})
	}
	return r.hooks.RunPostRewrite(ctx, entries)
}

// UndoN inverts the last n transactions.
func (r *Repository) UndoN(ctx context.Context, n int) error {
	replayer, err := eventlog.NewReplayer(ctx, r.log)
	if err != nil {
		return err
	}
	engine := &undo.Engine{Log: r.log, Replayer: replayer}
	_, err = engine.UndoNTransactions(ctx, n)
	return err
}

// commitTimes adapts ODBMerger to smartlog.CommitTimeLookup.
type commitTimes struct {
	merger *ODBMerger
}

func (c *commitTimes) CommitTime(ctx context.Context, oid plumbing.Hash) (int64, error) {
	commit, err := c.merger.Commit(ctx, oid)
	if err != nil {
		return 0, err
	}
	return commit.Committer.When.Unix(), nil
}

func nowUnix() float64 {
	return float64(time.Now().Unix())
}
