// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rewrite

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/antgroup/hugescm/modules/plumbing"
)

// TreeDiffer produces the set of changed-path -> (old blob, new blob)
// triples between two commits' trees. Implemented against the object
// store by internal/branchless, kept as an interface here so the
// planner never imports the odb package directly.
type TreeDiffer interface {
	DiffPaths(ctx context.Context, from, to plumbing.Hash) ([]PathChange, error)
}

// PathChange is one changed path between two tree states.
type PathChange struct {
	Path    string
	OldBlob plumbing.Hash
	NewBlob plumbing.Hash
}

// ParentResolver resolves a commit's first parent, the minimum needed
// to diff it against its own parent.
type ParentResolver interface {
	FirstParent(ctx context.Context, oid plumbing.Hash) (plumbing.Hash, error)
}

// DiffPatchID computes a patch id as a hash over the sorted, path-
// independent-of-order set of (path, old blob, new blob) triples a
// commit introduces relative to its first parent — a content
// fingerprint stable across rebases onto a different base, the same
// role `git patch-id` / plan.rs's `PatchId` plays.
type DiffPatchID struct {
	Differ   TreeDiffer
	Parents  ParentResolver
}

// PatchID satisfies PatchIDComputer.
func (d *DiffPatchID) PatchID(ctx context.Context, oid plumbing.Hash) (string, error) {
	parent, err := d.Parents.FirstParent(ctx, oid)
	if err != nil {
		return "", err
	}
	changes, err := d.Differ.DiffPaths(ctx, parent, oid)
	if err != nil {
		return "", err
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })

	h := sha256.New()
	for _, c := range changes {
		fmt.Fprintf(h, "%s\x00%s\x00%s\x00", c.Path, c.OldBlob.String(), c.NewBlob.String())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ComputeUpstreamPatchIDs computes the patch id of every commit in
// range, in parallel via a bounded worker pool — the Go analogue of
// plan.rs's rayon-parallel get_upstream_patch_ids, grounded on the
// same "cheap prefilter, then parallel compute" shape but simplified
// to a flat parallel map since the planner's touched-paths prefilter
// lives in TouchedPathsCache (cache.go).
func ComputeUpstreamPatchIDs(ctx context.Context, computer PatchIDComputer, oids []plumbing.Hash, concurrency int) (map[string]struct{}, error) {
	if concurrency <= 0 {
		concurrency = 4
	}
	ids := make([]string, len(oids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, oid := range oids {
		i, oid := i, oid
		g.Go(func() error {
			id, err := computer.PatchID(ctx, oid)
			if err != nil {
				return err
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			out[id] = struct{}{}
		}
	}
	return out, nil
}
