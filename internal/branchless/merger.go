// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package branchless

import (
	"context"
	"fmt"

	"github.com/antgroup/hugescm/internal/rewrite"
	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/zeta/object"
	"github.com/antgroup/hugescm/pkg/zeta/odb"
)

// ODBMerger adapts *pkg/zeta/odb.ODB to internal/rewrite.TreeMerger,
// the exact three-way merge pkg/zeta/worktree_rebase.go's
// rebaseInternal already performs, reused here for the in-memory
// executor's cherry-pick step.
type ODBMerger struct {
	ODB *odb.ODB
}

var _ rewrite.TreeMerger = (*ODBMerger)(nil)

// MergeTree satisfies rewrite.TreeMerger.
func (m *ODBMerger) MergeTree(ctx context.Context, base, ours, theirs *object.Tree, branch1, branch2 string) (plumbing.Hash, []string, error) {
	result, err := m.ODB.MergeTree(ctx, base, ours, theirs, &odb.MergeOptions{
		Branch1:       branch1,
		Branch2:       branch2,
		DetectRenames: true,
	})
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}
	if len(result.Conflicts) > 0 {
		conflicts := make([]string, len(result.Conflicts))
		for i, c := range result.Conflicts {
			conflicts[i] = fmt.Sprintf("%s (type %d)", c.Ancestor.Path, c.Types)
		}
		return plumbing.ZeroHash, conflicts, nil
	}
	return result.NewTree, nil, nil
}

// WriteCommit satisfies rewrite.TreeMerger.
func (m *ODBMerger) WriteCommit(ctx context.Context, c *object.Commit) (plumbing.Hash, error) {
	return m.ODB.WriteEncoded(c)
}

// Commit satisfies rewrite.TreeMerger.
func (m *ODBMerger) Commit(ctx context.Context, oid plumbing.Hash) (*object.Commit, error) {
	return m.ODB.Commit(ctx, oid)
}

// Root satisfies rewrite.TreeMerger.
func (m *ODBMerger) Root(ctx context.Context, commit *object.Commit) (*object.Tree, error) {
	return commit.Root(ctx)
}
