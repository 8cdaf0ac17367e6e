// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package branchless

import (
	"context"

	"github.com/antgroup/hugescm/internal/rewrite"
	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/zeta/object"
	"github.com/antgroup/hugescm/pkg/zeta/odb"
)

// ODBTreeDiffer implements internal/rewrite.TreeDiffer and
// ParentResolver against the real object store, letting the planner's
// patch-id pipeline diff two commits' trees without importing odb
// itself.
type ODBTreeDiffer struct {
	ODB *odb.ODB
}

var _ rewrite.TreeDiffer = (*ODBTreeDiffer)(nil)
var _ rewrite.ParentResolver = (*ODBTreeDiffer)(nil)

// FirstParent satisfies rewrite.ParentResolver.
func (d *ODBTreeDiffer) FirstParent(ctx context.Context, oid plumbing.Hash) (plumbing.Hash, error) {
	c, err := d.ODB.Commit(ctx, oid)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if len(c.Parents) == 0 {
		return plumbing.ZeroHash, nil
	}
	return c.Parents[0], nil
}

// DiffPaths satisfies rewrite.TreeDiffer: a recursive tree diff
// between two commits' root trees, via object.Tree.DiffContext.
func (d *ODBTreeDiffer) DiffPaths(ctx context.Context, from, to plumbing.Hash) ([]rewrite.PathChange, error) {
	fromTree, err := d.rootOf(ctx, from)
	if err != nil {
		return nil, err
	}
	toTree, err := d.rootOf(ctx, to)
	if err != nil {
		return nil, err
	}
	changes, err := fromTree.DiffContext(ctx, toTree, nil)
	if err != nil {
		return nil, err
	}
	out := make([]rewrite.PathChange, 0, len(changes))
	for _, c := range changes {
		name := c.To.Name
		if name == "" {
			name = c.From.Name
		}
		out = append(out, rewrite.PathChange{
			Path:    name,
			OldBlob: c.From.TreeEntry.Hash,
			NewBlob: c.To.TreeEntry.Hash,
		})
	}
	return out, nil
}

func (d *ODBTreeDiffer) rootOf(ctx context.Context, oid plumbing.Hash) (*object.Tree, error) {
	if oid.IsZero() {
		return object.NewTree(nil), nil
	}
	c, err := d.ODB.Commit(ctx, oid)
	if err != nil {
		return nil, err
	}
	return c.Root(ctx)
}
