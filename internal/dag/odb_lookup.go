// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package dag

import (
	"context"

	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/zeta/object"
)

// commitBackend is the narrow slice of *pkg/zeta/odb.ODB that
// ODBLookup needs, named here rather than imported directly so this
// package does not have to depend on the odb package's full surface.
type commitBackend interface {
	Commit(ctx context.Context, oid plumbing.Hash) (*object.Commit, error)
}

// ODBLookup adapts an object-store commit reader to CommitLookup.
type ODBLookup struct {
	backend commitBackend
}

// NewODBLookup wraps backend (typically *pkg/zeta/odb.ODB) as a
// CommitLookup for Graph.
func NewODBLookup(backend commitBackend) *ODBLookup {
	return &ODBLookup{backend: backend}
}

type commitParents struct {
	parents []plumbing.Hash
}

func (c commitParents) ParentHashes() []plumbing.Hash {
	return c.parents
}

// Commit satisfies CommitLookup.
func (l *ODBLookup) Commit(ctx context.Context, oid plumbing.Hash) (Parents, error) {
	c, err := l.backend.Commit(ctx, oid)
	if err != nil {
		return nil, err
	}
	return commitParents{parents: c.Parents}, nil
}
