// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package eventlog implements the append-only, transactional event log
// (component C2): every reference update, commit observation, rewrite,
// hide/unhide, and working-copy snapshot is recorded here so that the
// DAG & visibility engine (internal/dag) can derive a references
// snapshot and commit-activity classification at any point in history.
package eventlog

import (
	"github.com/antgroup/hugescm/modules/plumbing"
)

// Kind discriminates the tagged union of events described in spec.md §3.
type Kind string

const (
	KindCommit              Kind = "commit"
	KindObsolete            Kind = "obsolete"
	KindUnobsolete          Kind = "unobsolete"
	KindRewrite             Kind = "rewrite"
	KindRefUpdate           Kind = "ref-update"
	KindWorkingCopySnapshot Kind = "working-copy-snapshot"
)

// Event is a single entry in the log. Only the fields relevant to Kind
// are meaningful; this mirrors the wire format of spec.md §6, where
// every event carries a timestamp and transaction id plus a
// type-specific payload.
//
// Field reuse by Kind:
//
//	Commit               {Oid}
//	Obsolete/Unobsolete   {Oid}
//	Rewrite               {OldOid, NewOid}        (either may be zero)
//	RefUpdate             {RefName, OldOid, NewOid, Message}
//	WorkingCopySnapshot   {HeadOid, NewOid(=snapshot commit), RefName}
type Event struct {
	Timestamp float64
	TxID      int64
	Kind      Kind

	Oid     plumbing.Hash
	OldOid  plumbing.Hash
	NewOid  plumbing.Hash
	HeadOid plumbing.Hash
	RefName plumbing.ReferenceName
	Message string
}

// IsNoop reports whether a RefUpdate event records no actual change
// (old == new == zero), which is preserved for audit but has no effect
// when folded into a references snapshot.
func (e Event) IsNoop() bool {
	return e.Kind == KindRefUpdate && e.OldOid.IsZero() && e.NewOid.IsZero()
}

// CommitActivityStatus is the derived per-commit classification described
// in spec.md §3.
type CommitActivityStatus int

const (
	Active CommitActivityStatus = iota
	Inactive
	Obsolete
)

func (s CommitActivityStatus) String() string {
	switch s {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	case Obsolete:
		return "obsolete"
	default:
		return "unknown"
	}
}

// ReferencesSnapshot is derived by replaying RefUpdate events up to a
// cursor (spec.md §3).
type ReferencesSnapshot struct {
	HeadOid         plumbing.Hash
	MainBranchOid   plumbing.Hash
	BranchOidToName map[plumbing.Hash]map[string]struct{}
}

func newReferencesSnapshot() *ReferencesSnapshot {
	return &ReferencesSnapshot{
		BranchOidToName: make(map[plumbing.Hash]map[string]struct{}),
	}
}

func (s *ReferencesSnapshot) addBranch(oid plumbing.Hash, name string) {
	if s.BranchOidToName[oid] == nil {
		s.BranchOidToName[oid] = make(map[string]struct{})
	}
	s.BranchOidToName[oid][name] = struct{}{}
}

func (s *ReferencesSnapshot) removeBranch(oid plumbing.Hash, name string) {
	names := s.BranchOidToName[oid]
	if names == nil {
		return
	}
	delete(names, name)
	if len(names) == 0 {
		delete(s.BranchOidToName, oid)
	}
}
