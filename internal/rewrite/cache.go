// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package rewrite

import (
	"github.com/dgraph-io/ristretto/v2"

	"github.com/antgroup/hugescm/modules/plumbing"
)

// TouchedPathsCache memoizes the set of paths a commit touches
// relative to its first parent, process-wide, so repeated planning
// runs (and the parallel patch-id pass) don't re-diff the same commit
// twice. Grounded on plan.rs's `Arc<CHashMap<...>>` touched_paths_cache
// and, for the concurrent-cache choice itself, on the teacher's own use
// of ristretto as a process-wide object cache
// (modules/zeta/backend/odb.go).
type TouchedPathsCache struct {
	cache *ristretto.Cache[plumbing.Hash, map[string]struct{}]
}

// NewTouchedPathsCache builds a cache sized for maxEntries distinct
// commits.
func NewTouchedPathsCache(maxEntries int64) (*TouchedPathsCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[plumbing.Hash, map[string]struct{}]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &TouchedPathsCache{cache: c}, nil
}

// Get returns the cached touched-path set for oid, if present.
func (c *TouchedPathsCache) Get(oid plumbing.Hash) (map[string]struct{}, bool) {
	return c.cache.Get(oid)
}

// Set records oid's touched-path set.
func (c *TouchedPathsCache) Set(oid plumbing.Hash, paths map[string]struct{}) {
	c.cache.Set(oid, paths, 1)
}

// Close releases background goroutines held by the cache.
func (c *TouchedPathsCache) Close() {
	c.cache.Close()
}

// SharePaths reports whether a and b have any touched path in common,
// the cheap pre-filter plan.rs runs before handing a commit to the
// parallel patch-id pool (should_check_patch_id).
func SharePaths(a, b map[string]struct{}) bool {
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	for p := range small {
		if _, ok := big[p]; ok {
			return true
		}
	}
	return false
}
