// Package grouper partitions collected files into duplicate groups.
//
// Bucketing happens in two phases. SizeBuckets runs before any hashing and
// discards every file whose size is unique in the whole scan: such a file
// cannot have a duplicate, so its content is never read. Group then
// sub-partitions the surviving, hashed candidates by digest. Equality of
// (size, digest) is the sole duplicate criterion; paths and names play no
// part.
package grouper

import (
	"github.com/arthur-debert/dedup/pkg/types"
)

// SizeBuckets returns, in discovery order, the entries whose size is
// shared with at least one other entry. Everything else is returned in
// uniques; those files never reach the hasher.
func SizeBuckets(entries []types.FileEntry) (candidates []types.FileEntry, uniques int) {
	counts := make(map[int64]int, len(entries))
	for _, e := range entries {
		counts[e.Size]++
	}

	for _, e := range entries {
		if counts[e.Size] > 1 {
			candidates = append(candidates, e)
		} else {
			uniques++
		}
	}
	return candidates, uniques
}

// groupKey identifies one equivalence class.
type groupKey struct {
	size   int64
	digest types.Digest
}

// Group partitions hashed entries into duplicate groups. Entries with a
// zero digest (hash failures) are ignored. Member order within a group,
// and group order in the result, both follow first-discovery order, which
// is what makes keeper selection stable across runs.
func Group(entries []types.FileEntry) []types.DuplicateGroup {
	members := make(map[groupKey][]types.FileEntry)
	var order []groupKey

	for _, e := range entries {
		if e.Digest.IsZero() {
			continue
		}
		key := groupKey{size: e.Size, digest: e.Digest}
		if _, seen := members[key]; !seen {
			order = append(order, key)
		}
		members[key] = append(members[key], e)
	}

	var groups []types.DuplicateGroup
	for _, key := range order {
		bucket := members[key]
		if len(bucket) < 2 {
			continue
		}
		groups = append(groups, types.DuplicateGroup{
			Digest:  key.digest,
			Size:    key.size,
			Members: bucket,
		})
	}
	return groups
}
