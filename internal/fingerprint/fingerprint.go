// Package fingerprint hashes arrangements so the refinement loop can tell how
// many distinct arrangements it has visited.
package fingerprint

import (
	"encoding/binary"
	"slices"

	"github.com/arloliu/tablemix/internal/entity"
	"github.com/zeebo/xxh3"
)

// Arrangement returns a hash of the partition of items into containers.
//
// The hash ignores container identities and member order: two arrangements that
// group the same items together hash equally even if they use different container
// ids. Empty containers are ignored.
//
// Parameters:
//   - containers: Every container of the arrangement
//
// Returns:
//   - uint64: xxh3 hash of the canonical grouping
func Arrangement(containers []*entity.Container) uint64 {
	groups := make([][]int, 0, len(containers))
	for _, c := range containers {
		if c.Size() == 0 {
			continue
		}
		g := make([]int, 0, c.Size())
		for _, it := range c.Members() {
			g = append(g, it.Index())
		}
		slices.Sort(g)
		groups = append(groups, g)
	}
	// Groups are disjoint, so their smallest members order them canonically.
	slices.SortFunc(groups, func(a, b []int) int { return a[0] - b[0] })

	var buf []byte
	for _, g := range groups {
		buf = binary.AppendUvarint(buf, uint64(len(g)))
		for _, idx := range g {
			buf = binary.AppendUvarint(buf, uint64(idx))
		}
	}

	return xxh3.Hash(buf)
}

// Seed turns a configured seed string into a deterministic 64-bit seed.
func Seed(s string) uint64 {
	return xxh3.HashString(s)
}

// Tracker counts distinct fingerprints.
type Tracker struct {
	seen map[uint64]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[uint64]struct{})}
}

// Observe records a fingerprint and reports whether it was new.
func (t *Tracker) Observe(fp uint64) bool {
	if _, ok := t.seen[fp]; ok {
		return false
	}
	t.seen[fp] = struct{}{}

	return true
}

// Distinct returns the number of distinct fingerprints observed.
func (t *Tracker) Distinct() int { return len(t.seen) }
