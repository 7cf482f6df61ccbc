// Package scoring computes container penalties. Lower scores are better.
//
// score(c) = Σ_T weight(T)·Σ_v count_T(v)² + Σ_{i<j ∈ c} pair(i, j)
//
// The quadratic term rewards spreading each value across containers; the pairwise
// term applies the default sameness score and the symmetric overrides. The
// upper-bound violation is a separate, integer-valued secondary penalty.
package scoring

import (
	"cmp"
	"slices"

	"github.com/arloliu/tablemix/internal/entity"
)

// Quadratic returns Σ_T weight(T)·Σ_v count_T(v)² for a container.
func Quadratic(c *entity.Container) float64 {
	var total float64
	for _, a := range c.Model().Attributes() {
		if a.Weight() == 0 {
			continue
		}
		var sq int
		for _, n := range c.Counts(a.Index()) {
			sq += n * n
		}
		total += a.Weight() * float64(sq)
	}

	return total
}

// Pairwise returns the sum of pair contributions over unordered member pairs.
//
// Members are visited in item index order so the floating point sum does not
// depend on the order in which members were added.
func Pairwise(c *entity.Container) float64 {
	m := c.Model()
	if m.PureQuadratic() || c.Size() < 2 {
		return 0
	}

	members := sortedMembers(c)
	var total float64
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			total += m.Pair(members[i].Values(), members[j].Values())
		}
	}

	return total
}

// Score returns Quadratic(c) + Pairwise(c).
func Score(c *entity.Container) float64 {
	return Quadratic(c) + Pairwise(c)
}

// Violation returns Σ_{T,v} max(0, count_T(v) − upper_bound(T, v)).
func Violation(c *entity.Container) int {
	var total int
	for _, a := range c.Model().Attributes() {
		for code, n := range c.Counts(a.Index()) {
			if over := n - a.UpperBound(code); over > 0 {
				total += over
			}
		}
	}

	return total
}

// Delta returns the change of Score(c) if the item were added to c, using the closed form
// weight·(2k+1) per attribute plus the pair contributions against every member.
// Neither the item nor the container is modified. Cost is O(container size).
func Delta(it *entity.Item, c *entity.Container) float64 {
	m := c.Model()
	var d float64
	for _, a := range m.Attributes() {
		if a.Weight() == 0 {
			continue
		}
		k := c.Count(a.Index(), it.Value(a.Index()))
		d += a.Weight() * float64(2*k+1)
	}
	if m.PureQuadratic() {
		return d
	}
	for _, other := range c.Members() {
		if other == it {
			continue
		}
		d += m.Pair(it.Values(), other.Values())
	}

	return d
}

// ScoreIfAdded returns the value Score(c) would have with it added.
//
// Parameters:
//   - it: Candidate item (normally unassigned)
//   - c: Target container
//   - base: Score(c) for the current membership, computed once per container by the caller
func ScoreIfAdded(it *entity.Item, c *entity.Container, base float64) float64 {
	return base + Delta(it, c)
}

// ScoreIfAddedByMutation measures Score(c) with it temporarily added, then removes
// it again. The item must be unassigned. It exists to cross-check Delta.
func ScoreIfAddedByMutation(it *entity.Item, c *entity.Container) (float64, error) {
	if err := c.Add(it); err != nil {
		return 0, err
	}
	s := Score(c)
	if err := c.Remove(it); err != nil {
		return 0, err
	}

	return s, nil
}

// TotalScore returns the sum of Score over all containers.
func TotalScore(containers []*entity.Container) float64 {
	var total float64
	for _, c := range containers {
		total += Score(c)
	}

	return total
}

// TotalViolation returns the sum of Violation over all containers.
func TotalViolation(containers []*entity.Container) int {
	var total int
	for _, c := range containers {
		total += Violation(c)
	}

	return total
}

func sortedMembers(c *entity.Container) []*entity.Item {
	members := slices.Clone(c.Members())
	slices.SortFunc(members, func(a, b *entity.Item) int {
		return cmp.Compare(a.Index(), b.Index())
	})

	return members
}
