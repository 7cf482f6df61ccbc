// Package batch turns a set of unassigned items and candidate containers into a
// transportation problem, solves it with a types.BatchSolver and commits the result.
//
// Edge costs are the container score with the item added. Computing Score(c) once
// per container and the closed-form delta per item keeps cost construction at
// O(items × containers × container size).
package batch

import (
	"fmt"
	"time"

	"github.com/arloliu/tablemix/internal/entity"
	"github.com/arloliu/tablemix/internal/logger"
	"github.com/arloliu/tablemix/internal/metrics"
	"github.com/arloliu/tablemix/internal/scoring"
	"github.com/arloliu/tablemix/types"
)

// Assigner solves and commits batches.
type Assigner struct {
	solver  types.BatchSolver
	logger  types.Logger
	metrics types.SolverMetrics
}

// Pair is one committed item → container assignment.
type Pair struct {
	Item      *entity.Item
	Container *entity.Container
}

// New creates an assigner.
//
// Parameters:
//   - solver: Batch solver backend (required)
//   - log: Logger (nil disables logging)
//   - m: Solver metrics (nil disables metrics)
//
// Returns:
//   - *Assigner: Ready to use assigner
func New(solver types.BatchSolver, log types.Logger, m types.SolverMetrics) *Assigner {
	if log == nil {
		log = logger.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}

	return &Assigner{solver: solver, logger: log, metrics: m}
}

// Costs builds the item × container cost matrix.
func Costs(items []*entity.Item, containers []*entity.Container) [][]float64 {
	base := make([]float64, len(containers))
	for j, c := range containers {
		base[j] = scoring.Score(c)
	}

	costs := make([][]float64, len(items))
	for i, it := range items {
		row := make([]float64, len(containers))
		for j, c := range containers {
			row[j] = scoring.ScoreIfAdded(it, c, base[j])
		}
		costs[i] = row
	}

	return costs
}

// Assign solves one batch and commits every returned pair.
//
// Items routed to the balancing node stay unassigned. Every item in the batch must
// be unassigned on entry.
//
// Parameters:
//   - items: Unassigned items of the batch
//   - containers: Candidate containers, each receiving at most one item
//
// Returns:
//   - []Pair: Committed pairs in item order
//   - error: ErrSolverInfeasible when the backend fails or returns an invalid
//     assignment, or an entity contract error on commit. Both are fatal.
func (a *Assigner) Assign(items []*entity.Item, containers []*entity.Container) ([]Pair, error) {
	if len(items) == 0 || len(containers) == 0 {
		return nil, nil
	}

	costs := Costs(items, containers)

	start := time.Now()
	assigned, err := a.solver.Solve(costs)
	a.metrics.RecordSolve(a.solver.Name(), len(items), time.Since(start).Seconds(), err == nil)
	if err != nil {
		return nil, fmt.Errorf("%s batch of %d items into %d containers: %w",
			a.solver.Name(), len(items), len(containers), err)
	}
	if err := validate(assigned, len(items), len(containers)); err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0, min(len(items), len(containers)))
	for i, j := range assigned {
		if j < 0 {
			continue
		}
		pairs = append(pairs, Pair{Item: items[i], Container: containers[j]})
	}
	for _, p := range pairs {
		if err := p.Container.Add(p.Item); err != nil {
			return nil, fmt.Errorf("commit item %d to container %d: %w", p.Item.Index(), p.Container.ID(), err)
		}
	}

	a.logger.Debug("batch committed",
		"solver", a.solver.Name(),
		"items", len(items),
		"containers", len(containers),
		"assigned", len(pairs),
	)

	return pairs, nil
}

// validate checks a solver result against the supply/demand of the batch.
func validate(assigned []int, m, n int) error {
	if len(assigned) != m {
		return fmt.Errorf("%w: %d results for %d items", types.ErrSolverInfeasible, len(assigned), m)
	}
	taken := make([]bool, n)
	placed := 0
	for i, j := range assigned {
		if j == -1 {
			continue
		}
		if j < 0 || j >= n {
			return fmt.Errorf("%w: item %d assigned to column %d of %d", types.ErrSolverInfeasible, i, j, n)
		}
		if taken[j] {
			return fmt.Errorf("%w: container column %d assigned twice", types.ErrSolverInfeasible, j)
		}
		taken[j] = true
		placed++
	}
	if placed != min(m, n) {
		return fmt.Errorf("%w: placed %d items, want %d", types.ErrSolverInfeasible, placed, min(m, n))
	}

	return nil
}
