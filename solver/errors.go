package solver

import (
	"fmt"
	"math"

	"github.com/arloliu/tablemix/types"
)

// FlowThreshold is the minimum flow on an item→container edge for it to count as an assignment.
const FlowThreshold = 0.01

// validateCosts checks that costs is rectangular and finite and returns its shape.
func validateCosts(costs [][]float64) (rows, cols int, err error) {
	rows = len(costs)
	if rows == 0 {
		return 0, 0, nil
	}
	cols = len(costs[0])
	for i, row := range costs {
		if len(row) != cols {
			return 0, 0, fmt.Errorf("%w: row %d has %d columns, want %d", types.ErrInvalidCost, i, len(row), cols)
		}
		for j, c := range row {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return 0, 0, fmt.Errorf("%w: cost[%d][%d] is %v", types.ErrInvalidCost, i, j, c)
			}
		}
	}

	return rows, cols, nil
}

// unassigned returns a result of n rows all routed to the balancing node.
func unassigned(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = -1
	}

	return out
}

// New returns a solver by name.
//
// Parameters:
//   - name: "mincostflow" (or empty) or "simplex"
//
// Returns:
//   - types.BatchSolver: Solver instance
//   - error: ErrUnknownSolver for any other name
func New(name string) (types.BatchSolver, error) {
	switch name {
	case "", NameMinCostFlow:
		return NewMinCostFlow(), nil
	case NameSimplex:
		return NewSimplex(), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownSolver, name)
	}
}
