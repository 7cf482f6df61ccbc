package solver

import (
	"fmt"

	"github.com/arloliu/tablemix/types"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// NameSimplex identifies the linear programming solver.
const NameSimplex = "simplex"

// simplexTolerance is the zero tolerance handed to lp.Simplex.
const simplexTolerance = 1e-10

// Simplex solves the transportation problem as a linear program.
//
// Variables are the item→container arcs plus the balancing arcs; every item row
// and every container row is an equality with right-hand side 1. The balancing
// node's own row is redundant and omitted, which keeps the constraint matrix at
// full row rank as lp.Simplex requires. The constraint matrix is totally
// unimodular, so the optimal basic solution is integral.
type Simplex struct {
	tol float64
}

var _ types.BatchSolver = (*Simplex)(nil)

// NewSimplex creates a new LP-based solver.
//
// Returns:
//   - *Simplex: Stateless solver, safe for concurrent use
//
// Example:
//
//	s := solver.NewSimplex()
//	assigned, err := s.Solve(costs)
func NewSimplex() *Simplex {
	return &Simplex{tol: simplexTolerance}
}

// Name returns "simplex".
func (s *Simplex) Name() string { return NameSimplex }

// Solve computes a minimum-cost assignment of rows (items) to columns (containers).
//
// Layout for m items and n containers:
//   - columns 0..m·n-1: x[i][j] at i·n + j
//   - m >= n: columns m·n..m·n+m-1 are item→balance arcs (item rows only)
//   - m < n: columns m·n..m·n+n-1 are balance→container arcs (container rows only)
//
// Parameters:
//   - costs: m×n cost matrix
//
// Returns:
//   - []int: Column per row, -1 for rows routed to the balancing node
//   - error: ErrInvalidCost or ErrSolverInfeasible
func (s *Simplex) Solve(costs [][]float64) ([]int, error) {
	m, n, err := validateCosts(costs)
	if err != nil {
		return nil, err
	}
	if m == 0 {
		return []int{}, nil
	}
	if n == 0 {
		return unassigned(m), nil
	}

	pairs := m * n
	balance := max(m, n)
	vars := pairs + balance
	rows := m + n

	c := make([]float64, vars)
	A := mat.NewDense(rows, vars, nil)
	b := make([]float64, rows)
	for r := range b {
		b[r] = 1
	}

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			k := i*n + j
			c[k] = costs[i][j]
			A.Set(i, k, 1)
			A.Set(m+j, k, 1)
		}
	}
	if m >= n {
		for i := 0; i < m; i++ {
			A.Set(i, pairs+i, 1)
		}
	} else {
		for j := 0; j < n; j++ {
			A.Set(m+j, pairs+j, 1)
		}
	}

	_, x, err := lp.Simplex(c, A, b, s.tol, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrSolverInfeasible, err)
	}

	out := unassigned(m)
	taken := make([]bool, n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			if x[i*n+j] <= FlowThreshold {
				continue
			}
			if out[i] != -1 || taken[j] {
				return nil, fmt.Errorf("%w: fractional flow at item %d container %d", types.ErrSolverInfeasible, i, j)
			}
			out[i] = j
			taken[j] = true
		}
	}

	return out, nil
}
