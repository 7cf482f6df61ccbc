package types

// BatchSolver solves one batch of the transportation problem.
//
// Rows of costs are items (supply 1), columns are containers (demand 1). When the
// batch is unbalanced a zero-cost balancing node absorbs the difference, so either
// some items stay unassigned (rows > columns) or some containers receive nothing
// (rows < columns). With rows == columns the result is a bijection.
//
// A solve runs to completion once started; callers honor cancellation between
// solver calls, never inside one.
//
// Implementations:
//   - solver.MinCostFlow: successive shortest paths (default)
//   - solver.Simplex: linear program via gonum
type BatchSolver interface {
	// Solve computes a minimum-cost assignment.
	//
	// Parameters:
	//   - costs: Dense item x container cost matrix; every row has the same length
	//
	// Returns:
	//   - []int: For each row, the assigned column or -1 when routed to the balancing node
	//   - error: ErrInvalidCost or ErrSolverInfeasible
	Solve(costs [][]float64) ([]int, error)

	// Name returns a short identifier used in logs and metrics.
	Name() string
}
