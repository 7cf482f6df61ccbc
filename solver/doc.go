// Package solver provides built-in batch solver implementations.
//
// A batch solver assigns m items to n containers so that every container receives
// at most one item of the batch, every item goes to at most one container, and the
// total cost is minimal. A balancing node absorbs the surplus |m − n| at zero cost,
// so the batch is always feasible. The package includes two solvers:
//
//   - MinCostFlow: successive shortest paths over the transportation network (default)
//   - Simplex: the same network as a linear program, solved with gonum
//
// # Solver Selection Guide
//
// MinCostFlow:
//   - Use for production runs
//   - O(max(m, n) · V²) per batch with V = m + n + 3 nodes
//   - Negative costs are supported (potentials start from a DAG shortest path pass)
//
// Simplex:
//   - Use to cross-check results or when a generic LP backend is preferred
//   - Dense constraint matrix of (m + n) × (m·n + max(m, n)); keep batches small
//
// Custom solvers can be implemented by satisfying the types.BatchSolver interface.
package solver
