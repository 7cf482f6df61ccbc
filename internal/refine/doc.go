// Package refine implements the iterated local search that improves an initial
// arrangement.
//
// # Iteration
//
// Every iteration evicts one random member from each non-empty container and
// re-solves that balanced batch against the containers it came from. Re-solving
// can never be worse than the previous arrangement of the same batch, because that
// arrangement is itself a feasible candidate; a worse score is logged as an anomaly.
//
// # Stopping
//
// Checked at the start of every iteration, in order:
//  1. Run context cancelled → Cancelled
//  2. Run time budget used (when set) → TimedOut
//  3. Arrangement known optimal (pure quadratic objective, zero violation) → Converged
//  4. Iteration budget used → Exhausted
//  5. Stagnation above threshold and run time above budget → TimedOut
//
// With no run time budget, stagnation above the threshold is enough to stop.
//
// An in-flight solve always completes before cancellation is honored.
//
// # Snapshots
//
// The best-by-score arrangement is recorded on every strict score improvement and
// restored on exit. A separate best-by-penalty arrangement tracks the lowest total
// upper-bound violation seen.
package refine
