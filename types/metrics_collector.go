package types

// MetricsCollector defines methods for recording optimization metrics.
//
// Implementations should be non-blocking. The optimizer records from a single
// goroutine, but collectors may be shared across runs and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	BuilderMetrics
	RefinementMetrics
	SolverMetrics
	SinkMetrics
}

// BuilderMetrics defines metrics for the initial solution builder.
type BuilderMetrics interface {
	// RecordBuildBatch records one solver batch issued by the builder.
	//
	// Parameters:
	//   - items: Number of unassigned items in the batch
	//   - containers: Number of candidate containers in the batch
	RecordBuildBatch(items, containers int)

	// RecordBuildDuration records the total time spent building the initial arrangement.
	//
	// Parameters:
	//   - duration: Time taken in seconds
	RecordBuildDuration(duration float64)
}

// RefinementMetrics defines metrics for the refinement loop.
type RefinementMetrics interface {
	// RecordIteration records one completed refinement iteration.
	//
	// Parameters:
	//   - score: Total score after the iteration
	//   - violation: Total upper-bound violation after the iteration
	//   - improved: true if the best score improved
	RecordIteration(score float64, violation int, improved bool)

	// RecordAnomaly records an iteration whose score got strictly worse.
	RecordAnomaly()

	// RecordStateTransition records a refinement state transition.
	RecordStateTransition(from, to RunState)

	// RecordStateChangeDropped records when state change notifications are dropped due to slow subscribers.
	RecordStateChangeDropped()
}

// SolverMetrics defines metrics for batch solver invocations.
type SolverMetrics interface {
	// RecordSolve records one solver invocation.
	//
	// Parameters:
	//   - solver: Backend name ("mincostflow", "simplex")
	//   - items: Number of rows in the batch
	//   - duration: Time taken in seconds
	//   - success: true if the solver returned a valid assignment
	RecordSolve(solver string, items int, duration float64, success bool)
}

// SinkMetrics defines metrics for result publication.
type SinkMetrics interface {
	// RecordPublish records one result publication.
	//
	// Parameters:
	//   - sink: Sink name ("csv", "kv", "log", "status")
	//   - duration: Time taken in seconds
	//   - success: true if the sink accepted the result
	RecordPublish(sink string, duration float64, success bool)
}
