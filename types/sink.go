package types

import "context"

// ResultSink receives the final arrangement of a run.
//
// Implementations:
//   - sink.CSV: assignments and summary files
//   - sink.KV: NATS JetStream key-value bucket
//   - sink.Log: compressed listing through a Logger
//   - sink.Status: RUNNING/FINISHED status file
type ResultSink interface {
	// Publish delivers the result.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - result: Final arrangement; must not be modified by the sink
	//
	// Returns:
	//   - error: Delivery error (nil on success)
	Publish(ctx context.Context, result *Result) error
}
