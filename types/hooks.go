package types

import "context"

// Hooks defines callbacks for optimizer lifecycle events.
//
// All hooks are optional. Hooks are called synchronously on the optimization
// goroutine, so they delay the next iteration until they return. Hook errors are
// logged but never fail the run.
//
// Example:
//
//	hooks := &tablemix.Hooks{
//	    OnImprovement: func(ctx context.Context, iteration int, score float64) error {
//	        progress <- score
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnImprovement is called when an iteration produces a new best score.
	OnImprovement func(ctx context.Context, iteration int, score float64) error

	// OnStateChanged is called when the refinement state transitions.
	OnStateChanged func(ctx context.Context, from, to RunState) error

	// OnAnomaly is called when an iteration makes the total score strictly worse.
	OnAnomaly func(ctx context.Context, iteration int, before, after float64) error
}
