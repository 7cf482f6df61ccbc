package refine

import (
	"context"
	"time"
)

// RunContext carries the cancellation token and the start instant of one run.
type RunContext struct {
	ctx   context.Context
	now   func() time.Time
	start time.Time
}

// NewRunContext captures the start instant.
//
// Parameters:
//   - ctx: Cancellation token
//   - now: Clock (time.Now when nil)
//
// Returns:
//   - *RunContext: Context with the start instant set to now()
func NewRunContext(ctx context.Context, now func() time.Time) *RunContext {
	if now == nil {
		now = time.Now
	}

	return &RunContext{ctx: ctx, now: now, start: now()}
}

// Context returns the cancellation token.
func (rc *RunContext) Context() context.Context { return rc.ctx }

// Cancelled reports whether the token has been cancelled.
func (rc *RunContext) Cancelled() bool { return rc.ctx.Err() != nil }

// Start returns the captured start instant.
func (rc *RunContext) Start() time.Time { return rc.start }

// Elapsed returns the time since the start instant.
func (rc *RunContext) Elapsed() time.Duration { return rc.now().Sub(rc.start) }
