// Package hooks provides default hook implementations.
package hooks

import (
	"context"

	"github.com/arloliu/tablemix/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, int, float64) error                   = (*NopHooks)(nil).OnImprovement
	_ func(context.Context, types.RunState, types.RunState) error = (*NopHooks)(nil).OnStateChanged
	_ func(context.Context, int, float64, float64) error          = (*NopHooks)(nil).OnAnomaly
)

// NewNop creates a new no-op hooks implementation.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	h := &NopHooks{}

	return types.Hooks{
		OnImprovement:  h.OnImprovement,
		OnStateChanged: h.OnStateChanged,
		OnAnomaly:      h.OnAnomaly,
	}
}

// Fill returns a copy of h with every nil callback replaced by a no-op.
//
// Parameters:
//   - h: User hooks, may be nil
//
// Returns:
//   - types.Hooks: Hooks whose callbacks are all non-nil
func Fill(h *types.Hooks) types.Hooks {
	out := NewNop()
	if h == nil {
		return out
	}
	if h.OnImprovement != nil {
		out.OnImprovement = h.OnImprovement
	}
	if h.OnStateChanged != nil {
		out.OnStateChanged = h.OnStateChanged
	}
	if h.OnAnomaly != nil {
		out.OnAnomaly = h.OnAnomaly
	}

	return out
}

// OnImprovement is a no-op implementation.
func (h *NopHooks) OnImprovement(_ context.Context, _ int, _ float64) error {
	return nil
}

// OnStateChanged is a no-op implementation.
func (h *NopHooks) OnStateChanged(_ context.Context, _, _ types.RunState) error {
	return nil
}

// OnAnomaly is a no-op implementation.
func (h *NopHooks) OnAnomaly(_ context.Context, _ int, _, _ float64) error {
	return nil
}
