package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/arloliu/tablemix/types"
	"github.com/stretchr/testify/require"
)

func TestNewNop(t *testing.T) {
	h := NewNop()
	ctx := context.Background()

	require.NotNil(t, h.OnImprovement)
	require.NotNil(t, h.OnStateChanged)
	require.NotNil(t, h.OnAnomaly)

	require.NoError(t, h.OnImprovement(ctx, 3, 12.5))
	require.NoError(t, h.OnStateChanged(ctx, types.StateRunning, types.StateConverged))
	require.NoError(t, h.OnAnomaly(ctx, 4, 10, 11))
}

func TestFill(t *testing.T) {
	t.Run("nil hooks", func(t *testing.T) {
		h := Fill(nil)
		require.NoError(t, h.OnImprovement(context.Background(), 0, 0))
	})

	t.Run("keeps user callbacks", func(t *testing.T) {
		boom := errors.New("boom")
		var got types.RunState
		h := Fill(&types.Hooks{
			OnStateChanged: func(_ context.Context, _, to types.RunState) error {
				got = to
				return boom
			},
		})

		require.ErrorIs(t, h.OnStateChanged(context.Background(), types.StateRunning, types.StateCancelled), boom)
		require.Equal(t, types.StateCancelled, got)
		require.NotNil(t, h.OnImprovement)
		require.NotNil(t, h.OnAnomaly)
	})
}
