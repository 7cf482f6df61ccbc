package refine

import (
	"testing"

	"github.com/arloliu/tablemix/internal/metrics"
	"github.com/arloliu/tablemix/types"
	"github.com/stretchr/testify/require"
)

type transitionMetrics struct {
	*metrics.NopMetrics
	transitions []types.RunState
	dropped     int
}

func (m *transitionMetrics) RecordStateTransition(_, to types.RunState) {
	m.transitions = append(m.transitions, to)
}

func (m *transitionMetrics) RecordStateChangeDropped() { m.dropped++ }

func collect(ch <-chan types.RunState) []types.RunState {
	var states []types.RunState
	for s := range ch {
		states = append(states, s)
	}

	return states
}

func TestStateMachine_FinishOnce(t *testing.T) {
	mc := &transitionMetrics{NopMetrics: metrics.NewNop()}
	sm := NewStateMachine(nil, mc)
	require.Equal(t, types.StateRunning, sm.State())

	require.False(t, sm.Finish(types.StateRunning))
	require.True(t, sm.Finish(types.StateTimedOut))
	require.False(t, sm.Finish(types.StateCancelled))

	require.Equal(t, types.StateTimedOut, sm.State())
	require.Equal(t, []types.RunState{types.StateTimedOut}, mc.transitions)
}

func TestStateMachine_Subscribers(t *testing.T) {
	sm := NewStateMachine(nil, nil)
	ch1, unsub1 := sm.Subscribe()
	defer unsub1()
	ch2, unsub2 := sm.Subscribe()
	unsub2()

	require.True(t, sm.Finish(types.StateConverged))

	require.Equal(t, []types.RunState{types.StateRunning, types.StateConverged}, collect(ch1))
	require.Equal(t, []types.RunState{types.StateRunning}, collect(ch2))
}

func TestStateMachine_SubscribeAfterFinish(t *testing.T) {
	sm := NewStateMachine(nil, nil)
	sm.Finish(types.StateExhausted)

	ch, unsub := sm.Subscribe()
	defer unsub()

	require.Equal(t, []types.RunState{types.StateExhausted}, collect(ch))
}

func TestStateMachine_UnsubscribeTwice(t *testing.T) {
	sm := NewStateMachine(nil, nil)
	_, unsub := sm.Subscribe()
	unsub()
	require.NotPanics(t, unsub)
}
