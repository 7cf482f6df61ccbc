package metrics

import (
	"testing"

	"github.com/arloliu/tablemix/types"
	"github.com/stretchr/testify/require"
)

func TestNewNop(t *testing.T) {
	m := NewNop()

	require.NotNil(t, m)
	require.IsType(t, &NopMetrics{}, m)
}

func TestNopMetrics_AllMethods(t *testing.T) {
	m := NewNop()

	require.NotPanics(t, func() {
		m.RecordBuildBatch(10, 4)
		m.RecordBuildDuration(0.5)
		m.RecordIteration(12.5, 3, true)
		m.RecordIteration(-1, -1, false)
		m.RecordAnomaly()
		m.RecordStateTransition(types.StateRunning, types.StateConverged)
		m.RecordStateTransition(types.RunState(99), types.RunState(100))
		m.RecordStateChangeDropped()
		m.RecordSolve("mincostflow", 8, 0.001, true)
		m.RecordPublish("csv", 0.01, false)
	})
}

func BenchmarkNopMetrics(b *testing.B) {
	m := NewNop()

	for b.Loop() {
		m.RecordIteration(1, 0, false)
	}
}
