// Package metrics provides types.MetricsCollector implementations.
package metrics

import "github.com/arloliu/tablemix/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
//
// Example:
//
//	opt, err := tablemix.NewOptimizer(cfg, src, tablemix.WithMetrics(metrics.NewNop()))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// BuilderMetrics implementation

// RecordBuildBatch discards the builder batch metric.
func (n *NopMetrics) RecordBuildBatch(_ /* items */, _ /* containers */ int) {}

// RecordBuildDuration discards the build duration metric.
func (n *NopMetrics) RecordBuildDuration(_ /* duration */ float64) {}

// RefinementMetrics implementation

// RecordIteration discards the iteration metric.
func (n *NopMetrics) RecordIteration(_ /* score */ float64, _ /* violation */ int, _ /* improved */ bool) {}

// RecordAnomaly discards the anomaly metric.
func (n *NopMetrics) RecordAnomaly() {}

// RecordStateTransition discards the state transition metric.
func (n *NopMetrics) RecordStateTransition(_ /* from */, _ /* to */ types.RunState) {}

// RecordStateChangeDropped discards the dropped notification metric.
func (n *NopMetrics) RecordStateChangeDropped() {}

// SolverMetrics implementation

// RecordSolve discards the solver metric.
func (n *NopMetrics) RecordSolve(_ /* solver */ string, _ /* items */ int, _ /* duration */ float64, _ /* success */ bool) {
}

// SinkMetrics implementation

// RecordPublish discards the publish metric.
func (n *NopMetrics) RecordPublish(_ /* sink */ string, _ /* duration */ float64, _ /* success */ bool) {}
