package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/tablemix/internal/logger"
	"github.com/arloliu/tablemix/internal/metrics"
	"github.com/arloliu/tablemix/types"
)

// Named is implemented by sinks that report a short name for logs and metrics.
type Named interface {
	Name() string
}

// Multi publishes to several sinks in order.
//
// A failing sink does not stop the others; every failure is logged, counted and
// returned joined under ErrPublishFailed.
type Multi struct {
	sinks   []types.ResultSink
	logger  types.Logger
	metrics types.SinkMetrics
}

var _ types.ResultSink = (*Multi)(nil)

// NewMulti creates a fan-out sink.
//
// Parameters:
//   - log: Logger (nil disables logging)
//   - m: Sink metrics (nil disables metrics)
//   - sinks: Destinations, published in order; nil entries are skipped
//
// Returns:
//   - *Multi: Fan-out sink
func NewMulti(log types.Logger, m types.SinkMetrics, sinks ...types.ResultSink) *Multi {
	if log == nil {
		log = logger.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	kept := make([]types.ResultSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}

	return &Multi{sinks: kept, logger: log, metrics: m}
}

// Len returns the number of destinations.
func (m *Multi) Len() int { return len(m.sinks) }

// Publish delivers result to every sink.
func (m *Multi) Publish(ctx context.Context, result *types.Result) error {
	var errs []error
	for _, s := range m.sinks {
		name := nameOf(s)

		start := time.Now()
		err := s.Publish(ctx, result)
		m.metrics.RecordPublish(name, time.Since(start).Seconds(), err == nil)
		if err != nil {
			m.logger.Error("result sink failed", "sink", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))

			continue
		}
		m.logger.Debug("result sink published", "sink", name)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", types.ErrPublishFailed, errors.Join(errs...))
	}

	return nil
}

func nameOf(s types.ResultSink) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}

	return fmt.Sprintf("%T", s)
}
