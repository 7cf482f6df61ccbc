package tablemix

import (
	"math/rand/v2"
	"time"
)

// Option configures an Optimizer with optional dependencies.
type Option func(*optimizerOptions)

// optimizerOptions holds optional Optimizer configuration.
type optimizerOptions struct {
	logger  Logger
	metrics MetricsCollector
	hooks   *Hooks
	solver  BatchSolver
	rand    rand.Source
	clock   func() time.Time
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (see logging.NewSlog)
//
// Returns:
//   - Option: Functional option for NewOptimizer
//
// Example:
//
//	log := logging.NewSlog(slog.Default())
//	opt, err := tablemix.NewOptimizer(&cfg, src, tablemix.WithLogger(log))
func WithLogger(logger Logger) Option {
	return func(o *optimizerOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewOptimizer
//
// Example:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "seating")
//	opt, err := tablemix.NewOptimizer(&cfg, src, tablemix.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *optimizerOptions) {
		o.metrics = metrics
	}
}

// WithHooks sets lifecycle callbacks.
//
// Example:
//
//	hooks := &tablemix.Hooks{
//	    OnImprovement: func(ctx context.Context, iteration int, score float64) error {
//	        fmt.Printf("iteration %d: %.2f\n", iteration, score)
//	        return nil
//	    },
//	}
//	opt, err := tablemix.NewOptimizer(&cfg, src, tablemix.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *optimizerOptions) {
		o.hooks = hooks
	}
}

// WithSolver overrides the batch solver selected by Config.Solver.
func WithSolver(s BatchSolver) Option {
	return func(o *optimizerOptions) {
		o.solver = s
	}
}

// WithRandSource sets the random source used for eviction. It takes precedence
// over Config.Seed.
func WithRandSource(src rand.Source) Option {
	return func(o *optimizerOptions) {
		o.rand = src
	}
}

// WithClock sets the clock used for run time accounting.
func WithClock(now func() time.Time) Option {
	return func(o *optimizerOptions) {
		o.clock = now
	}
}
