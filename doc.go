// Package tablemix assigns a population of categorical items to fixed-capacity
// containers so that every container is as diverse as possible.
//
// The classic use is seating: attendees carry attributes such as Role, Office or
// Gender, and each table should mix them instead of grouping people who share a
// value. Tablemix minimizes a per-container objective made of a weighted Σ count²
// term per attribute type plus a configurable pairwise sameness term, while
// keeping every container within its capacity.
//
// # Quick Start
//
//	cfg := tablemix.DefaultConfig()
//	cfg.MaxContainerSize = 8
//	cfg.Attributes = []string{"Role", "Office", "Gender"}
//
//	src := source.NewCSV(source.CSVConfig{
//	    Path:       "attendees.csv",
//	    Attributes: cfg.Attributes,
//	})
//
//	opt, err := tablemix.NewOptimizer(&cfg, src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := opt.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = sink.NewCSV("out").Publish(ctx, result)
//
// # How It Works
//
// The optimizer runs in two phases:
//
//  1. Initial build: items are grouped by the values of a primary attribute, most
//     frequent value first, and each group is placed with one min-cost batch
//     assignment over the containers that still have room.
//  2. Refinement: every iteration evicts one random member from each container and
//     re-solves the batch. The best arrangement by score and the best by upper-bound
//     violation are both kept.
//
// Refinement moves from Running to exactly one terminal state:
//
//	Running → Converged | Exhausted | TimedOut | Cancelled | Failed
//
// # Observability
//
// Hooks, a MetricsCollector and a Logger can be supplied with functional options:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "tablemix")
//	opt, err := tablemix.NewOptimizer(&cfg, src,
//	    tablemix.WithLogger(logging.NewSlogDefault()),
//	    tablemix.WithMetrics(collector),
//	    tablemix.WithHooks(&tablemix.Hooks{
//	        OnImprovement: func(ctx context.Context, iteration int, score float64) error {
//	            fmt.Printf("iteration %d: %.2f\n", iteration, score)
//	            return nil
//	        },
//	    }),
//	)
//
// Results can be written to several destinations at once with sink.NewMulti,
// including CSV files, the log, a status file and a NATS JetStream key-value bucket.
package tablemix
