package tablemix

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/tablemix/internal/batch"
	"github.com/arloliu/tablemix/internal/entity"
	"github.com/arloliu/tablemix/internal/fingerprint"
	"github.com/arloliu/tablemix/internal/hooks"
	"github.com/arloliu/tablemix/internal/initial"
	"github.com/arloliu/tablemix/internal/logger"
	"github.com/arloliu/tablemix/internal/metrics"
	"github.com/arloliu/tablemix/internal/model"
	"github.com/arloliu/tablemix/internal/refine"
	"github.com/arloliu/tablemix/internal/scoring"
	"github.com/arloliu/tablemix/solver"
	"github.com/arloliu/tablemix/source"
)

// Optimizer arranges a population of items into balanced, diverse containers.
//
// An Optimizer runs once. It loads the items, builds an initial arrangement with
// the batch solver, refines it until a stop condition holds and returns the best
// arrangement found.
type Optimizer struct {
	cfg    Config
	source ItemSource
	solver BatchSolver

	hooks   Hooks
	metrics MetricsCollector
	logger  Logger
	rng     *rand.Rand
	now     func() time.Time

	sm      *refine.StateMachine
	started atomic.Bool
}

// NewOptimizer creates a new optimizer.
//
// The configuration is completed with SetDefaults and validated before use.
//
// Parameters:
//   - cfg: Configuration (defaults are applied in place)
//   - source: Item source (required)
//   - opts: Optional logger, metrics, hooks, solver, random source and clock
//
// Returns:
//   - *Optimizer: Optimizer ready for one Run
//   - error: ErrInvalidConfig or ErrItemSourceRequired
//
// Example:
//
//	cfg := tablemix.DefaultConfig()
//	cfg.Attributes = []string{"Role", "Office", "Gender"}
//	opt, err := tablemix.NewOptimizer(&cfg, source.NewCSV(source.CSVConfig{
//	    Path:       "attendees.csv",
//	    Attributes: cfg.Attributes,
//	}))
//	if err != nil {
//	    return err
//	}
//	result, err := opt.Run(ctx)
func NewOptimizer(cfg *Config, src ItemSource, opts ...Option) (*Optimizer, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if src == nil {
		return nil, ErrItemSourceRequired
	}

	SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	options := &optimizerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logger.NewNop()
	}

	cfg.ValidateWithWarnings(loggerInstance)

	batchSolver := options.solver
	if batchSolver == nil {
		var err error
		if batchSolver, err = solver.New(cfg.Solver); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	randSource := options.rand
	if randSource == nil {
		randSource = newRandSource(cfg.Seed)
	}

	clock := options.clock
	if clock == nil {
		clock = time.Now
	}

	return &Optimizer{
		cfg:     *cfg,
		source:  src,
		solver:  batchSolver,
		hooks:   hooks.Fill(options.hooks),
		metrics: metricsCollector,
		logger:  loggerInstance,
		rng:     rand.New(randSource), //nolint:gosec // eviction is not security sensitive
		now:     clock,
		sm:      refine.NewStateMachine(loggerInstance, metricsCollector),
	}, nil
}

// newRandSource returns a PCG source seeded from seed, or randomly when seed is empty.
func newRandSource(seed string) rand.Source {
	if seed == "" {
		return rand.NewPCG(rand.Uint64(), rand.Uint64()) //nolint:gosec // eviction is not security sensitive
	}
	s := fingerprint.Seed(seed)

	return rand.NewPCG(s, s^0x9e3779b97f4a7c15)
}

// State returns the refinement state.
//
// The state is Running from construction until Run returns, then one of the
// terminal states. This method is thread-safe.
func (o *Optimizer) State() RunState {
	return o.sm.State()
}

// Subscribe returns a channel that receives the current state and the terminal
// state of the run. The channel is closed after the terminal state is delivered or
// when the returned function is called.
//
// Example:
//
//	ch, unsubscribe := opt.Subscribe()
//	defer unsubscribe()
//	go func() {
//	    for state := range ch {
//	        log.Info("optimizer state", "state", state)
//	    }
//	}()
func (o *Optimizer) Subscribe() (<-chan RunState, func()) {
	return o.sm.Subscribe()
}

// Run loads the items, optimizes, and returns the best arrangement found.
//
// Cancelling ctx stops refinement at the next iteration boundary; the result is
// still returned with state Cancelled. A context that is already cancelled yields
// the initial arrangement.
//
// Parameters:
//   - ctx: Cancellation token
//
// Returns:
//   - *Result: Final arrangement and run statistics
//   - error: ErrAlreadyRunning, a source error, or a fatal model/solver/entity error
func (o *Optimizer) Run(ctx context.Context) (*Result, error) {
	if !o.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}

	result, err := o.run(ctx)
	if err != nil {
		o.fail(ctx)
		o.logger.Error("optimization failed", "error", err)

		return nil, err
	}

	return result, nil
}

// fail moves a run that stopped before or during setup to Failed. Runs that failed
// inside refinement are already terminal.
func (o *Optimizer) fail(ctx context.Context) {
	if o.sm.State() != StateRunning || !o.sm.Finish(StateFailed) {
		return
	}
	if err := o.hooks.OnStateChanged(ctx, StateRunning, StateFailed); err != nil {
		o.logger.Warn("state change hook failed", "to", StateFailed, "error", err)
	}
}

func (o *Optimizer) run(ctx context.Context) (*Result, error) {
	rc := refine.NewRunContext(ctx, o.now)
	runID := uuid.NewString()

	records, err := o.source.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	for _, id := range source.DuplicateIDs(records) {
		o.logger.Warn("duplicate item id", "id", id)
	}

	m, err := model.New(o.cfg.Attributes, o.cfg.modelParams(), records)
	if err != nil {
		return nil, fmt.Errorf("failed to build attribute model: %w", err)
	}
	items, err := entity.NewItems(m, records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}
	containers := entity.NewContainers(m)

	o.logger.Info("optimization started",
		"run_id", runID,
		"items", len(items),
		"containers", len(containers),
		"maxContainerSize", m.MaxContainerSize(),
		"solver", o.solver.Name(),
	)

	assigner := batch.New(o.solver, o.logger, o.metrics)
	if err := initial.New(assigner, o.logger, o.metrics).Build(items, containers); err != nil {
		return nil, fmt.Errorf("failed to build initial arrangement: %w", err)
	}
	o.logger.Info("After initial solution",
		"score", scoring.TotalScore(containers),
		"violation", scoring.TotalViolation(containers),
	)

	refiner := refine.New(refine.Config{
		MaxIterations:       o.cfg.MaxIterations,
		MaxRunTime:          o.cfg.MaxRunTime,
		StagnationThreshold: o.cfg.StagnationThreshold,
	}, assigner,
		refine.WithLogger(o.logger),
		refine.WithMetrics(o.metrics),
		refine.WithHooks(&o.hooks),
		refine.WithRand(o.rng),
		refine.WithStateMachine(o.sm),
	)
	out, err := refiner.Run(rc, items, containers)
	if err != nil {
		return nil, err
	}

	result := buildResult(m, items, containers)
	result.RunID = runID
	result.State = out.State
	result.PenaltyViolation = out.BestPenalty
	result.Stats = RunStats{
		StartedAt:            rc.Start(),
		Elapsed:              rc.Elapsed(),
		InitialScore:         out.InitialScore,
		Iterations:           out.Iterations,
		Improvements:         out.Improvements,
		Anomalies:            out.Anomalies,
		DistinctArrangements: out.Distinct,
	}

	o.logger.Info("optimization finished",
		"run_id", runID,
		"state", out.State,
		"score", result.TotalScore,
		"violation", result.TotalViolation,
		"iterations", out.Iterations,
		"elapsed", result.Stats.Elapsed,
	)

	return result, nil
}

// buildResult reports the current arrangement.
func buildResult(m *model.Model, items []*entity.Item, containers []*entity.Container) *Result {
	names := m.Names()
	result := &Result{
		Attributes:        names,
		Placements:        make([]Placement, 0, len(items)),
		Containers:        make([]ContainerSummary, 0, len(containers)),
		TotalScore:        scoring.TotalScore(containers),
		TotalViolation:    scoring.TotalViolation(containers),
		PenaltyContainers: entity.BestPenaltySnapshot(items),
	}

	for _, c := range containers {
		members := slices.Clone(c.Members())
		slices.SortFunc(members, func(a, b *entity.Item) int { return cmp.Compare(a.Index(), b.Index()) })
		for _, it := range members {
			rec := it.Record()
			attrs := make(map[string]string, len(names))
			for _, n := range names {
				attrs[n] = rec.Attributes[n]
			}
			result.Placements = append(result.Placements, Placement{
				ContainerID: c.ID(),
				ID:          rec.ID,
				Name:        rec.Name,
				Attributes:  attrs,
			})
		}

		counts := make(map[string]map[string]int, m.NumAttributes())
		for _, a := range m.Attributes() {
			byValue := make(map[string]int)
			for code, n := range c.Counts(a.Index()) {
				if n > 0 {
					byValue[a.Value(code)] = n
				}
			}
			counts[a.Name()] = byValue
		}
		result.Containers = append(result.Containers, ContainerSummary{
			ContainerID: c.ID(),
			Score:       scoring.Score(c),
			Violation:   scoring.Violation(c),
			Size:        c.Size(),
			Counts:      counts,
		})
	}

	return result
}

// ContainerOf returns the container id of every item id in result, keyed by id.
// For duplicate ids the first placement wins.
func ContainerOf(result *Result) map[string]int {
	out := make(map[string]int, len(result.Placements))
	for _, p := range result.Placements {
		if _, ok := out[p.ID]; !ok {
			out[p.ID] = p.ContainerID
		}
	}

	return out
}

// Values returns the sorted distinct values of attr across the placements of result.
func Values(result *Result, attr string) []string {
	seen := make(map[string]struct{})
	for _, p := range result.Placements {
		seen[p.Attributes[attr]] = struct{}{}
	}

	return slices.Sorted(maps.Keys(seen))
}
