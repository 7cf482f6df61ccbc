package refine

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/arloliu/tablemix/internal/batch"
	"github.com/arloliu/tablemix/internal/entity"
	"github.com/arloliu/tablemix/internal/fingerprint"
	"github.com/arloliu/tablemix/internal/hooks"
	"github.com/arloliu/tablemix/internal/logger"
	"github.com/arloliu/tablemix/internal/metrics"
	"github.com/arloliu/tablemix/internal/scoring"
	"github.com/arloliu/tablemix/types"
)

// scoreEpsilon absorbs float noise when comparing total scores.
const scoreEpsilon = 1e-9

// Config bounds a refinement run.
type Config struct {
	// MaxIterations caps the number of iterations.
	MaxIterations int

	// MaxRunTime is the wall-clock budget. The run stops with TimedOut at the first
	// iteration boundary where it is used up. Zero disables the budget.
	MaxRunTime time.Duration

	// StagnationThreshold is the number of consecutive non-improving iterations
	// after which the run stops early, once more than MaxRunTime has elapsed.
	StagnationThreshold int
}

// Outcome summarizes a finished refinement run.
type Outcome struct {
	State         types.RunState
	Iterations    int
	Improvements  int
	Anomalies     int
	Distinct      int
	InitialScore  float64
	BestScore     float64
	BestViolation int
	BestPenalty   int
}

// Refiner runs the iterated local search.
type Refiner struct {
	cfg      Config
	assigner *batch.Assigner
	rng      *rand.Rand
	sm       *StateMachine
	logger   types.Logger
	metrics  types.RefinementMetrics
	hooks    types.Hooks
}

// Option configures a Refiner.
type Option func(*Refiner)

// WithLogger sets the logger.
func WithLogger(log types.Logger) Option {
	return func(r *Refiner) {
		if log != nil {
			r.logger = log
		}
	}
}

// WithMetrics sets the refinement metrics collector.
func WithMetrics(m types.RefinementMetrics) Option {
	return func(r *Refiner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithHooks sets lifecycle callbacks. Nil callbacks are ignored.
func WithHooks(h *types.Hooks) Option {
	return func(r *Refiner) {
		r.hooks = hooks.Fill(h)
	}
}

// WithRand sets the eviction random source.
func WithRand(rng *rand.Rand) Option {
	return func(r *Refiner) {
		if rng != nil {
			r.rng = rng
		}
	}
}

// WithStateMachine shares an externally owned state machine, so callers can
// observe the run while it is in progress.
func WithStateMachine(sm *StateMachine) Option {
	return func(r *Refiner) {
		if sm != nil {
			r.sm = sm
		}
	}
}

// New creates a refiner.
//
// Parameters:
//   - cfg: Iteration and time budget
//   - assigner: Batch assigner used to re-solve evicted members
//   - opts: Optional configuration
//
// Returns:
//   - *Refiner: Refiner ready for a single Run
func New(cfg Config, assigner *batch.Assigner, opts ...Option) *Refiner {
	r := &Refiner{
		cfg:      cfg,
		assigner: assigner,
		logger:   logger.NewNop(),
		metrics:  metrics.NewNop(),
		hooks:    hooks.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // not security sensitive
	}
	if r.sm == nil {
		r.sm = NewStateMachine(r.logger, r.metrics)
	}

	return r
}

// StateMachine returns the lifecycle state machine of this refiner.
func (r *Refiner) StateMachine() *StateMachine { return r.sm }

// Run improves a complete arrangement until a stop condition holds.
//
// On return (success or failure) the items and containers hold the best-by-score
// arrangement seen, and every item carries its best-by-penalty container.
//
// Parameters:
//   - rc: Run context with the cancellation token and start instant
//   - items: All items, each assigned to a container
//   - containers: All containers
//
// Returns:
//   - Outcome: Terminal state and run statistics
//   - error: Fatal solver or entity error; the state is Failed
func (r *Refiner) Run(rc *RunContext, items []*entity.Item, containers []*entity.Container) (Outcome, error) {
	ctx := rc.Context()

	score := scoring.TotalScore(containers)
	violation := scoring.TotalViolation(containers)
	out := Outcome{
		InitialScore:  score,
		BestScore:     score,
		BestViolation: violation,
		BestPenalty:   violation,
	}
	for _, it := range items {
		it.SaveBestScore()
		it.SaveBestPenalty()
	}

	tracker := fingerprint.NewTracker()
	tracker.Observe(fingerprint.Arrangement(containers))

	pure := len(containers) > 0 && containers[0].Model().PureQuadratic()
	optimal := len(items) == 0 || (pure && violation == 0)
	stagnation := 0

	r.logger.Info("refinement started",
		"score", score,
		"violation", violation,
		"containers", len(containers),
		"items", len(items),
	)

	var state types.RunState
	for {
		if s, stop := r.stopState(rc, optimal, out.Iterations, stagnation); stop {
			state = s
			break
		}

		out.Iterations++
		iteration := out.Iterations
		before := score

		evicted, donors, err := r.evict(containers)
		if err == nil {
			_, err = r.assigner.Assign(evicted, donors)
		}
		if err != nil {
			out.Distinct = tracker.Distinct()
			if rerr := r.restore(items, containers); rerr != nil {
				r.logger.Error("failed to restore best arrangement", "error", rerr)
			}
			r.finish(ctx, types.StateFailed)
			out.State = types.StateFailed

			return out, fmt.Errorf("refinement iteration %d: %w", iteration, err)
		}

		score = scoring.TotalScore(containers)
		violation = scoring.TotalViolation(containers)
		tracker.Observe(fingerprint.Arrangement(containers))

		improved := score < out.BestScore-scoreEpsilon
		switch {
		case improved:
			out.BestScore = score
			out.BestViolation = violation
			out.Improvements++
			stagnation = 0
			saveBestScore(items)
			if pure && violation == 0 {
				optimal = true
			}
			if err := r.hooks.OnImprovement(ctx, iteration, score); err != nil {
				r.logger.Warn("improvement hook failed", "iteration", iteration, "error", err)
			}
		case math.Abs(score-out.BestScore) <= scoreEpsilon && violation < out.BestViolation:
			out.BestViolation = violation
			stagnation++
			saveBestScore(items)
		default:
			stagnation++
		}

		if violation < out.BestPenalty {
			out.BestPenalty = violation
			for _, it := range items {
				it.SaveBestPenalty()
			}
		}

		if score > before+scoreEpsilon {
			out.Anomalies++
			r.metrics.RecordAnomaly()
			r.logger.Warn("refinement iteration made the score worse",
				"iteration", iteration,
				"before", before,
				"after", score,
			)
			if err := r.hooks.OnAnomaly(ctx, iteration, before, score); err != nil {
				r.logger.Warn("anomaly hook failed", "iteration", iteration, "error", err)
			}
		}

		r.metrics.RecordIteration(score, violation, improved)
		r.logger.Debug("refinement iteration",
			"iteration", iteration,
			"score", score,
			"violation", violation,
			"stagnation", stagnation,
		)
	}

	out.Distinct = tracker.Distinct()
	if err := r.restore(items, containers); err != nil {
		r.finish(ctx, types.StateFailed)
		out.State = types.StateFailed

		return out, err
	}
	r.finish(ctx, state)
	out.State = state

	r.logger.Info("refinement finished",
		"state", state,
		"iterations", out.Iterations,
		"improvements", out.Improvements,
		"bestScore", out.BestScore,
		"bestPenalty", out.BestPenalty,
		"elapsed", rc.Elapsed(),
	)

	return out, nil
}

// stopState evaluates the stop conditions in priority order.
func (r *Refiner) stopState(rc *RunContext, optimal bool, iterations, stagnation int) (types.RunState, bool) {
	switch {
	case rc.Cancelled():
		return types.StateCancelled, true
	case r.cfg.MaxRunTime > 0 && rc.Elapsed() >= r.cfg.MaxRunTime:
		return types.StateTimedOut, true
	case optimal:
		return types.StateConverged, true
	case iterations >= r.cfg.MaxIterations:
		return types.StateExhausted, true
	case stagnation > r.cfg.StagnationThreshold && rc.Elapsed() > r.cfg.MaxRunTime:
		return types.StateTimedOut, true
	default:
		return types.StateRunning, false
	}
}

// evict removes one random member from every non-empty container.
func (r *Refiner) evict(containers []*entity.Container) ([]*entity.Item, []*entity.Container, error) {
	evicted := make([]*entity.Item, 0, len(containers))
	donors := make([]*entity.Container, 0, len(containers))
	for _, c := range containers {
		if c.Size() == 0 {
			continue
		}
		it := c.Members()[r.rng.IntN(c.Size())]
		if err := c.Remove(it); err != nil {
			return nil, nil, fmt.Errorf("evict item %d from container %d: %w", it.Index(), c.ID(), err)
		}
		evicted = append(evicted, it)
		donors = append(donors, c)
	}

	return evicted, donors, nil
}

// restore moves every item back to its best-by-score container.
func (r *Refiner) restore(items []*entity.Item, containers []*entity.Container) error {
	if err := entity.Apply(items, containers, entity.BestScoreSnapshot(items)); err != nil {
		return fmt.Errorf("restore best arrangement: %w", err)
	}

	return nil
}

// finish moves the state machine to a terminal state and fires the hook.
func (r *Refiner) finish(ctx context.Context, to types.RunState) {
	if !r.sm.Finish(to) {
		return
	}
	if err := r.hooks.OnStateChanged(ctx, types.StateRunning, to); err != nil {
		r.logger.Warn("state change hook failed", "to", to, "error", err)
	}
}

func saveBestScore(items []*entity.Item) {
	for _, it := range items {
		it.SaveBestScore()
	}
}
