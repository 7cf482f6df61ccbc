package refine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/tablemix/internal/batch"
	"github.com/arloliu/tablemix/internal/entity"
	"github.com/arloliu/tablemix/internal/initial"
	"github.com/arloliu/tablemix/internal/logger"
	"github.com/arloliu/tablemix/internal/model"
	"github.com/arloliu/tablemix/internal/scoring"
	"github.com/arloliu/tablemix/solver"
	"github.com/arloliu/tablemix/types"
	"github.com/stretchr/testify/require"
)

// worstSolver picks the most expensive assignment.
type worstSolver struct{ inner types.BatchSolver }

func (w worstSolver) Name() string { return "worst" }

func (w worstSolver) Solve(costs [][]float64) ([]int, error) {
	var hi float64
	for _, row := range costs {
		for _, c := range row {
			hi = max(hi, c)
		}
	}
	flipped := make([][]float64, len(costs))
	for i, row := range costs {
		flipped[i] = make([]float64, len(row))
		for j, c := range row {
			flipped[i][j] = hi - c
		}
	}

	return w.inner.Solve(flipped)
}

type failingSolver struct{}

func (failingSolver) Name() string { return "failing" }

func (failingSolver) Solve(_ [][]float64) ([]int, error) {
	return nil, types.ErrSolverInfeasible
}

// fakeClock advances by step on every reading.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)

	return c.now
}

func staff(n int) []types.ItemRecord {
	records := make([]types.ItemRecord, n)
	for i := range records {
		records[i] = types.ItemRecord{
			ID: fmt.Sprintf("S%02d", i),
			Attributes: map[string]string{
				"Gender": []string{"F", "M"}[i%2],
				"Office": []string{"NY", "NY", "LA", "SF"}[i%4],
				"Role":   []string{"P", "A", "C"}[i%3],
			},
		}
	}

	return records
}

// mixable has exactly one zero-violation pairing.
func mixable() []types.ItemRecord {
	return []types.ItemRecord{
		{ID: "1", Attributes: map[string]string{"Gender": "F", "Office": "NY", "Role": "P"}},
		{ID: "2", Attributes: map[string]string{"Gender": "F", "Office": "LA", "Role": "P"}},
		{ID: "3", Attributes: map[string]string{"Gender": "M", "Office": "NY", "Role": "P"}},
		{ID: "4", Attributes: map[string]string{"Gender": "M", "Office": "LA", "Role": "P"}},
	}
}

func setup(t *testing.T, records []types.ItemRecord, params model.Params) ([]*entity.Item, []*entity.Container) {
	t.Helper()
	m, err := model.New([]string{"Gender", "Office", "Role"}, params, records)
	require.NoError(t, err)
	items, err := entity.NewItems(m, records)
	require.NoError(t, err)
	containers := entity.NewContainers(m)
	b := initial.New(batch.New(solver.NewMinCostFlow(), nil, nil), nil, nil)
	require.NoError(t, b.Build(items, containers))

	return items, containers
}

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2)) //nolint:gosec // tests
}

func TestRun_PreCancelled(t *testing.T) {
	items, containers := setup(t, staff(12), model.Params{MaxContainerSize: 4, DefaultWeight: 1, DefaultSameness: 1})
	before := entity.Snapshot(items)
	initialScore := scoring.TotalScore(containers)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(Config{MaxIterations: 100}, batch.New(solver.NewMinCostFlow(), nil, nil), WithRand(seeded()))
	out, err := r.Run(NewRunContext(ctx, nil), items, containers)
	require.NoError(t, err)

	require.Equal(t, types.StateCancelled, out.State)
	require.Equal(t, types.StateCancelled, r.StateMachine().State())
	require.Zero(t, out.Iterations)
	require.Equal(t, before, entity.Snapshot(items))
	require.InDelta(t, initialScore, out.BestScore, 1e-9)
	require.InDelta(t, initialScore, out.InitialScore, 1e-9)
}

func TestRun_CancelledWinsOverConverged(t *testing.T) {
	items, containers := setup(t, mixable(), model.Params{MaxContainerSize: 2, DefaultWeight: 1})
	require.Zero(t, scoring.TotalViolation(containers))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := New(Config{MaxIterations: 10}, batch.New(solver.NewMinCostFlow(), nil, nil)).
		Run(NewRunContext(ctx, nil), items, containers)
	require.NoError(t, err)
	require.Equal(t, types.StateCancelled, out.State)
}

func TestRun_ConvergedOnOptimalInitial(t *testing.T) {
	items, containers := setup(t, mixable(), model.Params{MaxContainerSize: 2, DefaultWeight: 1})
	require.Zero(t, scoring.TotalViolation(containers))

	out, err := New(Config{MaxIterations: 10}, batch.New(solver.NewMinCostFlow(), nil, nil)).
		Run(NewRunContext(context.Background(), nil), items, containers)
	require.NoError(t, err)
	require.Equal(t, types.StateConverged, out.State)
	require.Zero(t, out.Iterations)
}

func TestRun_ImprovesBadArrangement(t *testing.T) {
	records := []types.ItemRecord{
		{ID: "1", Attributes: map[string]string{"Gender": "F"}},
		{ID: "2", Attributes: map[string]string{"Gender": "F"}},
		{ID: "3", Attributes: map[string]string{"Gender": "M"}},
		{ID: "4", Attributes: map[string]string{"Gender": "M"}},
	}
	m, err := model.New([]string{"Gender"}, model.Params{MaxContainerSize: 2, DefaultWeight: 1}, records)
	require.NoError(t, err)
	items, err := entity.NewItems(m, records)
	require.NoError(t, err)
	containers := entity.NewContainers(m)
	require.NoError(t, entity.Apply(items, containers, []int{0, 0, 1, 1}))
	require.InDelta(t, 8.0, scoring.TotalScore(containers), 1e-9)

	var improvements []float64
	var transitions []types.RunState
	h := &types.Hooks{
		OnImprovement: func(_ context.Context, _ int, score float64) error {
			improvements = append(improvements, score)
			return nil
		},
		OnStateChanged: func(_ context.Context, _, to types.RunState) error {
			transitions = append(transitions, to)
			return errors.New("ignored")
		},
	}

	r := New(Config{MaxIterations: 10, StagnationThreshold: 5}, batch.New(solver.NewMinCostFlow(), nil, nil),
		WithHooks(h), WithRand(seeded()))
	out, err := r.Run(NewRunContext(context.Background(), nil), items, containers)
	require.NoError(t, err)

	require.Equal(t, types.StateConverged, out.State)
	require.Equal(t, 1, out.Iterations)
	require.Equal(t, 1, out.Improvements)
	require.InDelta(t, 8.0, out.InitialScore, 1e-9)
	require.InDelta(t, 4.0, out.BestScore, 1e-9)
	require.Zero(t, out.BestPenalty)
	require.Equal(t, 2, out.Distinct)
	require.Equal(t, []float64{4}, improvements)
	require.Equal(t, []types.RunState{types.StateConverged}, transitions)
	require.InDelta(t, 4.0, scoring.TotalScore(containers), 1e-9)
	require.Equal(t, entity.Snapshot(items), entity.BestPenaltySnapshot(items))
}

func TestRun_Exhausted(t *testing.T) {
	items, containers := setup(t, staff(12), model.Params{MaxContainerSize: 4, DefaultWeight: 1, DefaultSameness: 1})

	r := New(Config{MaxIterations: 7, StagnationThreshold: 1000, MaxRunTime: time.Hour},
		batch.New(solver.NewMinCostFlow(), nil, nil), WithRand(seeded()))
	out, err := r.Run(NewRunContext(context.Background(), nil), items, containers)
	require.NoError(t, err)

	require.Equal(t, types.StateExhausted, out.State)
	require.Equal(t, 7, out.Iterations)
	require.Zero(t, out.Anomalies)
	require.LessOrEqual(t, out.BestScore, out.InitialScore+1e-9)
	require.InDelta(t, out.BestScore, scoring.TotalScore(containers), 1e-9)
	require.Equal(t, entity.BestScoreSnapshot(items), entity.Snapshot(items))
	require.GreaterOrEqual(t, out.Distinct, 1)
	require.Empty(t, entity.UnassignedItems(items))
	for _, c := range containers {
		require.NoError(t, c.Verify())
	}
}

func TestRun_TimedOutOnStagnation(t *testing.T) {
	items, containers := setup(t, staff(6), model.Params{MaxContainerSize: 3, DefaultWeight: 1, DefaultSameness: 1})
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Minute}

	// No time budget: one non-improving iteration past the threshold is enough.
	r := New(Config{MaxIterations: 1000, StagnationThreshold: 0},
		batch.New(solver.NewMinCostFlow(), nil, nil), WithRand(seeded()))
	out, err := r.Run(NewRunContext(context.Background(), clock.Now), items, containers)
	require.NoError(t, err)

	require.Equal(t, types.StateTimedOut, out.State)
	require.Less(t, out.Iterations, 1000)
	require.Positive(t, out.Iterations)
}

func TestRun_TimeBudgetIsHardStop(t *testing.T) {
	items, containers := setup(t, staff(12), model.Params{MaxContainerSize: 4, DefaultWeight: 1, DefaultSameness: 1})
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Minute}
	rc := NewRunContext(context.Background(), clock.Now)

	var transitions []types.RunState
	h := &types.Hooks{OnStateChanged: func(_ context.Context, _, to types.RunState) error {
		transitions = append(transitions, to)
		return nil
	}}

	r := New(Config{MaxIterations: 40, StagnationThreshold: 1000, MaxRunTime: 10 * time.Minute},
		batch.New(solver.NewMinCostFlow(), nil, nil), WithRand(seeded()), WithHooks(h))
	out, err := r.Run(rc, items, containers)
	require.NoError(t, err)

	// One clock reading per stop check: the tenth check sees ten minutes elapsed.
	require.Equal(t, types.StateTimedOut, out.State)
	require.Equal(t, 9, out.Iterations)
	require.Equal(t, []types.RunState{types.StateTimedOut}, transitions)
	require.InDelta(t, out.BestScore, scoring.TotalScore(containers), 1e-9)
	require.Empty(t, entity.UnassignedItems(items))

	t.Run("budget already used", func(t *testing.T) {
		items, containers := setup(t, staff(12), model.Params{MaxContainerSize: 4, DefaultWeight: 1, DefaultSameness: 1})
		clock := &fakeClock{now: time.Unix(0, 0), step: time.Hour}

		r := New(Config{MaxIterations: 40, StagnationThreshold: 1000, MaxRunTime: time.Second},
			batch.New(solver.NewMinCostFlow(), nil, nil), WithRand(seeded()))
		out, err := r.Run(NewRunContext(context.Background(), clock.Now), items, containers)
		require.NoError(t, err)

		require.Equal(t, types.StateTimedOut, out.State)
		require.Zero(t, out.Iterations)
	})
}

// recordingSolver remembers the shape of every cost matrix it is handed.
type recordingSolver struct {
	mu     sync.Mutex
	inner  types.BatchSolver
	shapes [][2]int
}

func (r *recordingSolver) Name() string { return "recording" }

func (r *recordingSolver) Solve(costs [][]float64) ([]int, error) {
	r.mu.Lock()
	r.shapes = append(r.shapes, [2]int{len(costs), len(costs[0])})
	r.mu.Unlock()

	return r.inner.Solve(costs)
}

func TestRun_SkipsEmptyContainers(t *testing.T) {
	records := staff(6)
	m, err := model.New([]string{"Gender", "Office", "Role"},
		model.Params{MaxContainerSize: 3, DefaultWeight: 1, DefaultSameness: 1}, records)
	require.NoError(t, err)
	items, err := entity.NewItems(m, records)
	require.NoError(t, err)
	containers := entity.NewContainers(m)
	require.Len(t, containers, 2)
	require.NoError(t, entity.Apply(items, containers, []int{0, 0, 0, 0, 0, 0}))

	rec := &recordingSolver{inner: solver.NewMinCostFlow()}
	r := New(Config{MaxIterations: 5, StagnationThreshold: 1000},
		batch.New(rec, nil, nil), WithRand(seeded()))
	out, err := r.Run(NewRunContext(context.Background(), nil), items, containers)
	require.NoError(t, err)

	require.Equal(t, types.StateExhausted, out.State)
	require.Equal(t, 5, out.Iterations)
	require.Empty(t, entity.UnassignedItems(items))
	for _, c := range containers {
		require.NoError(t, c.Verify())
	}
	require.Equal(t, 6, containers[0].Size())
	require.Zero(t, containers[1].Size())

	require.Len(t, rec.shapes, 5)
	for _, shape := range rec.shapes {
		require.Equal(t, [2]int{1, 1}, shape)
	}
}

func TestRun_AnomalyIsCountedAndBestRestored(t *testing.T) {
	records := []types.ItemRecord{
		{ID: "1", Attributes: map[string]string{"Gender": "F", "Office": "NY", "Role": "P"}},
		{ID: "2", Attributes: map[string]string{"Gender": "M", "Office": "NY", "Role": "P"}},
		{ID: "3", Attributes: map[string]string{"Gender": "F", "Office": "NY", "Role": "P"}},
		{ID: "4", Attributes: map[string]string{"Gender": "M", "Office": "NY", "Role": "P"}},
	}
	m, err := model.New([]string{"Gender", "Office", "Role"},
		model.Params{MaxContainerSize: 2, DefaultWeight: 1, DefaultSameness: 1}, records)
	require.NoError(t, err)
	items, err := entity.NewItems(m, records)
	require.NoError(t, err)
	containers := entity.NewContainers(m)
	require.NoError(t, entity.Apply(items, containers, []int{0, 0, 1, 1}))
	initialScore := scoring.TotalScore(containers)

	log := logger.NewTest(t)
	var anomalies int
	h := &types.Hooks{OnAnomaly: func(_ context.Context, _ int, before, after float64) error {
		anomalies++
		require.Greater(t, after, before)

		return nil
	}}

	r := New(Config{MaxIterations: 20, StagnationThreshold: 1000, MaxRunTime: time.Hour},
		batch.New(worstSolver{inner: solver.NewMinCostFlow()}, nil, nil),
		WithRand(seeded()), WithHooks(h), WithLogger(log))
	out, err := r.Run(NewRunContext(context.Background(), nil), items, containers)
	require.NoError(t, err)

	require.Equal(t, types.StateExhausted, out.State)
	require.Equal(t, 1, out.Anomalies)
	require.Equal(t, 1, anomalies)
	require.Len(t, log.Entries("WARN"), 1)
	require.Zero(t, out.Improvements)
	require.InDelta(t, initialScore, out.BestScore, 1e-9)
	require.InDelta(t, initialScore, scoring.TotalScore(containers), 1e-9)
	require.Equal(t, []int{0, 0, 1, 1}, entity.Snapshot(items))
}

func TestRun_SolverFailure(t *testing.T) {
	items, containers := setup(t, staff(8), model.Params{MaxContainerSize: 4, DefaultWeight: 1, DefaultSameness: 1})
	before := entity.Snapshot(items)

	r := New(Config{MaxIterations: 5}, batch.New(failingSolver{}, nil, nil))
	out, err := r.Run(NewRunContext(context.Background(), nil), items, containers)
	require.ErrorIs(t, err, types.ErrSolverInfeasible)
	require.Equal(t, types.StateFailed, out.State)
	require.Equal(t, types.StateFailed, r.StateMachine().State())
	require.Equal(t, before, entity.Snapshot(items))
}

func TestRun_ZeroItemsConverges(t *testing.T) {
	m, err := model.New([]string{"Gender"}, model.Params{MaxContainerSize: 3, DefaultWeight: 1, DefaultSameness: 1}, nil)
	require.NoError(t, err)

	out, err := New(Config{MaxIterations: 5}, batch.New(solver.NewMinCostFlow(), nil, nil)).
		Run(NewRunContext(context.Background(), nil), nil, entity.NewContainers(m))
	require.NoError(t, err)
	require.Equal(t, types.StateConverged, out.State)
	require.Zero(t, out.Iterations)
}

func TestRunContext_Elapsed(t *testing.T) {
	clock := &fakeClock{now: time.Unix(100, 0), step: time.Second}
	rc := NewRunContext(context.Background(), clock.Now)

	require.Equal(t, time.Unix(101, 0), rc.Start())
	require.Equal(t, time.Second, rc.Elapsed())
	require.False(t, rc.Cancelled())
}
