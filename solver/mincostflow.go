package solver

import (
	"fmt"
	"math"

	"github.com/arloliu/tablemix/types"
)

// NameMinCostFlow identifies the successive shortest path solver.
const NameMinCostFlow = "mincostflow"

// MinCostFlow solves the transportation problem with successive shortest paths.
//
// The network has a source feeding every item, a sink drained by every container
// and a balancing node: surplus items flow item→balance→sink when m > n, and
// surplus demand flows source→balance→container when m < n. Each augmentation
// pushes one unit along a shortest path under Johnson potentials, found with a
// dense Dijkstra.
type MinCostFlow struct{}

var _ types.BatchSolver = (*MinCostFlow)(nil)

// NewMinCostFlow creates a new min-cost-flow solver.
//
// Returns:
//   - *MinCostFlow: Stateless solver, safe for concurrent use
//
// Example:
//
//	s := solver.NewMinCostFlow()
//	assigned, err := s.Solve([][]float64{{1, 4}, {2, 1}})
//	// assigned == []int{0, 1}
func NewMinCostFlow() *MinCostFlow {
	return &MinCostFlow{}
}

// Name returns "mincostflow".
func (s *MinCostFlow) Name() string { return NameMinCostFlow }

// Solve computes a minimum-cost assignment of rows (items) to columns (containers).
//
// The algorithm:
//  1. Build the residual network with unit capacities
//  2. Initialize potentials with one shortest path pass (the network is a DAG)
//  3. Augment max(m, n) times along Dijkstra shortest paths on reduced costs
//  4. Read item→container arcs carrying flow above FlowThreshold
//
// Parameters:
//   - costs: m×n cost matrix
//
// Returns:
//   - []int: Column per row, -1 for rows routed to the balancing node
//   - error: ErrInvalidCost or ErrSolverInfeasible
func (s *MinCostFlow) Solve(costs [][]float64) ([]int, error) {
	m, n, err := validateCosts(costs)
	if err != nil {
		return nil, err
	}
	if m == 0 {
		return []int{}, nil
	}
	if n == 0 {
		return unassigned(m), nil
	}

	g := newTransportNetwork(costs, m, n)
	if err := g.initPotentials(); err != nil {
		return nil, err
	}

	need := max(m, n)
	for pushed := 0; pushed < need; {
		if !g.shortestPath() {
			return nil, fmt.Errorf("%w: augmented %d of %d units", types.ErrSolverInfeasible, pushed, need)
		}
		pushed += g.augment()
	}

	return g.extract(), nil
}

type arc struct {
	to   int
	cap  int
	cost float64
	rev  int // index of the reverse arc
}

type network struct {
	m, n   int
	source int
	sink   int
	bal    int
	adj    [][]int // node -> arc indexes
	arcs   []arc

	// itemArcs[i][j] is the arc index of item i → container j.
	itemArcs [][]int

	pot  []float64
	dist []float64
	prev []int // arc index used to reach node
	done []bool
}

func newTransportNetwork(costs [][]float64, m, n int) *network {
	nodes := m + n + 3
	g := &network{
		m:        m,
		n:        n,
		source:   0,
		bal:      m + n + 1,
		sink:     m + n + 2,
		adj:      make([][]int, nodes),
		arcs:     make([]arc, 0, 2*(m*n+2*m+2*n+1)),
		itemArcs: make([][]int, m),
		pot:      make([]float64, nodes),
		dist:     make([]float64, nodes),
		prev:     make([]int, nodes),
		done:     make([]bool, nodes),
	}

	// Arcs are added in topological order of their tails; initPotentials relies on it.
	for i := 0; i < m; i++ {
		g.addArc(g.source, g.item(i), 1, 0)
	}
	if m < n {
		g.addArc(g.source, g.bal, n-m, 0)
		for j := 0; j < n; j++ {
			g.addArc(g.bal, g.container(j), 1, 0)
		}
	}
	for i := 0; i < m; i++ {
		g.itemArcs[i] = make([]int, n)
		for j := 0; j < n; j++ {
			g.itemArcs[i][j] = g.addArc(g.item(i), g.container(j), 1, costs[i][j])
		}
		if m > n {
			g.addArc(g.item(i), g.bal, 1, 0)
		}
	}
	if m > n {
		g.addArc(g.bal, g.sink, m-n, 0)
	}
	for j := 0; j < n; j++ {
		g.addArc(g.container(j), g.sink, 1, 0)
	}

	return g
}

func (g *network) item(i int) int      { return 1 + i }
func (g *network) container(j int) int { return 1 + g.m + j }

func (g *network) addArc(from, to, capacity int, cost float64) int {
	fwd := len(g.arcs)
	g.arcs = append(g.arcs,
		arc{to: to, cap: capacity, cost: cost, rev: fwd + 1},
		arc{to: from, cap: 0, cost: -cost, rev: fwd},
	)
	g.adj[from] = append(g.adj[from], fwd)
	g.adj[to] = append(g.adj[to], fwd+1)

	return fwd
}

// initPotentials computes shortest distances from the source over the initial
// network. Forward arcs are relaxed in insertion order, which is topological, so a
// single pass is exact; the second pass is a consistency check.
func (g *network) initPotentials() error {
	inf := math.Inf(1)
	for v := range g.pot {
		g.pot[v] = inf
	}
	g.pot[g.source] = 0

	for pass := 0; pass < 2; pass++ {
		changed := false
		for a := 0; a < len(g.arcs); a += 2 {
			e := g.arcs[a]
			from := g.arcs[e.rev].to
			if g.pot[from] == inf {
				continue
			}
			if d := g.pot[from] + e.cost; d < g.pot[e.to] {
				g.pot[e.to] = d
				changed = true
			}
		}
		if !changed {
			break
		}
		if pass == 1 {
			return fmt.Errorf("%w: potentials did not settle", types.ErrSolverInfeasible)
		}
	}

	// The balancing node is isolated when m == n.
	for v, p := range g.pot {
		if p == inf {
			g.pot[v] = 0
		}
	}

	return nil
}

// shortestPath runs a dense Dijkstra from the source on reduced costs and updates
// the potentials. It reports whether the sink is reachable.
func (g *network) shortestPath() bool {
	inf := math.Inf(1)
	for v := range g.dist {
		g.dist[v] = inf
		g.prev[v] = -1
		g.done[v] = false
	}
	g.dist[g.source] = 0

	for {
		u := -1
		best := inf
		for v, d := range g.dist {
			if !g.done[v] && d < best {
				u, best = v, d
			}
		}
		if u == -1 {
			break
		}
		g.done[u] = true
		if u == g.sink {
			break
		}
		for _, a := range g.adj[u] {
			e := &g.arcs[a]
			if e.cap == 0 || g.done[e.to] {
				continue
			}
			rc := e.cost + g.pot[u] - g.pot[e.to]
			if rc < 0 {
				// Floating point drift; exact arithmetic keeps rc >= 0.
				rc = 0
			}
			if d := best + rc; d < g.dist[e.to] {
				g.dist[e.to] = d
				g.prev[e.to] = a
			}
		}
	}

	if g.dist[g.sink] == inf {
		return false
	}

	limit := g.dist[g.sink]
	for v := range g.pot {
		g.pot[v] += min(g.dist[v], limit)
	}

	return true
}

// augment pushes the bottleneck along the path recorded by shortestPath.
func (g *network) augment() int {
	push := math.MaxInt
	for v := g.sink; v != g.source; {
		a := g.prev[v]
		push = min(push, g.arcs[a].cap)
		v = g.arcs[g.arcs[a].rev].to
	}
	for v := g.sink; v != g.source; {
		a := g.prev[v]
		g.arcs[a].cap -= push
		g.arcs[g.arcs[a].rev].cap += push
		v = g.arcs[g.arcs[a].rev].to
	}

	return push
}

func (g *network) extract() []int {
	out := unassigned(g.m)
	for i, row := range g.itemArcs {
		for j, a := range row {
			// Flow equals the residual capacity of the reverse arc.
			if float64(g.arcs[g.arcs[a].rev].cap) > FlowThreshold {
				out[i] = j

				break
			}
		}
	}

	return out
}
