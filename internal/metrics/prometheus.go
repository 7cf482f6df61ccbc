package metrics

import (
	"strconv"
	"sync"

	"github.com/arloliu/tablemix/types"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing a
// collector that is never exercised leaves the registry untouched.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	buildBatches       prometheus.Counter
	buildBatchItems    prometheus.Histogram
	buildDuration      prometheus.Histogram
	iterations         *prometheus.CounterVec
	score              prometheus.Gauge
	violation          prometheus.Gauge
	anomalies          prometheus.Counter
	stateTransitions   *prometheus.CounterVec
	stateChangeDropped prometheus.Counter
	solves             *prometheus.CounterVec
	solveDuration      *prometheus.HistogramVec
	publishes          *prometheus.CounterVec
	publishDuration    *prometheus.HistogramVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "tablemix" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "tablemix"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.buildBatches = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "builder",
			Name:      "batches_total",
			Help:      "Total solver batches issued while building the initial arrangement.",
		})
		p.buildBatchItems = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "builder",
			Name:      "batch_items",
			Help:      "Number of items per builder batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1 .. 512
		})
		p.buildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "builder",
			Name:      "duration_seconds",
			Help:      "Time spent building the initial arrangement.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~4m
		})

		p.iterations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "refine",
			Name:      "iterations_total",
			Help:      "Total refinement iterations by outcome (improved=true/false).",
		}, []string{"improved"})
		p.score = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "refine",
			Name:      "score",
			Help:      "Total score after the latest refinement iteration (lower is better).",
		})
		p.violation = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "refine",
			Name:      "violation",
			Help:      "Total upper-bound violation after the latest refinement iteration.",
		})
		p.anomalies = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "refine",
			Name:      "anomalies_total",
			Help:      "Iterations whose total score got strictly worse.",
		})
		p.stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "refine",
			Name:      "state_transitions_total",
			Help:      "Refinement state transitions.",
		}, []string{"from", "to"})
		p.stateChangeDropped = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "refine",
			Name:      "state_changes_dropped_total",
			Help:      "State notifications dropped because a subscriber was slow.",
		})

		p.solves = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "solver",
			Name:      "solves_total",
			Help:      "Total batch solves by solver and result (success, failure).",
		}, []string{"solver", "result"})
		p.solveDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "solver",
			Name:      "solve_duration_seconds",
			Help:      "Latency of batch solves in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs .. ~26s
		}, []string{"solver"})

		p.publishes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "sink",
			Name:      "publishes_total",
			Help:      "Total result publications by sink and result (success, failure).",
		}, []string{"sink", "result"})
		p.publishDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "sink",
			Name:      "publish_duration_seconds",
			Help:      "Latency of result publications in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"sink"})

		p.reg.MustRegister(p.buildBatches)
		p.reg.MustRegister(p.buildBatchItems)
		p.reg.MustRegister(p.buildDuration)
		p.reg.MustRegister(p.iterations)
		p.reg.MustRegister(p.score)
		p.reg.MustRegister(p.violation)
		p.reg.MustRegister(p.anomalies)
		p.reg.MustRegister(p.stateTransitions)
		p.reg.MustRegister(p.stateChangeDropped)
		p.reg.MustRegister(p.solves)
		p.reg.MustRegister(p.solveDuration)
		p.reg.MustRegister(p.publishes)
		p.reg.MustRegister(p.publishDuration)
	})
}

func result(success bool) string {
	if success {
		return "success"
	}

	return "failure"
}

// BuilderMetrics implementation

// RecordBuildBatch counts a builder batch and observes its item count.
func (p *PrometheusCollector) RecordBuildBatch(items, _ /* containers */ int) {
	p.ensureRegistered()
	p.buildBatches.Inc()
	p.buildBatchItems.Observe(float64(items))
}

// RecordBuildDuration observes the build duration.
func (p *PrometheusCollector) RecordBuildDuration(duration float64) {
	p.ensureRegistered()
	p.buildDuration.Observe(duration)
}

// RefinementMetrics implementation

// RecordIteration counts an iteration and sets the score and violation gauges.
func (p *PrometheusCollector) RecordIteration(score float64, violation int, improved bool) {
	p.ensureRegistered()
	p.iterations.WithLabelValues(strconv.FormatBool(improved)).Inc()
	p.score.Set(score)
	p.violation.Set(float64(violation))
}

// RecordAnomaly increments the anomaly counter.
func (p *PrometheusCollector) RecordAnomaly() {
	p.ensureRegistered()
	p.anomalies.Inc()
}

// RecordStateTransition counts a state transition.
func (p *PrometheusCollector) RecordStateTransition(from, to types.RunState) {
	p.ensureRegistered()
	p.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

// RecordStateChangeDropped increments the dropped notification counter.
func (p *PrometheusCollector) RecordStateChangeDropped() {
	p.ensureRegistered()
	p.stateChangeDropped.Inc()
}

// SolverMetrics implementation

// RecordSolve counts a solve and observes its latency.
func (p *PrometheusCollector) RecordSolve(solver string, _ /* items */ int, duration float64, success bool) {
	p.ensureRegistered()
	p.solves.WithLabelValues(solver, result(success)).Inc()
	p.solveDuration.WithLabelValues(solver).Observe(duration)
}

// SinkMetrics implementation

// RecordPublish counts a publication and observes its latency.
func (p *PrometheusCollector) RecordPublish(sink string, duration float64, success bool) {
	p.ensureRegistered()
	p.publishes.WithLabelValues(sink, result(success)).Inc()
	p.publishDuration.WithLabelValues(sink).Observe(duration)
}
