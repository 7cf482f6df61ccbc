// Package initial builds the first complete arrangement.
//
// Items are placed value by value for a primary attribute type, rarest value
// first, while only containers below the current maximum occupancy accept items.
// Each solver batch therefore adds at most one item per container and keeps
// container sizes within one of each other.
package initial

import (
	"fmt"
	"time"

	"github.com/arloliu/tablemix/internal/batch"
	"github.com/arloliu/tablemix/internal/entity"
	"github.com/arloliu/tablemix/internal/logger"
	"github.com/arloliu/tablemix/internal/metrics"
	"github.com/arloliu/tablemix/internal/model"
	"github.com/arloliu/tablemix/types"
)

// Builder places every item exactly once.
type Builder struct {
	assigner *batch.Assigner
	logger   types.Logger
	metrics  types.BuilderMetrics
}

// New creates a builder.
//
// Parameters:
//   - assigner: Batch assigner used for every placement round
//   - log: Logger (nil disables logging)
//   - m: Builder metrics (nil disables metrics)
func New(assigner *batch.Assigner, log types.Logger, m types.BuilderMetrics) *Builder {
	if log == nil {
		log = logger.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}

	return &Builder{assigner: assigner, logger: log, metrics: m}
}

// PrimaryAttribute returns the attribute type with the most distinct values.
// Ties go to the earliest declared type.
func PrimaryAttribute(m *model.Model) *model.Attribute {
	var best *model.Attribute
	for _, a := range m.Attributes() {
		if best == nil || a.Distinct() > best.Distinct() {
			best = a
		}
	}

	return best
}

// Build assigns every unassigned item to a container.
//
// Calling Build with no items leaves all containers untouched.
//
// Parameters:
//   - items: Every item of the population
//   - containers: Every container
//
// Returns:
//   - error: ErrIncompleteAssignment if items cannot be placed, or a fatal
//     solver/entity error from the batch assigner
func (b *Builder) Build(items []*entity.Item, containers []*entity.Container) error {
	pending := entity.UnassignedItems(items)
	if len(pending) == 0 {
		return nil
	}
	if len(containers) == 0 {
		return fmt.Errorf("%w: %d items and no containers", types.ErrIncompleteAssignment, len(pending))
	}

	start := time.Now()
	m := containers[0].Model()
	primary := PrimaryAttribute(m)

	b.logger.Info("building initial arrangement",
		"items", len(pending),
		"containers", len(containers),
		"primaryAttribute", primary.Name(),
		"distinctValues", primary.Distinct(),
	)

	for _, code := range primary.ByFrequency() {
		for round := 0; ; round++ {
			batchItems := withValue(items, primary.Index(), code)
			if len(batchItems) == 0 {
				break
			}

			candidates := candidates(containers, m.MaxContainerSize())
			if len(candidates) == 0 {
				return fmt.Errorf("%w: every container is full with %d items left for %s=%s",
					types.ErrIncompleteAssignment, len(batchItems), primary.Name(), primary.Value(code))
			}

			b.metrics.RecordBuildBatch(len(batchItems), len(candidates))
			pairs, err := b.assigner.Assign(batchItems, candidates)
			if err != nil {
				return err
			}
			if len(pairs) == 0 {
				return fmt.Errorf("%w: no progress placing %s=%s", types.ErrIncompleteAssignment,
					primary.Name(), primary.Value(code))
			}

			b.logger.Debug("placed value batch",
				"attribute", primary.Name(),
				"value", primary.Value(code),
				"round", round,
				"placed", len(pairs),
				"remaining", len(batchItems)-len(pairs),
			)
		}
	}

	if left := entity.UnassignedItems(items); len(left) > 0 {
		return fmt.Errorf("%w: %d items unplaced", types.ErrIncompleteAssignment, len(left))
	}

	b.metrics.RecordBuildDuration(time.Since(start).Seconds())

	return nil
}

// withValue returns the unassigned items holding code for attr.
func withValue(items []*entity.Item, attr, code int) []*entity.Item {
	var out []*entity.Item
	for _, it := range items {
		if it.Container() == nil && it.Value(attr) == code {
			out = append(out, it)
		}
	}

	return out
}

// candidates returns every container when occupancy is level, otherwise the
// containers below the current maximum. Full containers are never candidates.
func candidates(containers []*entity.Container, capacity int) []*entity.Container {
	lo, hi := entity.Occupancy(containers)
	out := make([]*entity.Container, 0, len(containers))
	for _, c := range containers {
		if c.Size() >= capacity {
			continue
		}
		if lo == hi || c.Size() < hi {
			out = append(out, c)
		}
	}

	return out
}
