// Package entity holds the mutable items and containers of an arrangement.
//
// The assignment relation is kept bidirectionally consistent: an item's container
// reference and that container's member set always agree, and every container's
// per-attribute value counts always equal a direct recount of its members.
// Add and Remove validate before mutating, so a failed call leaves both sides
// untouched.
package entity

import (
	"fmt"

	"github.com/arloliu/tablemix/internal/model"
	"github.com/arloliu/tablemix/types"
)

// Unassigned marks a snapshot slot with no recorded container.
const Unassigned = -1

// Item is one unit to be placed.
type Item struct {
	index  int
	id     string
	name   string
	record types.ItemRecord
	values []int

	container   *Container
	bestScore   int
	bestPenalty int
}

// NewItems creates one item per record, in record order.
//
// Parameters:
//   - m: Attribute model built from the same records
//   - records: Item records
//
// Returns:
//   - []*Item: Items with indexes 0..len(records)-1
//   - error: ErrMissingAttribute if a record cannot be encoded
func NewItems(m *model.Model, records []types.ItemRecord) ([]*Item, error) {
	items := make([]*Item, len(records))
	for i, rec := range records {
		values, err := m.Encode(rec)
		if err != nil {
			return nil, err
		}
		items[i] = &Item{
			index:       i,
			id:          rec.ID,
			name:        rec.Name,
			record:      rec,
			values:      values,
			bestScore:   Unassigned,
			bestPenalty: Unassigned,
		}
	}

	return items, nil
}

// Index returns the stable position of the item in the input.
func (it *Item) Index() int { return it.index }

// ID returns the external identifier.
func (it *Item) ID() string { return it.id }

// Name returns the display name.
func (it *Item) Name() string { return it.name }

// Record returns the input record the item was created from.
func (it *Item) Record() types.ItemRecord { return it.record }

// Value returns the value code for an attribute index.
func (it *Item) Value(attr int) int { return it.values[attr] }

// Values returns the value codes in attribute order. The slice must not be modified.
func (it *Item) Values() []int { return it.values }

// Container returns the current container, or nil when unassigned.
func (it *Item) Container() *Container { return it.container }

// ContainerID returns the current container id, or Unassigned.
func (it *Item) ContainerID() int {
	if it.container == nil {
		return Unassigned
	}

	return it.container.id
}

// SaveBestScore records the current container as the best-by-score snapshot.
func (it *Item) SaveBestScore() { it.bestScore = it.ContainerID() }

// SaveBestPenalty records the current container as the best-by-penalty snapshot.
func (it *Item) SaveBestPenalty() { it.bestPenalty = it.ContainerID() }

// BestScore returns the best-by-score snapshot container id, or Unassigned.
func (it *Item) BestScore() int { return it.bestScore }

// BestPenalty returns the best-by-penalty snapshot container id, or Unassigned.
func (it *Item) BestPenalty() int { return it.bestPenalty }

// Container is a fixed-identity bucket of items with a per-value count cache.
type Container struct {
	id    int
	model *model.Model

	members []*Item
	pos     map[*Item]int // item -> index in members

	// counts[attr][code] is the number of members holding code for attr.
	counts [][]int
}

// NewContainer creates an empty container.
func NewContainer(id int, m *model.Model) *Container {
	counts := make([][]int, m.NumAttributes())
	for i, a := range m.Attributes() {
		counts[i] = make([]int, a.Distinct())
	}

	return &Container{
		id:     id,
		model:  m,
		pos:    make(map[*Item]int, m.MaxContainerSize()),
		counts: counts,
	}
}

// NewContainers creates the model's container count of empty containers with ids 0..n-1.
func NewContainers(m *model.Model) []*Container {
	containers := make([]*Container, m.NumContainers())
	for i := range containers {
		containers[i] = NewContainer(i, m)
	}

	return containers
}

// ID returns the container id.
func (c *Container) ID() int { return c.id }

// Model returns the attribute model shared by the container.
func (c *Container) Model() *model.Model { return c.model }

// Size returns the number of members.
func (c *Container) Size() int { return len(c.members) }

// Members returns the current members. The slice is owned by the container, must
// not be modified and is invalidated by the next Add or Remove.
func (c *Container) Members() []*Item { return c.members }

// Contains reports whether the item is a member.
func (c *Container) Contains(it *Item) bool {
	_, ok := c.pos[it]

	return ok
}

// Count returns the number of members holding code for attr.
func (c *Container) Count(attr, code int) int { return c.counts[attr][code] }

// Counts returns the count cache of one attribute, indexed by value code.
// The slice must not be modified.
func (c *Container) Counts(attr int) []int { return c.counts[attr] }

// Add puts an unassigned item into the container.
//
// Returns:
//   - error: ErrAlreadyMember or ErrAlreadyAssigned; state is unchanged on error
func (c *Container) Add(it *Item) error {
	if it.container == c {
		return fmt.Errorf("%w: item %d in container %d", types.ErrAlreadyMember, it.index, c.id)
	}
	if it.container != nil {
		return fmt.Errorf("%w: item %d in container %d, adding to %d",
			types.ErrAlreadyAssigned, it.index, it.container.id, c.id)
	}

	c.pos[it] = len(c.members)
	c.members = append(c.members, it)
	for attr, code := range it.values {
		c.counts[attr][code]++
	}
	it.container = c

	return nil
}

// Remove takes a member out of the container and clears its container reference.
//
// Returns:
//   - error: ErrNotMember; state is unchanged on error
func (c *Container) Remove(it *Item) error {
	i, ok := c.pos[it]
	if !ok || it.container != c {
		return fmt.Errorf("%w: item %d, container %d", types.ErrNotMember, it.index, c.id)
	}

	last := len(c.members) - 1
	if i != last {
		moved := c.members[last]
		c.members[i] = moved
		c.pos[moved] = i
	}
	c.members[last] = nil
	c.members = c.members[:last]
	delete(c.pos, it)

	for attr, code := range it.values {
		c.counts[attr][code]--
	}
	it.container = nil

	return nil
}

// Verify recounts the members and compares against the cache.
//
// Returns:
//   - error: ErrCacheMismatch describing the first disagreement, nil if consistent
func (c *Container) Verify() error {
	if len(c.pos) != len(c.members) {
		return fmt.Errorf("%w: container %d index has %d entries for %d members",
			types.ErrCacheMismatch, c.id, len(c.pos), len(c.members))
	}
	for attr, counts := range c.counts {
		fresh := make([]int, len(counts))
		for _, it := range c.members {
			fresh[it.values[attr]]++
		}
		total := 0
		for code, n := range counts {
			if fresh[code] != n {
				return fmt.Errorf("%w: container %d attr %d code %d cached %d counted %d",
					types.ErrCacheMismatch, c.id, attr, code, n, fresh[code])
			}
			total += n
		}
		if total != len(c.members) {
			return fmt.Errorf("%w: container %d attr %d totals %d for %d members",
				types.ErrCacheMismatch, c.id, attr, total, len(c.members))
		}
	}
	for i, it := range c.members {
		if it.container != c || c.pos[it] != i {
			return fmt.Errorf("%w: container %d member %d has stale reference",
				types.ErrCacheMismatch, c.id, it.index)
		}
	}

	return nil
}

// Occupancy returns the minimum and maximum container sizes.
func Occupancy(containers []*Container) (lo, hi int) {
	if len(containers) == 0 {
		return 0, 0
	}
	lo, hi = containers[0].Size(), containers[0].Size()
	for _, c := range containers[1:] {
		lo = min(lo, c.Size())
		hi = max(hi, c.Size())
	}

	return lo, hi
}

// UnassignedItems returns the items without a container, in input order.
func UnassignedItems(items []*Item) []*Item {
	var out []*Item
	for _, it := range items {
		if it.container == nil {
			out = append(out, it)
		}
	}

	return out
}
