package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/arloliu/tablemix/types"
)

// Params holds the inputs of the attribute model that come from configuration.
type Params struct {
	// MaxContainerSize is the capacity of every container. Must be >= 1.
	MaxContainerSize int

	// DefaultWeight is the quadratic weight used for types without an entry in Weights.
	DefaultWeight float64

	// Weights overrides the quadratic weight per attribute type.
	Weights map[string]float64

	// DefaultSameness is added once per attribute type for every pair sharing a value.
	DefaultSameness float64

	// Overrides lists the sameness overrides in configuration order.
	Overrides []Override

	// Slack is added to the per-container average before rounding the upper bound up.
	Slack float64
}

// Override is one configured sameness override.
type Override struct {
	TypeA  string
	ValueA string
	TypeB  string
	ValueB string
	Score  float64
}

// Attribute describes one attribute type.
type Attribute struct {
	name   string
	index  int
	weight float64

	values []string       // code -> value
	codes  map[string]int // value -> code
	counts []int          // code -> population count
	bounds []int          // code -> per-container upper bound
}

// Name returns the attribute type name.
func (a *Attribute) Name() string { return a.name }

// Index returns the attribute position in declaration order.
func (a *Attribute) Index() int { return a.index }

// Weight returns the quadratic penalty weight.
func (a *Attribute) Weight() float64 { return a.weight }

// Distinct returns the number of distinct values found in the population.
func (a *Attribute) Distinct() int { return len(a.values) }

// Value returns the value string for a code.
func (a *Attribute) Value(code int) string { return a.values[code] }

// Code returns the code of a value and whether the value occurs in the population.
func (a *Attribute) Code(value string) (int, bool) {
	code, ok := a.codes[value]

	return code, ok
}

// Count returns the population count of a value code.
func (a *Attribute) Count(code int) int { return a.counts[code] }

// UpperBound returns the per-container upper bound of a value code.
func (a *Attribute) UpperBound(code int) int { return a.bounds[code] }

// ByFrequency returns value codes ordered by ascending population count.
// Ties are ordered by value string so the order is deterministic.
func (a *Attribute) ByFrequency() []int {
	order := make([]int, len(a.values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		ci, cj := a.counts[order[i]], a.counts[order[j]]
		if ci != cj {
			return ci < cj
		}

		return a.values[order[i]] < a.values[order[j]]
	})

	return order
}

// overrideEntry is one side of a symmetric override: it matches a partner whose
// value for attribute attr equals code.
type overrideEntry struct {
	attr  int
	code  int
	score float64
}

type overrideKey struct {
	typeA, valueA, typeB, valueB int
}

// Model is the immutable attribute model. It is safe for concurrent reads.
type Model struct {
	attrs           []*Attribute
	byName          map[string]int
	numItems        int
	numContainers   int
	maxSize         int
	defaultSameness float64
	overrideCount   int

	// overrides[attr][code] lists the entries that apply to an item holding code for attr.
	overrides [][][]overrideEntry
}

// New builds the attribute model from the declared attribute types, the configured
// parameters and the full item population.
//
// Parameters:
//   - attributes: Declared attribute type names, in order
//   - params: Weights, sameness scores, capacity and slack
//   - records: Every item record; each must hold a value for every declared type
//
// Returns:
//   - *Model: Immutable model
//   - error: ErrNoAttributes, ErrInvalidConfig, ErrUnknownAttribute or ErrMissingAttribute
func New(attributes []string, params Params, records []types.ItemRecord) (*Model, error) {
	if len(attributes) == 0 {
		return nil, types.ErrNoAttributes
	}
	if params.MaxContainerSize < 1 {
		return nil, fmt.Errorf("%w: max container size must be >= 1, got %d", types.ErrInvalidConfig, params.MaxContainerSize)
	}

	m := &Model{
		byName:          make(map[string]int, len(attributes)),
		numItems:        len(records),
		maxSize:         params.MaxContainerSize,
		defaultSameness: params.DefaultSameness,
	}
	m.numContainers = (len(records) + params.MaxContainerSize - 1) / params.MaxContainerSize

	for i, name := range attributes {
		if _, dup := m.byName[name]; dup {
			return nil, fmt.Errorf("%w: attribute %q declared twice", types.ErrInvalidConfig, name)
		}
		weight := params.DefaultWeight
		if w, ok := params.Weights[name]; ok {
			weight = w
		}
		if weight < 0 || math.IsNaN(weight) {
			return nil, fmt.Errorf("%w: weight for %q must be >= 0", types.ErrInvalidConfig, name)
		}
		m.byName[name] = i
		m.attrs = append(m.attrs, &Attribute{name: name, index: i, weight: weight, codes: make(map[string]int)})
	}

	for name := range params.Weights {
		if _, ok := m.byName[name]; !ok {
			return nil, fmt.Errorf("%w: weight references %q", types.ErrUnknownAttribute, name)
		}
	}

	for row, rec := range records {
		for _, a := range m.attrs {
			v, ok := rec.Attributes[a.name]
			if !ok {
				return nil, fmt.Errorf("%w: item %q (row %d) has no %q", types.ErrMissingAttribute, rec.ID, row, a.name)
			}
			code, seen := a.codes[v]
			if !seen {
				code = len(a.values)
				a.codes[v] = code
				a.values = append(a.values, v)
				a.counts = append(a.counts, 0)
			}
			a.counts[code]++
		}
	}

	for _, a := range m.attrs {
		a.bounds = make([]int, len(a.values))
		for code, count := range a.counts {
			a.bounds[code] = upperBound(count, m.numContainers, params.Slack)
		}
	}

	if err := m.buildOverrides(params.Overrides); err != nil {
		return nil, err
	}

	return m, nil
}

// upperBound returns ceil(count / containers + slack).
func upperBound(count, containers int, slack float64) int {
	if containers == 0 {
		return count
	}

	return int(math.Ceil(float64(count)/float64(containers) + slack))
}

func (m *Model) buildOverrides(overrides []Override) error {
	table := make(map[overrideKey]float64)
	for i, ov := range overrides {
		ta, ok := m.byName[ov.TypeA]
		if !ok {
			return fmt.Errorf("%w: override %d references %q", types.ErrUnknownAttribute, i, ov.TypeA)
		}
		tb, ok := m.byName[ov.TypeB]
		if !ok {
			return fmt.Errorf("%w: override %d references %q", types.ErrUnknownAttribute, i, ov.TypeB)
		}
		if math.IsNaN(ov.Score) || math.IsInf(ov.Score, 0) {
			return fmt.Errorf("%w: override %d has non-finite score", types.ErrInvalidOverride, i)
		}
		m.overrideCount++

		// Values absent from the population can never match an item.
		va, okA := m.attrs[ta].codes[ov.ValueA]
		vb, okB := m.attrs[tb].codes[ov.ValueB]
		if !okA || !okB {
			continue
		}
		table[overrideKey{ta, va, tb, vb}] = ov.Score
		table[overrideKey{tb, vb, ta, va}] = ov.Score
	}

	m.overrides = make([][][]overrideEntry, len(m.attrs))
	for i, a := range m.attrs {
		m.overrides[i] = make([][]overrideEntry, len(a.values))
	}
	keys := make([]overrideKey, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	// Stable entry order keeps float summation deterministic.
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.typeA != b.typeA {
			return a.typeA < b.typeA
		}
		if a.valueA != b.valueA {
			return a.valueA < b.valueA
		}
		if a.typeB != b.typeB {
			return a.typeB < b.typeB
		}

		return a.valueB < b.valueB
	})
	for _, k := range keys {
		m.overrides[k.typeA][k.valueA] = append(m.overrides[k.typeA][k.valueA],
			overrideEntry{attr: k.typeB, code: k.valueB, score: table[k]})
	}

	return nil
}

// NumAttributes returns the number of declared attribute types.
func (m *Model) NumAttributes() int { return len(m.attrs) }

// Attribute returns the attribute at a declaration index.
func (m *Model) Attribute(i int) *Attribute { return m.attrs[i] }

// Attributes returns all attributes in declaration order. The slice must not be modified.
func (m *Model) Attributes() []*Attribute { return m.attrs }

// Lookup returns the attribute with the given name.
func (m *Model) Lookup(name string) (*Attribute, bool) {
	i, ok := m.byName[name]
	if !ok {
		return nil, false
	}

	return m.attrs[i], true
}

// Names returns the attribute type names in declaration order.
func (m *Model) Names() []string {
	names := make([]string, len(m.attrs))
	for i, a := range m.attrs {
		names[i] = a.name
	}

	return names
}

// NumItems returns the population size the model was built from.
func (m *Model) NumItems() int { return m.numItems }

// NumContainers returns ceil(items / max container size).
func (m *Model) NumContainers() int { return m.numContainers }

// MaxContainerSize returns the configured container capacity.
func (m *Model) MaxContainerSize() int { return m.maxSize }

// DefaultSameness returns the score added per shared attribute value.
func (m *Model) DefaultSameness() float64 { return m.defaultSameness }

// HasOverrides reports whether any sameness override was configured.
func (m *Model) HasOverrides() bool { return m.overrideCount > 0 }

// PureQuadratic reports whether the pairwise term is identically zero.
func (m *Model) PureQuadratic() bool {
	return m.defaultSameness == 0 && !m.HasOverrides()
}

// Encode converts a record's attribute values into value codes.
//
// Parameters:
//   - rec: Item record from the population the model was built from
//
// Returns:
//   - []int: Value code per attribute, in declaration order
//   - error: ErrMissingAttribute when a value is absent or unknown to the model
func (m *Model) Encode(rec types.ItemRecord) ([]int, error) {
	codes := make([]int, len(m.attrs))
	for i, a := range m.attrs {
		v, ok := rec.Attributes[a.name]
		if !ok {
			return nil, fmt.Errorf("%w: item %q has no %q", types.ErrMissingAttribute, rec.ID, a.name)
		}
		code, ok := a.codes[v]
		if !ok {
			return nil, fmt.Errorf("%w: item %q has value %q for %q outside the population", types.ErrMissingAttribute, rec.ID, v, a.name)
		}
		codes[i] = code
	}

	return codes, nil
}

// Pair returns the pairwise sameness contribution between two items given their
// value codes.
//
// For every attribute type with equal values the default sameness score is added
// once; every override matching (T, a[T], T2, b[T2]) is added as well. The table
// is symmetric, so Pair(a, b) == Pair(b, a).
func (m *Model) Pair(a, b []int) float64 {
	var s float64
	if m.defaultSameness != 0 {
		for t := range a {
			if a[t] == b[t] {
				s += m.defaultSameness
			}
		}
	}
	if m.overrideCount == 0 {
		return s
	}
	for t, code := range a {
		for _, e := range m.overrides[t][code] {
			if b[e.attr] == e.code {
				s += e.score
			}
		}
	}

	return s
}
