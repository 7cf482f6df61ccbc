package source

import (
	"context"
	"maps"
	"sync"

	"github.com/arloliu/tablemix/types"
)

// Static implements an item source with a fixed list of records.
type Static struct {
	mu      sync.RWMutex
	records []types.ItemRecord
}

var _ types.ItemSource = (*Static)(nil)

// NewStatic creates a new static item source.
//
// Parameters:
//   - records: Fixed list of records; the slice and attribute maps are copied
//
// Returns:
//   - *Static: Initialized static source
//
// Example:
//
//	src := source.NewStatic([]types.ItemRecord{
//	    {ID: "E001", Name: "Ada", Attributes: map[string]string{"Office": "NY", "Role": "P"}},
//	    {ID: "E002", Name: "Bob", Attributes: map[string]string{"Office": "LA", "Role": "A"}},
//	})
//	opt, err := tablemix.NewOptimizer(&cfg, src)
func NewStatic(records []types.ItemRecord) *Static {
	return &Static{records: cloneRecords(records)}
}

// ListItems returns a copy of the records.
//
// Returns:
//   - []types.ItemRecord: The fixed list of records
//   - error: Always nil (never fails)
func (s *Static) ListItems(_ context.Context) ([]types.ItemRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneRecords(s.records), nil
}

// Update replaces the record list.
func (s *Static) Update(records []types.ItemRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = cloneRecords(records)
}

func cloneRecords(records []types.ItemRecord) []types.ItemRecord {
	out := make([]types.ItemRecord, len(records))
	for i, r := range records {
		out[i] = types.ItemRecord{ID: r.ID, Name: r.Name, Attributes: maps.Clone(r.Attributes)}
	}

	return out
}

// DuplicateIDs returns every id that occurs more than once, in first-repeat order.
//
// Duplicate ids do not stop a run; the optimizer logs them as warnings.
func DuplicateIDs(records []types.ItemRecord) []string {
	seen := make(map[string]int, len(records))
	var dups []string
	for _, r := range records {
		seen[r.ID]++
		if seen[r.ID] == 2 {
			dups = append(dups, r.ID)
		}
	}

	return dups
}
