package types

import "context"

// ItemSource supplies the population of items to arrange.
//
// Implementations:
//   - source.Static: fixed slice, for tests and embedding
//   - source.CSV: tabular file with an id column, a name column and attribute columns
type ItemSource interface {
	// ListItems returns every item record.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//
	// Returns:
	//   - []ItemRecord: All records in input order
	//   - error: Read or validation error (nil on success)
	ListItems(ctx context.Context) ([]ItemRecord, error)
}
