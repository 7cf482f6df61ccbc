package types

// ItemRecord is one input row: a unit to be placed into a container.
//
// Attributes must hold a value for every declared attribute type; the optimizer
// rejects records with missing values before any optimization work starts.
type ItemRecord struct {
	// ID is the external identifier. Duplicates are reported as warnings.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Attributes maps attribute type to value, e.g. {"Office": "NY"}.
	Attributes map[string]string `json:"attributes"`
}
