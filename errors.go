package tablemix

import "github.com/arloliu/tablemix/types"

// Sentinel errors returned by the Optimizer and its components.
//
// They are the same values as in the types package, so errors.Is works with
// either name.
var (
	// Configuration errors
	ErrInvalidConfig    = types.ErrInvalidConfig
	ErrInvalidOverride  = types.ErrInvalidOverride
	ErrUnknownAttribute = types.ErrUnknownAttribute
	ErrMissingAttribute = types.ErrMissingAttribute
	ErrNoAttributes     = types.ErrNoAttributes

	// Entity contract violations
	ErrAlreadyMember   = types.ErrAlreadyMember
	ErrAlreadyAssigned = types.ErrAlreadyAssigned
	ErrNotMember       = types.ErrNotMember

	// Solver errors
	ErrSolverInfeasible = types.ErrSolverInfeasible
	ErrUnknownSolver    = types.ErrUnknownSolver

	// Optimizer errors
	ErrItemSourceRequired   = types.ErrItemSourceRequired
	ErrAlreadyRunning       = types.ErrAlreadyRunning
	ErrIncompleteAssignment = types.ErrIncompleteAssignment

	// Input/output errors
	ErrMissingField  = types.ErrMissingField
	ErrPublishFailed = types.ErrPublishFailed
)
