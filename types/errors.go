package types

import "errors"

// Sentinel errors for the tablemix library.
//
// These errors provide type-safe error checking using errors.Is().
// Components wrap them with context using fmt.Errorf("%s: %w", msg, err).
//
// Error Naming Convention:
//   - Use descriptive names with Err prefix
//   - Group by component (Config, Model, Entity, Solver, Optimizer, Sink)

// Config errors - returned before any optimization work starts.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidOverride is returned when a sameness override tuple is malformed
	// (wrong arity or a non-numeric score).
	ErrInvalidOverride = errors.New("invalid sameness override")
)

// Model errors - attribute model construction.
var (
	// ErrUnknownAttribute is returned when an override or weight names an attribute type
	// that is not declared.
	ErrUnknownAttribute = errors.New("unknown attribute type")

	// ErrMissingAttribute is returned when an item has no value for a declared attribute type.
	ErrMissingAttribute = errors.New("missing attribute value")

	// ErrNoAttributes is returned when no attribute types are declared.
	ErrNoAttributes = errors.New("no attribute types declared")
)

// Entity errors - membership contract violations. These are fatal programmer errors.
var (
	// ErrAlreadyMember is returned when adding an item that is already in the container.
	ErrAlreadyMember = errors.New("item already member of container")

	// ErrAlreadyAssigned is returned when adding an item that belongs to another container.
	ErrAlreadyAssigned = errors.New("item already assigned to another container")

	// ErrNotMember is returned when removing an item that is not in the container.
	ErrNotMember = errors.New("item not member of container")

	// ErrCacheMismatch is returned when a container's count cache disagrees with its members.
	ErrCacheMismatch = errors.New("container count cache mismatch")
)

// Solver errors.
var (
	// ErrSolverInfeasible is returned when the transportation problem has no feasible flow
	// or a backend returns an assignment that violates supply/demand.
	ErrSolverInfeasible = errors.New("solver infeasible")

	// ErrInvalidCost is returned when a cost matrix is ragged or holds NaN/Inf.
	ErrInvalidCost = errors.New("invalid cost matrix")

	// ErrUnknownSolver is returned when a solver name is not recognized.
	ErrUnknownSolver = errors.New("unknown solver")
)

// Optimizer errors - public API errors returned by the Optimizer.
var (
	// ErrItemSourceRequired is returned when no item source is supplied.
	ErrItemSourceRequired = errors.New("item source is required")

	// ErrAlreadyRunning is returned when Run is called on an optimizer that is running or finished.
	ErrAlreadyRunning = errors.New("optimizer already running")

	// ErrIncompleteAssignment is returned when the builder leaves items unplaced.
	ErrIncompleteAssignment = errors.New("incomplete assignment")
)

// Source and sink errors.
var (
	// ErrMissingField is returned when an input row lacks a required field.
	ErrMissingField = errors.New("missing required field")

	// ErrPublishFailed is returned when a result sink fails to publish.
	ErrPublishFailed = errors.New("failed to publish result")
)
