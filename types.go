package tablemix

import "github.com/arloliu/tablemix/types"

// Re-export types from the types package.
//
// Internal packages depend on types rather than on the root package, which keeps
// the import graph acyclic while users can still write tablemix.Result,
// tablemix.Logger and so on.
type (
	ItemRecord       = types.ItemRecord
	Result           = types.Result
	Placement        = types.Placement
	ContainerSummary = types.ContainerSummary
	RunStats         = types.RunStats
	RunState         = types.RunState
)

// Re-export interfaces from the types package for convenience.
type (
	ItemSource       = types.ItemSource
	ResultSink       = types.ResultSink
	BatchSolver      = types.BatchSolver
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export RunState constants from the types package.
const (
	StateRunning   = types.StateRunning
	StateConverged = types.StateConverged
	StateTimedOut  = types.StateTimedOut
	StateCancelled = types.StateCancelled
	StateExhausted = types.StateExhausted
	StateFailed    = types.StateFailed
)
