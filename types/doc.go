// Package types provides core type definitions and interfaces for the tablemix library.
//
// This package contains shared types that are used across multiple packages in the
// tablemix library. By keeping these types in a separate package, we avoid import cycles
// between the main tablemix package and its internal implementations.
//
// Key types:
//   - ItemRecord: One input row (id, name, attribute values)
//   - RunState: Refinement loop lifecycle state
//   - BatchSolver: Transportation problem backend
//   - Result: Final arrangement handed to result sinks
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
