// Package sink provides built-in result sinks.
//
// A result sink receives the final arrangement of a run. The package includes:
//
//   - CSV: assignments.csv (one row per item) and summary.csv (one row per container)
//   - KV: one JSON entry per container plus a run summary in a NATS JetStream KV bucket
//   - Log: compressed container listing through a Logger
//   - Status: RUNNING/FINISHED control file polled by external tooling
//   - Multi: fan-out to several sinks with per-sink metrics
//
// Custom sinks can be implemented by satisfying the types.ResultSink interface.
package sink
