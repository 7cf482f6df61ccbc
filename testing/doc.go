// Package testing provides test helpers for code built on tablemix.
//
// Key utilities:
//   - StartEmbeddedNATS: In-process NATS server with JetStream, for the KV result sink
//   - CreateJetStreamKV: Memory-backed KV bucket on that server
//   - NewTestLogger: Logger writing through testing.T
//
// Example usage:
//
//	import (
//	    "testing"
//	    mixtest "github.com/arloliu/tablemix/testing"
//	)
//
//	func TestPublish(t *testing.T) {
//	    _, nc := mixtest.StartEmbeddedNATS(t)
//	    kv := mixtest.CreateJetStreamKV(t, nc, "results")
//	    // publish into kv
//	}
package testing
