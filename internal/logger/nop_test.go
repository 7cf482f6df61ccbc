package logger

import (
	"testing"

	"github.com/arloliu/tablemix/types"
	"github.com/stretchr/testify/require"
)

func TestNopLogger(t *testing.T) {
	log := NewNop()
	var _ types.Logger = log

	require.NotPanics(t, func() {
		log.Debug("batch committed", "items", 4)
		log.Info("iteration", "score", 12.5)
		log.Warn("duplicate id", "id", "E-1")
		log.Error("score got worse", "before", 1, "after", 2)
		log.Fatal("never exits")
		log.Info("", nil)
		log.Error("odd", "single")
	})
}

func BenchmarkNopLogger(b *testing.B) {
	log := NewNop()

	for b.Loop() {
		log.Debug("benchmark message", "iteration", 1, "score", 42.0)
	}
}
