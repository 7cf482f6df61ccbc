package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTestLogger_Entries(t *testing.T) {
	log := NewTest(t)
	log.Info("start", "items", 10)
	log.Warn("duplicate id", "id", "A")
	log.Warn("duplicate id", "id", "B")
	log.Error("odd fields", "dangling")

	require.Len(t, log.Entries(""), 4)
	warns := log.Entries("WARN")
	require.Len(t, warns, 2)
	require.Equal(t, "duplicate id", warns[0].Message)
	require.Equal(t, []any{"id", "B"}, warns[1].Fields)
	require.Empty(t, log.Entries("DEBUG"))
}

func TestFormatKeyValues(t *testing.T) {
	require.Empty(t, formatKeyValues(nil))
	require.Equal(t, "a=1 b=x ", formatKeyValues([]any{"a", 1, "b", "x"}))
	require.Equal(t, "a=1 b=<missing> ", formatKeyValues([]any{"a", 1, "b"}))
}
