package sink

import (
	"context"
	"strconv"
	"strings"

	"github.com/arloliu/tablemix/types"
)

// Log writes a compressed listing of the arrangement through a Logger: one
// Info line per container holding every member as "Type:value;Type:value",
// members separated by "; ".
type Log struct {
	logger types.Logger
}

var _ types.ResultSink = (*Log)(nil)

// NewLog creates a Log sink.
func NewLog(log types.Logger) *Log {
	return &Log{logger: log}
}

// Name returns "log".
func (l *Log) Name() string { return "log" }

// Publish logs the header, one line per container and the totals.
func (l *Log) Publish(_ context.Context, result *types.Result) error {
	lines := Compressed(result)
	l.logger.Info("Table\tAttendee")
	for _, line := range lines {
		l.logger.Info(line)
	}
	l.logger.Info("final arrangement",
		"run_id", result.RunID,
		"state", result.State,
		"score", result.TotalScore,
		"violation", result.TotalViolation,
		"iterations", result.Stats.Iterations,
	)

	return nil
}

// Compressed returns one "<table>\t<members>" line per container, in container order.
func Compressed(result *types.Result) []string {
	byContainer := make(map[int][]string, len(result.Containers))
	for _, p := range result.Placements {
		byContainer[p.ContainerID] = append(byContainer[p.ContainerID], describe(result.Attributes, p))
	}

	lines := make([]string, 0, len(result.Containers))
	for _, c := range result.Containers {
		lines = append(lines, strconv.Itoa(c.ContainerID+1)+"\t"+strings.Join(byContainer[c.ContainerID], "; "))
	}

	return lines
}

func describe(attributes []string, p types.Placement) string {
	parts := make([]string, 0, len(attributes))
	for _, a := range attributes {
		parts = append(parts, a+":"+p.Attributes[a])
	}

	return strings.Join(parts, ";")
}
