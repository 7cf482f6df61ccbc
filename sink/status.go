package sink

import (
	"context"
	"fmt"
	"os"

	"github.com/arloliu/tablemix/types"
)

// Status markers written to the control file.
const (
	StatusRunning  = "RUNNING"
	StatusFinished = "FINISHED"
)

// Status maintains a control file that external tooling polls: Start truncates
// it to RUNNING, Publish appends FINISHED once the result has been delivered.
type Status struct {
	path string
}

var _ types.ResultSink = (*Status)(nil)

// NewStatus creates a Status sink for path.
func NewStatus(path string) *Status {
	return &Status{path: path}
}

// Name returns "status".
func (s *Status) Name() string { return "status" }

// Start writes the RUNNING marker, replacing any previous content.
func (s *Status) Start() error {
	if err := os.WriteFile(s.path, []byte(StatusRunning+"\n"), 0o644); err != nil { //nolint:gosec // status file is meant to be world readable
		return fmt.Errorf("write status file: %w", err)
	}

	return nil
}

// Publish appends the FINISHED marker.
func (s *Status) Publish(_ context.Context, _ *types.Result) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // see Start
	if err != nil {
		return fmt.Errorf("open status file: %w", err)
	}
	if _, err := f.WriteString(StatusFinished + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("write status file: %w", err)
	}

	return f.Close()
}
