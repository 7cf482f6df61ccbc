package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/arloliu/tablemix/types"
)

// Default file names written by the CSV sink.
const (
	DefaultAssignmentsFile = "assignments.csv"
	DefaultSummaryFile     = "summary.csv"
)

// CSV writes the assignment and summary tables into a directory.
type CSV struct {
	dir         string
	assignments string
	summary     string
}

var _ types.ResultSink = (*CSV)(nil)

// CSVOption configures a CSV sink.
type CSVOption func(*CSV)

// WithAssignmentsFile overrides the assignments file name.
func WithAssignmentsFile(name string) CSVOption {
	return func(c *CSV) {
		if name != "" {
			c.assignments = name
		}
	}
}

// WithSummaryFile overrides the summary file name.
func WithSummaryFile(name string) CSVOption {
	return func(c *CSV) {
		if name != "" {
			c.summary = name
		}
	}
}

// NewCSV creates a CSV sink writing into dir, which is created on publish.
//
// Example:
//
//	out := sink.NewCSV("out", sink.WithSummaryFile("tables.csv"))
func NewCSV(dir string, opts ...CSVOption) *CSV {
	c := &CSV{dir: dir, assignments: DefaultAssignmentsFile, summary: DefaultSummaryFile}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns "csv".
func (c *CSV) Name() string { return "csv" }

// Publish writes both files. Existing files are replaced.
func (c *CSV) Publish(ctx context.Context, result *types.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := writeFile(filepath.Join(c.dir, c.assignments), func(w io.Writer) error {
		return WriteAssignments(w, result)
	}); err != nil {
		return err
	}

	return writeFile(filepath.Join(c.dir, c.summary), func(w io.Writer) error {
		return WriteSummary(w, result)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	return nil
}

// WriteAssignments writes one row per item: Table, ID, NAME, then the attribute
// values in declaration order. Table numbers are 1-based.
func WriteAssignments(w io.Writer, result *types.Result) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Table", "ID", "NAME"}, result.Attributes...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, p := range result.Placements {
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(p.ContainerID+1), p.ID, p.Name)
		for _, a := range result.Attributes {
			row = append(row, p.Attributes[a])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()

	return cw.Error()
}

// WriteSummary writes one row per container: Table, Score, Penalty, Table_Size,
// then one "Type:value" count column for every value seen, grouped by type.
func WriteSummary(w io.Writer, result *types.Result) error {
	type column struct{ attr, value string }
	var columns []column
	for _, a := range result.Attributes {
		var values []string
		for _, c := range result.Containers {
			for v := range c.Counts[a] {
				if !slices.Contains(values, v) {
					values = append(values, v)
				}
			}
		}
		slices.Sort(values)
		for _, v := range values {
			columns = append(columns, column{attr: a, value: v})
		}
	}

	cw := csv.NewWriter(w)
	header := []string{"Table", "Score", "Penalty", "Table_Size"}
	for _, col := range columns {
		header = append(header, col.attr+":"+col.value)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, c := range result.Containers {
		row := make([]string, 0, len(header))
		row = append(row,
			strconv.Itoa(c.ContainerID+1),
			strconv.FormatFloat(c.Score, 'f', -1, 64),
			strconv.Itoa(c.Violation),
			strconv.Itoa(c.Size),
		)
		for _, col := range columns {
			row = append(row, strconv.Itoa(c.Counts[col.attr][col.value]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()

	return cw.Error()
}
