package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arloliu/tablemix/types"
)

// CSVConfig names the columns read from an item file.
type CSVConfig struct {
	// Path is the file to read.
	Path string

	// IDField is the id column header (default "ID").
	IDField string

	// NameField is the display name column header (default "Name").
	NameField string

	// Attributes are the attribute column headers. Values are trimmed.
	Attributes []string
}

// CSV reads item records from a comma separated file with a header row.
type CSV struct {
	cfg CSVConfig
}

var _ types.ItemSource = (*CSV)(nil)

// NewCSV creates a CSV item source.
//
// Parameters:
//   - cfg: File path and column names
//
// Returns:
//   - *CSV: Source reading cfg.Path on every ListItems call
func NewCSV(cfg CSVConfig) *CSV {
	if cfg.IDField == "" {
		cfg.IDField = "ID"
	}
	if cfg.NameField == "" {
		cfg.NameField = "Name"
	}

	return &CSV{cfg: cfg}
}

// ListItems opens the file and decodes every row.
//
// Returns:
//   - []types.ItemRecord: Records in file order
//   - error: Open/parse failure, ErrMissingField when the id or name column is
//     missing or an id is empty, ErrMissingAttribute when an attribute column is
//     missing or a value is empty
func (s *CSV) ListItems(_ context.Context) ([]types.ItemRecord, error) {
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open item file: %w", err)
	}
	defer f.Close()

	return ReadCSV(f, s.cfg)
}

// ReadCSV decodes item records from r using the column names in cfg.
// cfg.Path is ignored.
func ReadCSV(r io.Reader, cfg CSVConfig) ([]types.ItemRecord, error) {
	if cfg.IDField == "" {
		cfg.IDField = "ID"
	}
	if cfg.NameField == "" {
		cfg.NameField = "Name"
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: item file has no header row", types.ErrMissingField)
		}

		return nil, fmt.Errorf("read item header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	var missing []error
	idCol, ok := columns[cfg.IDField]
	if !ok {
		missing = append(missing, fmt.Errorf("%w: id column %q", types.ErrMissingField, cfg.IDField))
	}
	nameCol, ok := columns[cfg.NameField]
	if !ok {
		missing = append(missing, fmt.Errorf("%w: name column %q", types.ErrMissingField, cfg.NameField))
	}
	attrCols := make([]int, len(cfg.Attributes))
	for i, a := range cfg.Attributes {
		col, ok := columns[a]
		if !ok {
			missing = append(missing, fmt.Errorf("%w: attribute column %q", types.ErrMissingAttribute, a))
			continue
		}
		attrCols[i] = col
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	var records []types.ItemRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read item row %d: %w", line, err)
		}

		id := strings.TrimSpace(row[idCol])
		if id == "" {
			return nil, fmt.Errorf("%w: empty %s on line %d", types.ErrMissingField, cfg.IDField, line)
		}
		rec := types.ItemRecord{
			ID:         id,
			Name:       strings.TrimSpace(row[nameCol]),
			Attributes: make(map[string]string, len(cfg.Attributes)),
		}
		for i, a := range cfg.Attributes {
			v := strings.TrimSpace(row[attrCols[i]])
			if v == "" {
				return nil, fmt.Errorf("%w: empty %s for item %s on line %d", types.ErrMissingAttribute, a, id, line)
			}
			rec.Attributes[a] = v
		}
		records = append(records, rec)
	}

	return records, nil
}
