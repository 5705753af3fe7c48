package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
)

var ErrNoHeader = errors.New("csv has no header row")

const utf8BOM = "\ufeff"

// Read parses a CSV document whose first record is the header. Blank lines
// are skipped, short records leave the trailing cells absent and extra cells
// are dropped. Duplicate header names get a ".N" suffix.
func Read(r io.Reader) (*domain.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := uniqueColumns(header)

	ds := domain.NewDataset(columns)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		row := make(domain.Row, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func ReadFile(path string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Write emits the header and every row in column order. Absent cells are
// written as empty fields.
func Write(w io.Writer, ds *domain.Dataset) error {
	cw := csv.NewWriter(w)
	var columns []string
	if ds != nil {
		columns = ds.Columns
	}
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if ds != nil {
		record := make([]string, len(columns))
		for _, row := range ds.Rows {
			for i, col := range columns {
				record[i] = row[col]
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates parent directories and writes ds to path.
func WriteFile(path string, ds *domain.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, ds); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

func uniqueColumns(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n)
		} else {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}
