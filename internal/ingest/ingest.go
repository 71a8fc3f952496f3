// Package ingest turns uploaded spreadsheet and CSV files into raw rows for
// the normalizer. It does not interpret cell values.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
)

// ErrUnsupportedFormat is returned for file extensions without a reader.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ReadRows reads every data row of the file, choosing a reader from the
// filename extension. Header cells become row keys; empty cells and blank
// rows are dropped.
func ReadRows(filename string, r io.Reader) ([]domain.RawRow, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx", ".xls":
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Supported reports whether ReadRows accepts the filename.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx", ".xls":
		return true
	}
	return false
}

// buildRow zips a header with one record, skipping empty cells. It returns
// nil when the record has no values at all.
func buildRow(header, record []string) domain.RawRow {
	row := make(domain.RawRow, len(header))
	for i, key := range header {
		if i >= len(record) || key == "" {
			continue
		}
		if record[i] == "" {
			continue
		}
		row[key] = record[i]
	}
	if len(row) == 0 {
		return nil
	}
	return row
}
