// Package codec reads and writes the tabular file formats a transfer task
// moves data through. Parsing streams rows out in fixed-size batches and
// generation streams pages in from a data provider, so neither direction
// holds a whole file of rows in memory.
package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shandysiswandi/filebridge/internal/transfer/mapping"
)

// BatchSize is the number of parsed rows handed to a BatchFunc at a time.
const BatchSize = 1000

// Row is one record keyed by business field name.
type Row map[string]any

// BatchFunc consumes one batch of parsed rows. A non-nil error aborts the
// parse; per-row delivery failures are the consumer's business and should be
// tracked there instead of returned.
type BatchFunc func(rows []Row) error

// DataProvider returns the page of rows starting at offset. A nil or empty
// page ends generation.
type DataProvider func(offset int) ([]Row, error)

// Codec converts between a file format and field-keyed rows.
type Codec interface {
	// Parse streams the file's data rows to fn in batches, skipping the
	// header row, and returns the total number of data rows read.
	Parse(r io.Reader, m mapping.Mapping, fn BatchFunc) (int, error)

	// Generate writes a header row then every row the provider yields,
	// and returns the number of data rows written.
	Generate(w io.Writer, m mapping.Mapping, provide DataProvider) (int, error)
}

// ForFilename picks a codec from the file extension. Comma and plain text
// files are parsed as CSV; everything else is treated as an Excel workbook.
func ForFilename(name string) Codec {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return CSV{}
	default:
		return Excel{}
	}
}

// formatValue renders a row value as a cell string. JSON-decoded numbers
// arrive as float64, so they are printed without an exponent.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// cellsFor projects a row onto the mapping's column layout.
func cellsFor(row Row, fieldToCol map[string]int, width int) []string {
	cells := make([]string, width)
	for field, col := range fieldToCol {
		if v, ok := row[field]; ok {
			cells[col] = formatValue(v)
		}
	}
	return cells
}
