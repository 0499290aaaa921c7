package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/shandysiswandi/filebridge/internal/transfer/mapping"
)

// CSV reads and writes RFC 4180 comma-separated files.
type CSV struct{}

// Parse implements Codec.
func (CSV) Parse(r io.Reader, m mapping.Mapping, fn BatchFunc) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// First record is the header and carries no data.
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("read csv header: %w", err)
	}

	colToField := m.ColumnToField()
	total := 0
	batch := make([]Row, 0, BatchSize)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, fmt.Errorf("read csv row: %w", err)
		}

		row := make(Row, len(colToField))
		for col, field := range colToField {
			if col < len(record) {
				row[field] = record[col]
			} else {
				row[field] = ""
			}
		}
		batch = append(batch, row)
		total++

		if len(batch) == BatchSize {
			if err := fn(batch); err != nil {
				return total, err
			}
			batch = make([]Row, 0, BatchSize)
		}
	}

	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Generate implements Codec.
func (CSV) Generate(w io.Writer, m mapping.Mapping, provide DataProvider) (int, error) {
	writer := csv.NewWriter(w)

	if header := m.Header(); len(header) > 0 {
		if err := writer.Write(header); err != nil {
			return 0, fmt.Errorf("write csv header: %w", err)
		}
	}

	fieldToCol := m.FieldToColumn()
	width := m.Width()
	total := 0

	for {
		rows, err := provide(total)
		if err != nil {
			return total, err
		}
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			if err := writer.Write(cellsFor(row, fieldToCol, width)); err != nil {
				return total, fmt.Errorf("write csv row: %w", err)
			}
			total++
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return total, fmt.Errorf("flush csv: %w", err)
	}
	return total, nil
}
