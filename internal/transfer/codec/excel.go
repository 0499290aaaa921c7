package codec

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/shandysiswandi/filebridge/internal/transfer/mapping"
)

// SheetCapacity is the number of data rows written to one sheet before
// generation rolls over to a fresh one. Kept well under the xlsx hard limit
// so workbooks stay openable in older spreadsheet software.
const SheetCapacity = 100_000

// Excel reads and writes xlsx workbooks via streaming APIs.
type Excel struct{}

// Parse implements Codec. Only the first sheet is read.
func (Excel) Parse(r io.Reader, m mapping.Mapping, fn BatchFunc) (int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return 0, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return 0, fmt.Errorf("iterate sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	colToField := m.ColumnToField()
	total := 0
	first := true
	batch := make([]Row, 0, BatchSize)

	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return total, fmt.Errorf("read sheet row: %w", err)
		}
		if first {
			first = false
			continue
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
	if err := rows.Error(); err != nil {
		return total, fmt.Errorf("iterate sheet rows: %w", err)
	}

	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Generate implements Codec. Rows spill onto additional sheets once a sheet
// reaches SheetCapacity, each new sheet starting with its own header row.
func (Excel) Generate(w io.Writer, m mapping.Mapping, provide DataProvider) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	header := m.Header()
	fieldToCol := m.FieldToColumn()
	width := m.Width()

	sheetNum := 1
	sheet := f.GetSheetName(0)
	sw, err := newSheetWriter(f, sheet, header)
	if err != nil {
		return 0, err
	}

	total := 0
	inSheet := 0

	for {
		rows, err := provide(total)
		if err != nil {
			return total, err
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			if inSheet == SheetCapacity {
				if err := sw.Flush(); err != nil {
					return total, fmt.Errorf("flush sheet: %w", err)
				}
				sheetNum++
				sheet = fmt.Sprintf("Sheet%d", sheetNum)
				if _, err := f.NewSheet(sheet); err != nil {
					return total, fmt.Errorf("add sheet %q: %w", sheet, err)
				}
				sw, err = newSheetWriter(f, sheet, header)
				if err != nil {
					return total, err
				}
				inSheet = 0
			}

			cells := cellsFor(row, fieldToCol, width)
			values := make([]any, len(cells))
			for i, c := range cells {
				values[i] = c
			}
			cell, err := excelize.CoordinatesToCellName(1, inSheet+2)
			if err != nil {
				return total, fmt.Errorf("locate cell: %w", err)
			}
			if err := sw.SetRow(cell, values); err != nil {
				return total, fmt.Errorf("write sheet row: %w", err)
			}
			total++
			inSheet++
		}
	}

	if err := sw.Flush(); err != nil {
		return total, fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return total, fmt.Errorf("write workbook: %w", err)
	}
	return total, nil
}

func newSheetWriter(f *excelize.File, sheet string, header []string) (*excelize.StreamWriter, error) {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, fmt.Errorf("stream sheet %q: %w", sheet, err)
	}
	if len(header) > 0 {
		values := make([]any, len(header))
		for i, h := range header {
			values[i] = h
		}
		if err := sw.SetRow("A1", values); err != nil {
			return nil, fmt.Errorf("write sheet header: %w", err)
		}
	}
	return sw, nil
}
