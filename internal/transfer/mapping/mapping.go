// Package mapping parses the column-to-field configuration attached to a
// transfer task and resolves the defaults applied when the configuration is
// absent.
package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrInvalid reports a mapping config that could not be decoded.
var ErrInvalid = errors.New("invalid field mapping")

// Entry binds one zero-based column index to a business field and the header
// label used when generating files.
type Entry struct {
	Field string `json:"field"`
	Label string `json:"label"`
}

// Mapping is the decoded column configuration. The zero value means "not
// configured" and each accessor applies its own default for that case.
type Mapping struct {
	entries map[int]Entry
}

// Parse decodes a raw JSON object keyed by column index. An empty string is a
// valid absent config and yields the zero Mapping.
func Parse(raw string) (Mapping, error) {
	if raw == "" {
		return Mapping{}, nil
	}

	var obj map[string]Entry
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return Mapping{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	entries := make(map[int]Entry, len(obj))
	for key, entry := range obj {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 {
			return Mapping{}, fmt.Errorf("%w: column index %q", ErrInvalid, key)
		}
		entries[idx] = entry
	}

	return Mapping{entries: entries}, nil
}

// IsZero reports whether the mapping carries no configuration.
func (m Mapping) IsZero() bool {
	return len(m.entries) == 0
}

// ColumnToField returns the column-index-to-field table used when reading
// files. An unconfigured mapping defaults to the first three columns named
// column0 through column2.
func (m Mapping) ColumnToField() map[int]string {
	if m.IsZero() {
		return map[int]string{0: "column0", 1: "column1", 2: "column2"}
	}

	out := make(map[int]string, len(m.entries))
	for idx, entry := range m.entries {
		out[idx] = entry.Field
	}
	return out
}

// FieldToColumn returns the field-to-column-index table used when writing
// files. An unconfigured mapping writes nothing, so the table is empty.
func (m Mapping) FieldToColumn() map[string]int {
	out := make(map[string]int, len(m.entries))
	for idx, entry := range m.entries {
		out[entry.Field] = idx
	}
	return out
}

// Header returns the ordered header row for generated files. Width is the
// highest configured index plus one; columns without a label fall back to
// "column<N>".
func (m Mapping) Header() []string {
	width := m.Width()
	header := make([]string, width)
	for i := range header {
		header[i] = "column" + strconv.Itoa(i)
	}
	for idx, entry := range m.entries {
		if entry.Label != "" {
			header[idx] = entry.Label
		}
	}
	return header
}

// Width is the number of columns a generated row spans.
func (m Mapping) Width() int {
	max := -1
	for idx := range m.entries {
		if idx > max {
			max = idx
		}
	}
	return max + 1
}

// Columns returns the configured indexes in ascending order.
func (m Mapping) Columns() []int {
	cols := make([]int, 0, len(m.entries))
	for idx := range m.entries {
		cols = append(cols, idx)
	}
	sort.Ints(cols)
	return cols
}
