package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/filebridge/internal/transfer/mapping"
)

func collectBatches(collected *[]Row) BatchFunc {
	return func(rows []Row) error {
		*collected = append(*collected, rows...)
		return nil
	}
}

func TestCSVParseDefaultMapping(t *testing.T) {
	input := "h1,h2,h3\nalice,30,x\nbob,25,y\n"

	var rows []Row
	total, err := CSV{}.Parse(strings.NewReader(input), mapping.Mapping{}, collectBatches(&rows))
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"column0": "alice", "column1": "30", "column2": "x"}, rows[0])
	assert.Equal(t, Row{"column0": "bob", "column1": "25", "column2": "y"}, rows[1])
}

func TestCSVParseQuotedField(t *testing.T) {
	input := "h\n\"a,b\"\"c\"\n"
	m, err := mapping.Parse(`{"0":{"field":"name"}}`)
	require.NoError(t, err)

	var rows []Row
	total, err := CSV{}.Parse(strings.NewReader(input), m, collectBatches(&rows))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, `a,b"c`, rows[0]["name"])
}

func TestCSVParseShortRecordFillsEmpty(t *testing.T) {
	input := "h1,h2\nonly\n"
	m, err := mapping.Parse(`{"0":{"field":"a"},"1":{"field":"b"}}`)
	require.NoError(t, err)

	var rows []Row
	_, err = CSV{}.Parse(strings.NewReader(input), m, collectBatches(&rows))
	require.NoError(t, err)
	assert.Equal(t, Row{"a": "only", "b": ""}, rows[0])
}

func TestCSVParseEmptyFile(t *testing.T) {
	var rows []Row
	total, err := CSV{}.Parse(strings.NewReader(""), mapping.Mapping{}, collectBatches(&rows))
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, rows)
}

func TestCSVGenerateAndRoundTrip(t *testing.T) {
	m, err := mapping.Parse(`{"0":{"field":"name","label":"Name"},"1":{"field":"age","label":"Age"}}`)
	require.NoError(t, err)

	pages := [][]Row{
		{{"name": "alice", "age": float64(30)}, {"name": `a,b"c`, "age": nil}},
		{{"name": "carol", "age": true}},
	}
	provide := func(offset int) ([]Row, error) {
		switch offset {
		case 0:
			return pages[0], nil
		case 2:
			return pages[1], nil
		default:
			return nil, nil
		}
	}

	var buf bytes.Buffer
	total, err := CSV{}.Generate(&buf, m, provide)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.True(t, strings.HasPrefix(buf.String(), "Name,Age\n"))

	// What was written must parse back to the same field values.
	var rows []Row
	parsed, err := CSV{}.Parse(bytes.NewReader(buf.Bytes()), m, collectBatches(&rows))
	require.NoError(t, err)
	assert.Equal(t, 3, parsed)
	assert.Equal(t, Row{"name": "alice", "age": "30"}, rows[0])
	assert.Equal(t, Row{"name": `a,b"c`, "age": ""}, rows[1])
	assert.Equal(t, Row{"name": "carol", "age": "true"}, rows[2])
}

func TestCSVGenerateEmptyMappingWritesNothing(t *testing.T) {
	provide := func(offset int) ([]Row, error) {
		if offset == 0 {
			return []Row{{"name": "alice"}}, nil
		}
		return nil, nil
	}

	var buf bytes.Buffer
	total, err := CSV{}.Generate(&buf, mapping.Mapping{}, provide)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	// No configured columns means no header and no cell data.
	assert.NotContains(t, buf.String(), "alice")
}

func TestForFilename(t *testing.T) {
	assert.IsType(t, CSV{}, ForFilename("data.csv"))
	assert.IsType(t, CSV{}, ForFilename("DATA.TXT"))
	assert.IsType(t, Excel{}, ForFilename("report.xlsx"))
	assert.IsType(t, Excel{}, ForFilename("noext"))
}
