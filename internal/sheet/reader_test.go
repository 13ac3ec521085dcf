package sheet

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func mkXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf := bytes.NewBuffer(nil)
	_, err := f.WriteTo(buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadBuildsRecordsFromHeader(t *testing.T) {
	blob := mkXLSX(t, [][]any{
		{"title", " description ", "identificator", "issued"},
		{"T", "D", "id1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{nil, nil, nil, nil},
		{"T2", nil, "id2", "NaN"},
	})

	table, err := Read(bytes.NewReader(blob))
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "description", "identificator", "issued"}, table.Columns)
	require.Len(t, table.Records, 2)

	first := table.Records[0]
	assert.Equal(t, 2, first.RowNumber)
	assert.Equal(t, "T", first.String("title"))
	assert.Equal(t, "D", first.String("description"))
	issued, ok := first.Optional("issued")
	require.True(t, ok)
	ts, ok := issued.Time()
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", ts.Format("2006-01-02"))

	second := table.Records[1]
	assert.Equal(t, 4, second.RowNumber)
	assert.True(t, second.Blank("description"))
	assert.True(t, second.Blank("issued"))
	assert.Nil(t, second.StringPtr("missing_column"))
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not a workbook")))
	require.Error(t, err)
}

func TestReadFileRejectsOtherExtensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datasets.csv")
	require.NoError(t, os.WriteFile(path, []byte("title\nT\n"), 0o644))

	_, err := ReadFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datasets.XLSX")
	require.NoError(t, os.WriteFile(path, mkXLSX(t, [][]any{{"title"}, {"T"}}), 0o644))

	table, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	assert.True(t, table.HasColumn("title"))
	assert.False(t, table.HasColumn("spatial"))
}
