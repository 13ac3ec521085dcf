package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"i14yimport/internal/util"
)

var (
	ErrUnsupportedFile = errors.New("only .xlsx workbooks are supported")
	ErrNoSheet         = errors.New("workbook has no sheets")
	ErrNoHeader        = errors.New("sheet has no header row")
)

// ReadFile loads the first sheet of an .xlsx workbook.
func ReadFile(path string) (Table, error) {
	if !IsWorkbookName(path) {
		return Table{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFile)
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return Table{}, err
	}
	return Read(bytes.NewReader(blob))
}

// Read loads the first sheet of an .xlsx workbook. The first row is the header.
func Read(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, ErrNoSheet
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return Table{}, ErrNoHeader
	}

	columns := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		columns[i] = util.NormalizeColumn(cell)
	}

	table := Table{Sheet: sheet, Columns: columns}
	for i, row := range rows[1:] {
		values := make(map[string]string, len(columns))
		empty := true
		for c, name := range columns {
			if name == "" || c >= len(row) {
				continue
			}
			values[name] = row[c]
			if !util.IsBlank(row[c]) {
				empty = false
			}
		}
		if empty {
			continue
		}
		table.Records = append(table.Records, NewRecord(i+2, values))
	}

	return table, nil
}

func IsWorkbookName(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(name)), ".xlsx")
}
