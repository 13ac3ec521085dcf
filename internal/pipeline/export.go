package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"i14yimport/internal"
)

// ExportRowsToXLSX writes one line per processed sheet row, so a failed import
// can be corrected and re-uploaded.
func ExportRowsToXLSX(rows []internal.RowResult, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"row", "identificator", "title", "status", "dataset_id", "error"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.RowNumber)
		set(2, row.Identifier)
		set(3, row.Title)
		set(4, string(row.Status))
		set(5, row.DatasetID)
		set(6, row.Error)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
