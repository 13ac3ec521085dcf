package pipeline

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"i14yimport/internal/catalog"
	"i14yimport/internal/sheet"
)

func mkXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheetName := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, f.SetCellValue(sheetName, cell, v))
		}
	}
	buf := bytes.NewBuffer(nil)
	_, err := f.WriteTo(buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func record(values map[string]string) sheet.Record {
	return sheet.NewRecord(2, values)
}

// stubCodes resolves from fixed tables and echoes unknown labels.
type stubCodes struct {
	themes   map[string]string
	licenses map[string]string
	warnings []string
	lookups  int
}

func (s *stubCodes) ResolveTheme(_ context.Context, label string) (string, bool) {
	s.lookups++
	return lookup(s.themes, label)
}

func (s *stubCodes) ResolveLicense(_ context.Context, label string) (string, bool) {
	s.lookups++
	return lookup(s.licenses, label)
}

func (s *stubCodes) ResolveAccessRights(label string) (string, bool) {
	if label == "" {
		return "", false
	}
	return catalog.AccessRights().Lookup(label), true
}

func (s *stubCodes) Warnings() []string { return s.warnings }

func lookup(m map[string]string, label string) (string, bool) {
	if label == "" {
		return "", false
	}
	if code, ok := m[label]; ok {
		return code, true
	}
	return label, true
}
