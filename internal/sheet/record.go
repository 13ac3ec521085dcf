package sheet

import (
	"strings"
	"time"

	"i14yimport/internal/util"
)

// Value is one non-blank cell. Raw holds the unformatted cell content, so date
// cells arrive as Excel serial numbers.
type Value struct {
	Raw string
}

func (v Value) String() string {
	return strings.TrimSpace(v.Raw)
}

func (v Value) Time() (time.Time, bool) {
	return util.ParseDate(v.Raw)
}

// Record is one data row of the sheet.
type Record struct {
	RowNumber int
	values    map[string]string
}

func NewRecord(rowNumber int, values map[string]string) Record {
	return Record{RowNumber: rowNumber, values: values}
}

// Optional returns the cell for field, or false when the column is missing or
// the cell is blank.
func (r Record) Optional(field string) (Value, bool) {
	raw, ok := r.values[field]
	if !ok || util.IsBlank(raw) {
		return Value{}, false
	}
	return Value{Raw: raw}, true
}

// String returns the trimmed cell text or "" when absent.
func (r Record) String(field string) string {
	v, ok := r.Optional(field)
	if !ok {
		return ""
	}
	return v.String()
}

// StringPtr returns the trimmed cell text or nil when absent.
func (r Record) StringPtr(field string) *string {
	v, ok := r.Optional(field)
	if !ok {
		return nil
	}
	return util.StringPtr(v.String())
}

func (r Record) Blank(field string) bool {
	_, ok := r.Optional(field)
	return !ok
}

// Table is the header row plus the data rows of one sheet, in sheet order.
type Table struct {
	Sheet   string
	Columns []string
	Records []Record
}

func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}
