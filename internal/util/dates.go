package util

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ISOLayout is the timestamp layout written into catalog payloads for values
// without a zone.
const ISOLayout = "2006-01-02T15:04:05"

// Excel serial day numbers run from 1900-01-01 to 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

var dateLayouts = []string{
	"2006-01-02",
	ISOLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02.01.2006",
	"2.1.2006",
	"02.01.2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"20060102",
	"2006",
}

// ParseDate accepts the textual layouts people type into date columns as well
// as Excel serial day numbers. Textual layouts win, so a bare year or a compact
// yyyymmdd value is never read as a serial.
func ParseDate(input string) (time.Time, bool) {
	s := strings.TrimSpace(input)
	if IsBlank(s) {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return time.Time{}, false
	}
	if serial < minExcelSerial || serial >= maxExcelSerial+1 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return t.Round(time.Second), true
}

// FormatISODate renders a date for the catalog. Values without a zone, which
// is what spreadsheets hold, keep their wall clock; values read with an
// explicit non-UTC offset keep that offset.
func FormatISODate(t time.Time) string {
	if t.Location() == time.UTC {
		return t.Format(ISOLayout)
	}
	return t.Format(time.RFC3339)
}
