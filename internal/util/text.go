package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

// IsBlank reports whether a cell value carries no data. Spreadsheets exported
// from data frames write NaN for missing cells, so it counts as blank too.
func IsBlank(input string) bool {
	s := strings.TrimSpace(input)
	if s == "" {
		return true
	}
	switch strings.ToLower(s) {
	case "nan", "nat":
		return true
	}
	return false
}

// NormalizeColumn trims a header cell and collapses inner whitespace.
func NormalizeColumn(input string) string {
	s := strings.ReplaceAll(input, "\u00a0", " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func StringPtr(v string) *string {
	return &v
}

func Deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
