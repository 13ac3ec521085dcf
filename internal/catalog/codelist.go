package catalog

import "strings"

// Mapping resolves labels and codes of one vocabulary to the canonical code.
type Mapping map[string]string

const labelLanguage = "de"

// BuildMapping indexes entries by their German label and by their code.
// Entries without code or label are ignored.
func BuildMapping(entries []Entry, seed Mapping) Mapping {
	m := Mapping{}
	for k, v := range seed {
		m[k] = v
	}
	for _, e := range entries {
		code := strings.TrimSpace(e.Code)
		label := strings.TrimSpace(e.Name[labelLanguage])
		if code == "" || label == "" {
			continue
		}
		m[label] = code
		m[code] = code
	}
	return m
}

// Lookup returns the code for value, echoing value when it is not mapped.
func (m Mapping) Lookup(value string) string {
	if code, ok := m[value]; ok {
		return code
	}
	return value
}

var accessRights = Mapping{
	"Nicht-öffentlich": "NON_PUBLIC",
	"Öffentlich":       "PUBLIC",
	"Eingeschränkt":    "RESTRICTED",
	"Vertraulich":      "CONFIDENTIAL",
	"NON_PUBLIC":       "NON_PUBLIC",
	"PUBLIC":           "PUBLIC",
	"RESTRICTED":       "RESTRICTED",
	"CONFIDENTIAL":     "CONFIDENTIAL",
}

var licenseSeed = Mapping{"Unknown": "UNKNOWN"}

// AccessRights returns a copy of the static access rights vocabulary.
func AccessRights() Mapping {
	return BuildMapping(nil, accessRights)
}
