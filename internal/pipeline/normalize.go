package pipeline

import (
	"fmt"

	"i14yimport/internal/sheet"
	"i14yimport/internal/util"
)

// Column names of the import template.
const (
	ColTitle         = "title"
	ColDescription   = "description"
	ColIdentifier    = "identificator"
	ColAccessRights  = "accessRights"
	ColIssued        = "issued"
	ColModified      = "modified"
	ColContactName   = "contactPoints_fn"
	ColContactEmail  = "contactPoints_hasEmail"
	ColContactPhone  = "contactPoints_hasTelephone"
	ColThemeLabel    = "themes_label"
	ColSpatial       = "spatial"
	ColTemporalStart = "temporalCoverage_start"
	ColTemporalEnd   = "temporalCoverage_end"
)

const (
	maxKeywords      = 3
	maxDistributions = 3
)

func keywordColumn(i int) string      { return fmt.Sprintf("keywords_%d", i) }
func accessURLColumn(i int) string    { return fmt.Sprintf("distribution_accessUrl_%d", i) }
func downloadURLColumn(i int) string  { return fmt.Sprintf("distribution_downloadUrl_%d", i) }
func licenseLabelColumn(i int) string { return fmt.Sprintf("distribution_license_label_%d", i) }

type NormalizedDistribution struct {
	Index        int
	AccessURL    string
	DownloadURL  string
	LicenseLabel *string
}

// NormalizedRow holds the typed fields of one sheet row. Nil means the cell
// was blank or missing.
type NormalizedRow struct {
	RowNumber     int
	Title         *string
	Description   *string
	Identifier    *string
	AccessRights  *string
	Issued        *string
	Modified      *string
	Keywords      []string
	ContactName   *string
	ContactEmail  *string
	ContactPhone  *string
	ThemeLabel    *string
	Spatial       *string
	TemporalStart *string
	TemporalEnd   *string
	Distributions []NormalizedDistribution
}

func Normalize(rec sheet.Record) NormalizedRow {
	row := NormalizedRow{
		RowNumber:     rec.RowNumber,
		Title:         rec.StringPtr(ColTitle),
		Description:   rec.StringPtr(ColDescription),
		Identifier:    rec.StringPtr(ColIdentifier),
		AccessRights:  rec.StringPtr(ColAccessRights),
		Issued:        isoDate(rec, ColIssued),
		Modified:      isoDate(rec, ColModified),
		ContactName:   rec.StringPtr(ColContactName),
		ContactEmail:  rec.StringPtr(ColContactEmail),
		ContactPhone:  rec.StringPtr(ColContactPhone),
		ThemeLabel:    rec.StringPtr(ColThemeLabel),
		Spatial:       rec.StringPtr(ColSpatial),
		TemporalStart: isoDate(rec, ColTemporalStart),
		TemporalEnd:   isoDate(rec, ColTemporalEnd),
	}

	for i := 1; i <= maxKeywords; i++ {
		if kw := rec.StringPtr(keywordColumn(i)); kw != nil {
			row.Keywords = append(row.Keywords, *kw)
		}
	}

	for i := 1; i <= maxDistributions; i++ {
		if dist, ok := normalizeDistribution(rec, i); ok {
			row.Distributions = append(row.Distributions, dist)
		}
	}

	return row
}

// normalizeDistribution mirrors a single given URL into both URL fields. When
// both are given the access URL is used for both.
func normalizeDistribution(rec sheet.Record, i int) (NormalizedDistribution, bool) {
	access := rec.StringPtr(accessURLColumn(i))
	download := rec.StringPtr(downloadURLColumn(i))

	var url string
	switch {
	case access != nil:
		url = *access
	case download != nil:
		url = *download
	default:
		return NormalizedDistribution{}, false
	}

	return NormalizedDistribution{
		Index:        i,
		AccessURL:    url,
		DownloadURL:  url,
		LicenseLabel: rec.StringPtr(licenseLabelColumn(i)),
	}, true
}

func isoDate(rec sheet.Record, field string) *string {
	v, ok := rec.Optional(field)
	if !ok {
		return nil
	}
	t, ok := v.Time()
	if !ok {
		return nil
	}
	return util.StringPtr(util.FormatISODate(t))
}
