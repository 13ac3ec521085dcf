package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTreatsBlankAsAbsent(t *testing.T) {
	row := Normalize(record(map[string]string{
		ColTitle:        "T",
		ColDescription:  "  ",
		ColIdentifier:   "id1",
		ColAccessRights: "NaN",
		ColSpatial:      "Schweiz",
	}))

	require.NotNil(t, row.Title)
	assert.Equal(t, "T", *row.Title)
	assert.Nil(t, row.Description)
	assert.Nil(t, row.AccessRights)
	assert.Equal(t, "Schweiz", *row.Spatial)
	assert.Nil(t, row.ContactName)
	assert.Empty(t, row.Keywords)
	assert.Empty(t, row.Distributions)
}

func TestNormalizeKeywordsWithGaps(t *testing.T) {
	row := Normalize(record(map[string]string{
		"keywords_2": "Umwelt",
		"keywords_3": "Wasser",
	}))
	assert.Equal(t, []string{"Umwelt", "Wasser"}, row.Keywords)
}

func TestNormalizeDates(t *testing.T) {
	row := Normalize(record(map[string]string{
		ColIssued:        "45292",
		ColModified:      "irgendwann",
		ColTemporalStart: "01.02.2020",
		ColTemporalEnd:   "kaputt",
	}))

	require.NotNil(t, row.Issued)
	assert.Equal(t, "2024-01-01T00:00:00", *row.Issued)
	assert.Nil(t, row.Modified)
	require.NotNil(t, row.TemporalStart)
	assert.Equal(t, "2020-02-01T00:00:00", *row.TemporalStart)
	assert.Nil(t, row.TemporalEnd)
}

func TestNormalizeRejectsNumbersOutsideExcelRange(t *testing.T) {
	row := Normalize(record(map[string]string{
		ColIssued:        "1e10",
		ColModified:      "Inf",
		ColTemporalStart: "2958466",
		ColTemporalEnd:   "2024-12-31T23:00:00+01:00",
	}))

	assert.Nil(t, row.Issued)
	assert.Nil(t, row.Modified)
	assert.Nil(t, row.TemporalStart)
	require.NotNil(t, row.TemporalEnd)
	assert.Equal(t, "2024-12-31T23:00:00+01:00", *row.TemporalEnd)
}

func TestNormalizeDistributionMirroring(t *testing.T) {
	row := Normalize(record(map[string]string{
		"distribution_accessUrl_1":     "https://a.example/1",
		"distribution_downloadUrl_1":   "https://d.example/1",
		"distribution_license_label_1": "Unknown",
		"distribution_downloadUrl_2":   "https://d.example/2",
		"distribution_license_label_3": "orphan license",
	}))

	require.Len(t, row.Distributions, 2)

	first := row.Distributions[0]
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, "https://a.example/1", first.AccessURL)
	assert.Equal(t, "https://a.example/1", first.DownloadURL)
	require.NotNil(t, first.LicenseLabel)
	assert.Equal(t, "Unknown", *first.LicenseLabel)

	second := row.Distributions[1]
	assert.Equal(t, 2, second.Index)
	assert.Equal(t, "https://d.example/2", second.AccessURL)
	assert.Equal(t, "https://d.example/2", second.DownloadURL)
	assert.Nil(t, second.LicenseLabel)
}

func TestNormalizeAccessOnlyDistribution(t *testing.T) {
	row := Normalize(record(map[string]string{"distribution_accessUrl_3": "https://a.example/3"}))
	require.Len(t, row.Distributions, 1)
	assert.Equal(t, 3, row.Distributions[0].Index)
	assert.Equal(t, "https://a.example/3", row.Distributions[0].DownloadURL)
}
