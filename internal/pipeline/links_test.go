package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"i14yimport/internal"
)

func TestCatalogLinks(t *testing.T) {
	outcome := internal.ImportOutcome{SuccessfulDatasets: []internal.CreatedDataset{
		{ID: "abc", Title: "T"},
		{ID: "N/A", Title: "skipped"},
		{ID: "def"},
	}}

	links := CatalogLinks(outcome, "https://input.i14y.admin.ch/catalog/datasets/")
	assert.Equal(t, []DatasetLink{
		{ID: "abc", Title: "T", Link: "https://input.i14y.admin.ch/catalog/datasets/abc/"},
		{ID: "def", Title: "Dataset", Link: "https://input.i14y.admin.ch/catalog/datasets/def/"},
	}, links)
}
