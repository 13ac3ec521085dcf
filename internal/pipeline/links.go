package pipeline

import (
	"strings"

	"i14yimport/internal"
)

type DatasetLink struct {
	ID    string
	Title string
	Link  string
}

// CatalogLinks points at the catalog pages of the datasets an import created.
func CatalogLinks(outcome internal.ImportOutcome, base string) []DatasetLink {
	base = strings.TrimRight(base, "/")
	links := make([]DatasetLink, 0, len(outcome.SuccessfulDatasets))
	for _, ds := range outcome.SuccessfulDatasets {
		if ds.ID == "" || ds.ID == "N/A" {
			continue
		}
		title := ds.Title
		if title == "" {
			title = "Dataset"
		}
		links = append(links, DatasetLink{ID: ds.ID, Title: title, Link: base + "/" + ds.ID + "/"})
	}
	return links
}
