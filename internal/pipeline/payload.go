package pipeline

import (
	"context"
	"errors"

	"i14yimport/internal"
)

const (
	payloadLanguage         = "de"
	defaultAccessRights     = "PUBLIC"
	contactKind             = "Organization"
	distributionTitle       = "Datenexport"
	distributionDescription = "Export der Daten"
)

var (
	ErrMissingTitle       = errors.New("row has no title")
	ErrMissingDescription = errors.New("row has no description")
	ErrMissingIdentifier  = errors.New("row has no identificator")
)

type CodeResolver interface {
	ResolveTheme(ctx context.Context, label string) (string, bool)
	ResolveLicense(ctx context.Context, label string) (string, bool)
	ResolveAccessRights(label string) (string, bool)
}

func lang(text string) internal.LangText {
	return internal.LangText{payloadLanguage: text}
}

// BuildPayload assembles the catalog payload for one row. Optional groups are
// left out entirely when the row has no data for them.
func BuildPayload(ctx context.Context, row NormalizedRow, publisherIdentifier string, codes CodeResolver) (internal.DatasetPayload, error) {
	switch {
	case row.Title == nil:
		return internal.DatasetPayload{}, ErrMissingTitle
	case row.Description == nil:
		return internal.DatasetPayload{}, ErrMissingDescription
	case row.Identifier == nil:
		return internal.DatasetPayload{}, ErrMissingIdentifier
	}

	accessRights := defaultAccessRights
	if row.AccessRights != nil {
		if code, ok := codes.ResolveAccessRights(*row.AccessRights); ok && code != "" {
			accessRights = code
		}
	}

	ds := internal.Dataset{
		Title:        lang(*row.Title),
		Description:  lang(*row.Description),
		Identifiers:  []string{*row.Identifier},
		Publisher:    internal.Publisher{Identifier: publisherIdentifier},
		AccessRights: internal.CodeRef{Code: accessRights},
		Issued:       row.Issued,
		Modified:     row.Modified,
	}

	for _, kw := range row.Keywords {
		ds.Keywords = append(ds.Keywords, lang(kw))
	}

	if cp, ok := buildContactPoint(row, publisherIdentifier); ok {
		ds.ContactPoints = []internal.ContactPoint{cp}
	}

	if row.ThemeLabel != nil {
		if code, ok := codes.ResolveTheme(ctx, *row.ThemeLabel); ok && code != "" {
			ds.Themes = []internal.CodeRef{{Code: code}}
		}
	}

	if row.Spatial != nil {
		ds.Spatial = []string{*row.Spatial}
	}

	if row.TemporalStart != nil || row.TemporalEnd != nil {
		coverage := internal.TemporalCoverage{}
		if row.TemporalStart != nil {
			coverage.Start = *row.TemporalStart
		}
		if row.TemporalEnd != nil {
			coverage.End = *row.TemporalEnd
		}
		ds.TemporalCoverage = []internal.TemporalCoverage{coverage}
	}

	for _, d := range row.Distributions {
		ds.Distributions = append(ds.Distributions, buildDistribution(ctx, d, codes))
	}

	return internal.DatasetPayload{Data: ds}, nil
}

func buildContactPoint(row NormalizedRow, publisherIdentifier string) (internal.ContactPoint, bool) {
	if row.ContactName == nil && row.ContactEmail == nil {
		return internal.ContactPoint{}, false
	}
	cp := internal.ContactPoint{Kind: contactKind}
	if publisherIdentifier != "" {
		cp.Fn = lang(publisherIdentifier)
	}
	if row.ContactName != nil {
		cp.HasAddress = lang(*row.ContactName)
	}
	if row.ContactEmail != nil {
		cp.HasEmail = *row.ContactEmail
	}
	if row.ContactPhone != nil {
		cp.HasTelephone = *row.ContactPhone
	}
	return cp, true
}

func buildDistribution(ctx context.Context, d NormalizedDistribution, codes CodeResolver) internal.Distribution {
	out := internal.Distribution{
		Title:       lang(distributionTitle),
		Description: lang(distributionDescription),
		AccessURL:   internal.URIRef{URI: d.AccessURL},
		DownloadURL: internal.URIRef{URI: d.DownloadURL},
	}
	if d.LicenseLabel != nil {
		if code, ok := codes.ResolveLicense(ctx, *d.LicenseLabel); ok && code != "" {
			out.License = &internal.CodeRef{Code: code}
		}
	}
	return out
}
