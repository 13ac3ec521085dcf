package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	lists map[string][]Entry
	err   error
	calls map[string]int
}

func (s *stubFetcher) FetchCodeList(_ context.Context, conceptID string) ([]Entry, error) {
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[conceptID]++
	if s.err != nil {
		return nil, s.err
	}
	return s.lists[conceptID], nil
}

func de(label string) map[string]string { return map[string]string{"de": label} }

func TestResolveThemeByLabelAndCode(t *testing.T) {
	fetcher := &stubFetcher{lists: map[string][]Entry{
		"theme-concept": {{Code: "113", Name: de("Bevölkerung")}, {Code: "114", Name: de("Bildung")}},
	}}
	r := NewResolver(fetcher, testConfig())
	ctx := context.Background()

	code, ok := r.ResolveTheme(ctx, "Bevölkerung")
	require.True(t, ok)
	assert.Equal(t, "113", code)

	code, ok = r.ResolveTheme(ctx, "114")
	require.True(t, ok)
	assert.Equal(t, "114", code)

	code, ok = r.ResolveTheme(ctx, "Unbekanntes Thema")
	require.True(t, ok)
	assert.Equal(t, "Unbekanntes Thema", code)

	assert.Equal(t, 1, fetcher.calls["theme-concept"])
	assert.Empty(t, r.Warnings())
}

func TestResolveBlankSkipsLookup(t *testing.T) {
	fetcher := &stubFetcher{}
	r := NewResolver(fetcher, testConfig())

	_, ok := r.ResolveTheme(context.Background(), "  ")
	assert.False(t, ok)
	_, ok = r.ResolveLicense(context.Background(), "NaN")
	assert.False(t, ok)
	_, ok = r.ResolveAccessRights("")
	assert.False(t, ok)

	assert.Empty(t, fetcher.calls)
}

func TestResolveLicenseFallsBackOnFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("dial tcp: connection refused")}
	r := NewResolver(fetcher, testConfig())
	ctx := context.Background()

	code, ok := r.ResolveLicense(ctx, "Unknown")
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN", code)

	code, ok = r.ResolveLicense(ctx, "CC BY 4.0")
	require.True(t, ok)
	assert.Equal(t, "CC BY 4.0", code)

	assert.Equal(t, 1, fetcher.calls["license-concept"])
	warnings := r.Warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "license code list unavailable")
}

func TestResolveAccessRights(t *testing.T) {
	r := NewResolver(&stubFetcher{}, testConfig())

	cases := map[string]string{
		"Öffentlich":       "PUBLIC",
		"Nicht-öffentlich": "NON_PUBLIC",
		"Eingeschränkt":    "RESTRICTED",
		"Vertraulich":      "CONFIDENTIAL",
		"RESTRICTED":       "RESTRICTED",
		"Geheim":           "Geheim",
	}
	for in, want := range cases {
		got, ok := r.ResolveAccessRights(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
}

func TestBuildMappingKeepsSeed(t *testing.T) {
	m := BuildMapping([]Entry{{Code: "CC_BY", Name: de("Namensnennung")}}, licenseSeed)
	assert.Equal(t, "UNKNOWN", m.Lookup("Unknown"))
	assert.Equal(t, "CC_BY", m.Lookup("Namensnennung"))
	assert.Equal(t, "CC_BY", m.Lookup("CC_BY"))
	assert.Len(t, licenseSeed, 1)
}
