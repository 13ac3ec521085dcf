package catalog

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i14yimport/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testConfig() config.Config {
	return config.Config{
		CatalogBaseURL:   "https://example.test/api/public/v1/",
		ThemeConceptID:   "theme-concept",
		LicenseConceptID: "license-concept",
		HTTPTimeoutMs:    1000,
	}
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestFetchCodeList(t *testing.T) {
	client := NewClient(testConfig())
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/public/v1/concepts/theme-concept/codelist-entries/exports/json", r.URL.Path)
			return respond(http.StatusOK, `{"data":[{"code":"113","name":{"de":"Bevölkerung","fr":"Population"}},{"code":"","name":{"de":"Leer"}}]}`), nil
		}),
	}

	entries, err := client.FetchCodeList(context.Background(), "theme-concept")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "113", entries[0].Code)
	assert.Equal(t, "Bevölkerung", entries[0].Name["de"])
}

func TestFetchCodeListStatusError(t *testing.T) {
	client := NewClient(testConfig())
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return respond(http.StatusBadGateway, `upstream down`), nil
		}),
	}

	_, err := client.FetchCodeList(context.Background(), "theme-concept")
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusBadGateway, fetchErr.StatusCode)
	assert.Equal(t, "code list theme-concept: status=502", err.Error())
}

func TestFetchCodeListMalformedJSON(t *testing.T) {
	client := NewClient(testConfig())
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return respond(http.StatusOK, `{"data": [`), nil
		}),
	}

	_, err := client.FetchCodeList(context.Background(), "license-concept")
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "decode code list")
}
