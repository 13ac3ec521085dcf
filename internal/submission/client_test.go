package submission

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i14yimport/internal"
	"i14yimport/internal/config"
)

func samplePayload() internal.DatasetPayload {
	return internal.DatasetPayload{Data: internal.Dataset{
		Title:        internal.LangText{"de": "T"},
		Description:  internal.LangText{"de": "D"},
		Identifiers:  []string{"id1"},
		Publisher:    internal.Publisher{Identifier: "PUB"},
		AccessRights: internal.CodeRef{Code: "PUBLIC"},
	}}
}

func newTestClient(url string) *Client {
	return NewClient(config.Config{APIBaseURL: url + "/", HTTPTimeoutMs: 2000})
}

func TestSubmitPostsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/datasets", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		blob, _ := io.ReadAll(r.Body)
		var got struct {
			Data map[string]any `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(blob, &got))
		data := got.Data
		assert.Equal(t, []any{"id1"}, data["identifiers"])
		assert.Contains(t, data, "issued")
		assert.Nil(t, data["issued"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`"abc-123"`))
	}))
	defer srv.Close()

	id, err := newTestClient(srv.URL).Submit(context.Background(), samplePayload(), "Bearer tok")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", id)
}

func TestSubmitRejectsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"title":"Validation failed","detail":"identifier already used"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Submit(context.Background(), samplePayload(), "Bearer tok")
	var subErr *SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, http.StatusBadRequest, subErr.StatusCode)
	assert.Contains(t, subErr.Body, "identifier already used")
	assert.True(t, strings.HasPrefix(err.Error(), "API submission failed: 400 - "))
}

func TestSubmitTreatsAcceptedAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`"abc"`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Submit(context.Background(), samplePayload(), "Bearer tok")
	var subErr *SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, http.StatusAccepted, subErr.StatusCode)
}

func TestSubmitReducesHTMLErrorPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html><head><title>502 Bad Gateway</title><style>h1{}</style></head><body><h1>Bad Gateway</h1></body></html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Submit(context.Background(), samplePayload(), "Bearer tok")
	var subErr *SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, "502 Bad Gateway: Bad Gateway", subErr.Body)
}

func TestSubmitRequiresToken(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:0").Submit(context.Background(), samplePayload(), " ")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestSubmitRedactsTokenEchoedInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`invalid credentials for ` + r.Header.Get("Authorization")))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Submit(context.Background(), samplePayload(), "Bearer secret-token")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestDecodeRecordID(t *testing.T) {
	id, err := DecodeRecordID([]byte(" \"08dc-1\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "08dc-1", id)

	_, err = DecodeRecordID([]byte(`08dc-1`))
	assert.ErrorIs(t, err, ErrUnquotedRecordID)

	_, err = DecodeRecordID([]byte(`{"id":"08dc-1"}`))
	assert.ErrorIs(t, err, ErrUnquotedRecordID)

	_, err = DecodeRecordID([]byte(`""`))
	assert.ErrorIs(t, err, ErrEmptyRecordID)
}

func TestRateLimiterDisabled(t *testing.T) {
	var r *RateLimiter
	assert.NoError(t, r.WaitTurn(context.Background()))
	assert.NoError(t, NewRateLimiter(0).WaitTurn(context.Background()))
	assert.NoError(t, NewRateLimiter(100).WaitTurn(context.Background()))
}
