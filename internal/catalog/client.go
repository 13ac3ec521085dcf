package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"i14yimport/internal/config"
	"i14yimport/internal/util"
)

// Entry is one code list item as exported by the public catalog API.
type Entry struct {
	Code string
	Name map[string]string
}

// FetchError describes a failed code list download.
type FetchError struct {
	ConceptID  string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("code list %s: status=%d", e.ConceptID, e.StatusCode)
	}
	return fmt.Sprintf("code list %s: %v", e.ConceptID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type exportResponse struct {
	Data []struct {
		Code string            `json:"code"`
		Name map[string]string `json:"name"`
	} `json:"data"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL:    cfg.CatalogBaseURL,
		httpClient: &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutMs) * time.Millisecond},
	}
}

// FetchCodeList downloads all entries of one concept's code list.
func (c *Client) FetchCodeList(ctx context.Context, conceptID string) ([]Entry, error) {
	endpoint := strings.TrimRight(c.baseURL, "/") + "/concepts/" + url.PathEscape(conceptID) + "/codelist-entries/exports/json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{ConceptID: conceptID, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{ConceptID: conceptID, Err: err}
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, &FetchError{ConceptID: conceptID, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{
			ConceptID:  conceptID,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("body=%s", util.Truncate(string(body), 200)),
		}
	}

	var payload exportResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &FetchError{ConceptID: conceptID, Err: fmt.Errorf("decode code list: %w", err)}
	}

	out := make([]Entry, 0, len(payload.Data))
	for _, item := range payload.Data {
		out = append(out, Entry{Code: item.Code, Name: item.Name})
	}
	return out, nil
}
