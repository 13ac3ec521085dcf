package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"i14yimport/internal"
	"i14yimport/internal/config"
)

var ErrMissingToken = errors.New("missing API token")

// Client posts dataset payloads to the partner API. It never retries: one
// failed call is one failed row.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *RateLimiter
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL:    cfg.APIBaseURL,
		httpClient: &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.SubmitRateRPS),
	}
}

// Submit creates one dataset and returns its id.
func (c *Client) Submit(ctx context.Context, payload internal.DatasetPayload, apiToken string) (string, error) {
	if strings.TrimSpace(apiToken) == "" {
		return "", ErrMissingToken
	}

	blob, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	if err := c.limiter.WaitTurn(ctx); err != nil {
		return "", err
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + "/datasets"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(blob))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", newSubmissionError(resp.StatusCode, resp.Header.Get("Content-Type"), body)
	}

	return DecodeRecordID(body)
}
