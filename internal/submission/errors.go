package submission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"i14yimport/internal/util"
)

var (
	ErrUnquotedRecordID = errors.New("response body is not a quoted record id")
	ErrEmptyRecordID    = errors.New("response body carries an empty record id")
)

const maxSnippet = 300

// SubmissionError is returned when the catalog answers with a status other
// than 200 or 201. Body is a redacted, shortened copy of the response.
type SubmissionError struct {
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("API submission failed: %d", e.StatusCode)
	}
	return fmt.Sprintf("API submission failed: %d - %s", e.StatusCode, e.Body)
}

func newSubmissionError(status int, contentType string, body []byte) *SubmissionError {
	return &SubmissionError{StatusCode: status, Body: snippet(contentType, body)}
}

// snippet reduces gateway HTML pages to their visible text before shortening.
func snippet(contentType string, body []byte) string {
	text := string(body)
	if strings.Contains(strings.ToLower(contentType), "html") || looksLikeHTML(body) {
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
			doc.Find("script, style").Remove()
			parts := []string{}
			if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
				parts = append(parts, title)
			}
			if h := strings.TrimSpace(doc.Find("h1").First().Text()); h != "" && (len(parts) == 0 || parts[0] != h) {
				parts = append(parts, h)
			}
			if len(parts) == 0 {
				parts = append(parts, strings.Join(strings.Fields(doc.Find("body").Text()), " "))
			}
			text = strings.Join(parts, ": ")
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	return util.Truncate(util.RedactSecrets(text), maxSnippet)
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(body[:min(len(body), 64)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// DecodeRecordID reads the created dataset id, which the API returns as a
// JSON string literal.
func DecodeRecordID(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) < 2 || trimmed[0] != '"' || trimmed[len(trimmed)-1] != '"' {
		return "", fmt.Errorf("%w: %s", ErrUnquotedRecordID, util.Truncate(string(trimmed), 80))
	}
	var id string
	if err := json.Unmarshal(trimmed, &id); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnquotedRecordID, err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrEmptyRecordID
	}
	return id, nil
}
