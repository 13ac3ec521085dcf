package gmail

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i14yimport/internal/config"
)

func TestDecodeBase64URLAcceptsPaddedAndRaw(t *testing.T) {
	msg := []byte("Subject: Datenexport\r\n\r\n?>")

	got, err := decodeBase64URL(base64.RawURLEncoding.EncodeToString(msg))
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	got, err = decodeBase64URL(base64.URLEncoding.EncodeToString(msg))
	require.NoError(t, err)
	assert.Equal(t, msg, got)

	_, err = decodeBase64URL("***")
	assert.Error(t, err)
}

func TestReceivedAt(t *testing.T) {
	fallback := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-02-29T13:04:05Z", receivedAt("Thu, 29 Feb 2024 14:04:05 +0100", fallback))
	assert.Equal(t, "2024-03-01T09:00:00Z", receivedAt("sometime last week", fallback))
	assert.Equal(t, "2024-03-01T09:00:00Z", receivedAt("", fallback))
}

func TestNewConnectorRequiresCredentials(t *testing.T) {
	_, err := NewConnector(config.Config{GmailClientID: "id"})
	assert.EqualError(t, err, "missing required env var: GMAIL_CLIENT_SECRET")
}
