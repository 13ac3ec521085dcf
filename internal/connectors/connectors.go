package connectors

import (
	"context"
	"fmt"
	"strings"

	"i14yimport/internal"
	"i14yimport/internal/config"
	gmailconnector "i14yimport/internal/connectors/gmail"
	imapconnector "i14yimport/internal/connectors/imap"
)

// MailConnector pulls raw messages that may carry dataset workbooks.
type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}

func New(cfg config.Config, provider string) (MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", provider)
	}
}
