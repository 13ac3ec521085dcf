package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"

	"i14yimport/internal"
	"i14yimport/internal/config"
	"i14yimport/internal/logger"
	"i14yimport/internal/sheet"
)

type Connector struct {
	host     string
	port     int
	secure   bool
	user     string
	password string
	markSeen bool
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if err := cfg.Require("IMAP_HOST", cfg.IMAPHost); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_USER", cfg.IMAPUser); err != nil {
		return nil, err
	}
	if err := cfg.Require("IMAP_PASSWORD", cfg.IMAPPassword); err != nil {
		return nil, err
	}

	return &Connector{
		host:     cfg.IMAPHost,
		port:     cfg.IMAPPort,
		secure:   cfg.IMAPSecure,
		user:     cfg.IMAPUser,
		password: cfg.IMAPPassword,
		markSeen: cfg.IMAPMarkSeen,
	}, nil
}

// spreadsheetMIME is the content type of .xlsx parts sent without a file name.
const spreadsheetMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FetchInbox returns up to max unseen messages that carry an .xlsx workbook,
// newest last. Bodies are read with BODY.PEEK[], so other mail keeps its
// unseen flag; workbook mail is flagged seen only when markSeen is set. The
// IMAP client has no context support, so ctx is checked between round trips.
func (c *Connector) FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer client.Logout()

	if err := client.Login(c.user, c.password); err != nil {
		return nil, err
	}
	if _, err := client.Select(label, !c.markSeen); err != nil {
		return nil, err
	}

	ids, err := client.Search(workbookCriteria())
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	candidates, err := scanStructures(client, ids)
	if err != nil {
		return nil, err
	}
	if max > 0 && len(candidates) > max {
		candidates = candidates[len(candidates)-max:]
	}
	logger.Debug("imap %s: %d of %d unseen messages in %s carry a workbook", c.host, len(candidates), len(ids), label)
	if len(candidates) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bodies, err := fetchBodies(client, candidates)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]internal.FetchedMailMessage, 0, len(candidates))
	seen := new(imap.SeqSet)
	for _, msg := range candidates {
		raw, ok := bodies[msg.SeqNum]
		if !ok {
			continue
		}
		out = append(out, toFetched(msg, raw, now))
		seen.AddNum(msg.SeqNum)
	}

	if c.markSeen && len(out) > 0 {
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := client.Store(seen, item, []interface{}{imap.SeenFlag}, nil); err != nil {
			return nil, err
		}
	}
	return out, ctx.Err()
}

func (c *Connector) dial() (*imapclient.Client, error) {
	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	if c.secure {
		return imapclient.DialTLS(addr, &tls.Config{ServerName: c.host})
	}
	return imapclient.Dial(addr)
}

// workbookCriteria matches unseen multipart mail; attachments are only
// possible in multipart bodies.
func workbookCriteria() *imap.SearchCriteria {
	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	criteria.Header = textproto.MIMEHeader{"Content-Type": {"multipart"}}
	return criteria
}

// scanStructures reads envelopes and body structures and keeps the messages
// with a workbook part, in mailbox order.
func scanStructures(client *imapclient.Client, ids []uint32) ([]*imap.Message, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, imap.FetchUid, imap.FetchBodyStructure}
	messages := make(chan *imap.Message, len(ids))
	done := make(chan error, 1)
	go func() { done <- client.Fetch(seqset, items, messages) }()

	var out []*imap.Message
	for msg := range messages {
		if msg != nil && carriesWorkbook(msg.BodyStructure) {
			out = append(out, msg)
		}
	}
	if err := <-done; err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeqNum < out[j].SeqNum })
	return out, nil
}

func fetchBodies(client *imapclient.Client, msgs []*imap.Message) (map[uint32][]byte, error) {
	seqset := new(imap.SeqSet)
	for _, m := range msgs {
		seqset.AddNum(m.SeqNum)
	}

	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, len(msgs))
	done := make(chan error, 1)
	go func() { done <- client.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, messages) }()

	out := make(map[uint32][]byte, len(msgs))
	var readErr error
	for msg := range messages {
		if msg == nil || readErr != nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			readErr = err
			continue
		}
		out[msg.SeqNum] = raw
	}
	if err := <-done; err != nil {
		return nil, err
	}
	return out, readErr
}

// carriesWorkbook reports whether any part of the structure is an .xlsx file.
func carriesWorkbook(bs *imap.BodyStructure) bool {
	if bs == nil {
		return false
	}
	if sheet.IsWorkbookName(partFileName(bs)) {
		return true
	}
	if strings.EqualFold(bs.MIMEType+"/"+bs.MIMESubType, spreadsheetMIME) {
		return true
	}
	for _, part := range bs.Parts {
		if carriesWorkbook(part) {
			return true
		}
	}
	return false
}

func partFileName(bs *imap.BodyStructure) string {
	name := bs.DispositionParams["filename"]
	if name == "" {
		name = bs.Params["name"]
	}
	if decoded, err := new(mime.WordDecoder).DecodeHeader(name); err == nil {
		name = decoded
	}
	return strings.TrimSpace(name)
}

func toFetched(msg *imap.Message, raw []byte, now time.Time) internal.FetchedMailMessage {
	out := internal.FetchedMailMessage{
		Provider:   "imap",
		MessageID:  fmt.Sprintf("imap-%d", msg.Uid),
		ReceivedAt: now.UTC().Format(time.RFC3339),
		Raw:        raw,
	}
	if msg.Envelope != nil {
		if msg.Envelope.MessageId != "" {
			out.MessageID = msg.Envelope.MessageId
		}
		out.Subject = msg.Envelope.Subject
		out.From = formatAddresses(msg.Envelope.From)
	}
	if !msg.InternalDate.IsZero() {
		out.ReceivedAt = msg.InternalDate.UTC().Format(time.RFC3339)
	}
	return out
}

func formatAddresses(addrs []*imap.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		email := strings.Trim(strings.Join([]string{a.MailboxName, a.HostName}, "@"), "@")
		if a.PersonalName != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", a.PersonalName, email))
		} else {
			parts = append(parts, email)
		}
	}
	return strings.Join(parts, ", ")
}
