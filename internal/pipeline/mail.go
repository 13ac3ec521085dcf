package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhillyerd/enmime"

	"i14yimport/internal"
	"i14yimport/internal/config"
	"i14yimport/internal/logger"
	"i14yimport/internal/sheet"
)

type Attachment struct {
	FileName string
	Content  []byte
}

// WorkbookAttachments returns the .xlsx parts of a raw RFC 822 message,
// including inline parts some clients use for attachments.
func WorkbookAttachments(raw []byte) ([]Attachment, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	parts := append([]*enmime.Part{}, env.Attachments...)
	parts = append(parts, env.Inlines...)

	out := make([]Attachment, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part.FileName)
		if !sheet.IsWorkbookName(name) || len(part.Content) == 0 {
			continue
		}
		out = append(out, Attachment{FileName: name, Content: part.Content})
	}
	return out, nil
}

type MailStore interface {
	ListEmailsByStatus(status, provider string, limit int) ([]internal.EmailRow, error)
	UpdateEmailStatus(emailID int, status string) error
	MustEmailByProviderMessageID(provider, messageID string) (internal.EmailRow, error)
}

// MailProcessor imports every workbook attached to stored messages with the
// configured catalog credentials.
type MailProcessor struct {
	store     MailStore
	importer  *Importer
	creds     Credentials
	reportDir string
	readRaw   func(path string) ([]byte, error)
}

type MailResult struct {
	EmailID  int
	Status   string
	Outcomes []internal.ImportOutcome
	Reports  []string
}

// NewMailProcessor writes per-run row reports under reportDir; an empty
// reportDir disables them.
func NewMailProcessor(store MailStore, importer *Importer, cfg config.Config, reportDir string) *MailProcessor {
	return &MailProcessor{
		store:     store,
		importer:  importer,
		creds:     CredentialsFromConfig(cfg),
		reportDir: reportDir,
		readRaw:   os.ReadFile,
	}
}

func (p *MailProcessor) ProcessByProviderMessageID(ctx context.Context, provider, messageID string) (MailResult, error) {
	email, err := p.store.MustEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return MailResult{}, err
	}
	return p.ProcessEmail(ctx, email)
}

// ProcessPending handles up to limit fetched messages of provider, or of any
// provider when it is empty. A message whose import is aborted is marked
// failed and does not stop the batch.
func (p *MailProcessor) ProcessPending(ctx context.Context, limit int, provider string) ([]MailResult, error) {
	pending, err := p.store.ListEmailsByStatus(internal.MailFetched, provider, limit)
	if err != nil {
		return nil, err
	}

	var results []MailResult
	for _, email := range pending {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := p.ProcessEmail(ctx, email)
		var fatal *FatalImportError
		if errors.As(err, &fatal) {
			logger.Error("mail id=%d: %v", email.ID, err)
			results = append(results, res)
			continue
		}
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (p *MailProcessor) ProcessEmail(ctx context.Context, email internal.EmailRow) (MailResult, error) {
	result := MailResult{EmailID: email.ID}

	raw, err := p.readRaw(email.RawRef)
	if err != nil {
		return p.finish(result, internal.MailFailed, &FatalImportError{Err: fmt.Errorf("read mail: %w", err)})
	}
	attachments, err := WorkbookAttachments(raw)
	if err != nil {
		return p.finish(result, internal.MailFailed, &FatalImportError{Err: fmt.Errorf("parse mail: %w", err)})
	}
	if len(attachments) == 0 {
		logger.Info("mail id=%d subject=%q carries no workbook, skipped", email.ID, email.Subject)
		return p.finish(result, internal.MailSkipped, nil)
	}

	// Rows may be submitted from here on; the message always ends in a
	// terminal status.
	for _, att := range attachments {
		source := fmt.Sprintf("mail:%d/%s", email.ID, att.FileName)
		outcome, err := p.importer.ImportReader(ctx, bytes.NewReader(att.Content), source, p.creds)
		if err != nil {
			return p.finish(result, internal.MailFailed, err)
		}
		result.Outcomes = append(result.Outcomes, outcome)

		if p.reportDir == "" || len(outcome.Rows) == 0 {
			continue
		}
		path := filepath.Join(p.reportDir, reportName(email, att.FileName, outcome.RunID))
		if err := ExportRowsToXLSX(outcome.Rows, path); err != nil {
			logger.Error("mail id=%d: write row report %s: %v", email.ID, path, err)
			continue
		}
		result.Reports = append(result.Reports, path)
	}

	status := internal.MailProcessed
	if len(result.Reports) > 0 {
		status = internal.MailExported
	}
	return p.finish(result, status, nil)
}

func (p *MailProcessor) finish(result MailResult, status string, cause error) (MailResult, error) {
	result.Status = status
	if err := p.store.UpdateEmailStatus(result.EmailID, status); err != nil {
		return result, err
	}
	return result, cause
}

func reportName(email internal.EmailRow, fileName, runID string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return fmt.Sprintf("%d_%s_%s.xlsx", email.ID, sanitizeFileName(base), runID)
}

func sanitizeFileName(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
