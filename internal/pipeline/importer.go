package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"i14yimport/internal"
	"i14yimport/internal/catalog"
	"i14yimport/internal/config"
	"i14yimport/internal/logger"
	"i14yimport/internal/sheet"
	"i14yimport/internal/submission"
	"i14yimport/internal/util"
)

const NoValidRowsMessage = "No valid data rows found in the Excel file"

var (
	ErrMissingAPIToken  = errors.New("no API token provided")
	ErrMissingPublisher = errors.New("no publisher identifier provided")
)

// FatalImportError aborts a whole import before any row is submitted.
type FatalImportError struct {
	Err error
}

func (e *FatalImportError) Error() string {
	return "import aborted: " + e.Err.Error()
}

func (e *FatalImportError) Unwrap() error {
	return e.Err
}

type Credentials struct {
	APIToken            string
	OrganizationID      string
	PublisherIdentifier string
}

type Submitter interface {
	Submit(ctx context.Context, payload internal.DatasetPayload, apiToken string) (string, error)
}

// RunResolver is a CodeResolver whose vocabularies live for one import run.
type RunResolver interface {
	CodeResolver
	Warnings() []string
}

type Recorder interface {
	SaveImport(run internal.ImportRun, outcome internal.ImportOutcome) error
}

// Importer runs spreadsheet imports. Rows are submitted one after another; a
// failing row is counted and never stops the batch.
type Importer struct {
	submitter   Submitter
	newResolver func() RunResolver
	recorder    Recorder
	now         func() time.Time
}

func NewImporter(cfg config.Config, recorder Recorder) *Importer {
	fetcher := catalog.NewClient(cfg)
	return &Importer{
		submitter:   submission.NewClient(cfg),
		newResolver: func() RunResolver { return catalog.NewResolver(fetcher, cfg) },
		recorder:    recorder,
		now:         time.Now,
	}
}

func (i *Importer) ImportFile(ctx context.Context, path string, creds Credentials) (internal.ImportOutcome, error) {
	if err := creds.validate(); err != nil {
		return internal.ImportOutcome{}, err
	}
	table, err := sheet.ReadFile(path)
	if err != nil {
		return internal.ImportOutcome{}, &FatalImportError{Err: fmt.Errorf("load %s: %w", path, err)}
	}
	return i.ImportTable(ctx, table, path, creds)
}

func (i *Importer) ImportReader(ctx context.Context, r io.Reader, source string, creds Credentials) (internal.ImportOutcome, error) {
	if err := creds.validate(); err != nil {
		return internal.ImportOutcome{}, err
	}
	table, err := sheet.Read(r)
	if err != nil {
		return internal.ImportOutcome{}, &FatalImportError{Err: fmt.Errorf("load %s: %w", source, err)}
	}
	return i.ImportTable(ctx, table, source, creds)
}

func (i *Importer) ImportTable(ctx context.Context, table sheet.Table, source string, creds Credentials) (internal.ImportOutcome, error) {
	if err := creds.validate(); err != nil {
		return internal.ImportOutcome{}, err
	}

	startedAt := i.now().UTC()
	outcome := internal.ImportOutcome{
		RunID:              uuid.NewString(),
		SuccessfulDatasets: []internal.CreatedDataset{},
	}

	outcome.Warnings = missingColumnWarnings(table)
	records := EligibleRecords(table)
	logger.Info("loaded %d valid entries from %s", len(records), source)

	if len(records) == 0 {
		logger.Warn("%s", NoValidRowsMessage)
		outcome.Message = NoValidRowsMessage
		i.record(startedAt, source, creds, outcome)
		return outcome, nil
	}

	resolver := i.newResolver()
	for _, rec := range records {
		result := i.processRow(ctx, rec, creds, resolver)
		outcome.Rows = append(outcome.Rows, result)
		switch result.Status {
		case internal.RowSucceeded:
			outcome.SuccessCount++
			outcome.SuccessfulDatasets = append(outcome.SuccessfulDatasets, internal.CreatedDataset{
				ID:         result.DatasetID,
				Title:      result.Title,
				Identifier: result.Identifier,
			})
		case internal.RowFailed:
			outcome.ErrorCount++
		}
	}

	outcome.TotalCount = outcome.SuccessCount + outcome.ErrorCount
	outcome.Warnings = append(outcome.Warnings, resolver.Warnings()...)
	outcome.Message = fmt.Sprintf("Import abgeschlossen: %d erfolgreich, %d fehlgeschlagen", outcome.SuccessCount, outcome.ErrorCount)

	logger.Info("import summary run=%s total=%d successful=%d failed=%d", outcome.RunID, outcome.TotalCount, outcome.SuccessCount, outcome.ErrorCount)
	i.record(startedAt, source, creds, outcome)
	return outcome, nil
}

func (i *Importer) processRow(ctx context.Context, rec sheet.Record, creds Credentials, codes RunResolver) internal.RowResult {
	row := Normalize(rec)
	result := internal.RowResult{
		RowNumber:  rec.RowNumber,
		Identifier: util.Deref(row.Identifier),
		Title:      util.Deref(row.Title),
	}

	if row.Title == nil {
		result.Status = internal.RowSkipped
		return result
	}

	label := util.FirstNonEmpty(result.Identifier, fmt.Sprintf("Dataset_%d", rec.RowNumber))
	logger.Info("processing dataset row=%d: %s", rec.RowNumber, label)

	payload, err := BuildPayload(ctx, row, creds.PublisherIdentifier, codes)
	if err == nil {
		result.DatasetID, err = i.submitter.Submit(ctx, payload, creds.APIToken)
	}
	if err != nil {
		result.Status = internal.RowFailed
		result.DatasetID = ""
		result.Error = util.RedactSecrets(err.Error())
		logger.Warn("row=%d %s failed: %s", rec.RowNumber, label, result.Error)
		return result
	}

	result.Status = internal.RowSucceeded
	logger.Info("row=%d %s created dataset id=%s", rec.RowNumber, label, result.DatasetID)
	return result
}

func (i *Importer) record(startedAt time.Time, source string, creds Credentials, outcome internal.ImportOutcome) {
	if i.recorder == nil {
		return
	}
	run := internal.ImportRun{
		RunID:          outcome.RunID,
		Source:         source,
		OrganizationID: creds.OrganizationID,
		Publisher:      creds.PublisherIdentifier,
		Status:         string(outcome.Status()),
		SuccessCount:   outcome.SuccessCount,
		ErrorCount:     outcome.ErrorCount,
		TotalCount:     outcome.TotalCount,
		Message:        outcome.Message,
		StartedAt:      startedAt.Format(time.RFC3339),
		FinishedAt:     i.now().UTC().Format(time.RFC3339),
	}
	if err := i.recorder.SaveImport(run, outcome); err != nil {
		logger.Error("persist import run=%s: %v", outcome.RunID, err)
	}
}

func (c Credentials) validate() error {
	if strings.TrimSpace(c.APIToken) == "" {
		return &FatalImportError{Err: ErrMissingAPIToken}
	}
	if strings.TrimSpace(c.PublisherIdentifier) == "" {
		return &FatalImportError{Err: ErrMissingPublisher}
	}
	return nil
}

// EligibleRecords drops rows with neither title nor description, and rows that
// repeat the header text in the title, description or identificator column.
func EligibleRecords(table sheet.Table) []sheet.Record {
	out := make([]sheet.Record, 0, len(table.Records))
	for _, rec := range table.Records {
		if rec.Blank(ColTitle) && rec.Blank(ColDescription) {
			continue
		}
		if repeatsHeader(rec) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// missingColumnWarnings names the required template columns the sheet lacks.
func missingColumnWarnings(table sheet.Table) []string {
	var out []string
	for _, col := range []string{ColTitle, ColDescription, ColIdentifier} {
		if !table.HasColumn(col) {
			msg := fmt.Sprintf("sheet %q has no %s column", table.Sheet, col)
			logger.Warn("%s", msg)
			out = append(out, msg)
		}
	}
	return out
}

func repeatsHeader(rec sheet.Record) bool {
	for _, col := range []string{ColTitle, ColDescription, ColIdentifier} {
		if rec.String(col) == col {
			return true
		}
	}
	return false
}
