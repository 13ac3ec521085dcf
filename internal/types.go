package internal

type LangText map[string]string

type CodeRef struct {
	Code string `json:"code"`
}

type URIRef struct {
	URI   string   `json:"uri"`
	Label LangText `json:"label,omitempty"`
}

type Publisher struct {
	Identifier string `json:"identifier"`
}

type ContactPoint struct {
	Kind         string   `json:"kind"`
	Fn           LangText `json:"fn,omitempty"`
	HasAddress   LangText `json:"hasAddress,omitempty"`
	HasEmail     string   `json:"hasEmail,omitempty"`
	HasTelephone string   `json:"hasTelephone,omitempty"`
}

type TemporalCoverage struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type Distribution struct {
	Title       LangText `json:"title"`
	Description LangText `json:"description"`
	AccessURL   URIRef   `json:"accessUrl"`
	DownloadURL URIRef   `json:"downloadUrl"`
	License     *CodeRef `json:"license,omitempty"`
}

// Dataset is the body of one catalog dataset record. Issued and Modified are
// always serialized, as null when unknown.
type Dataset struct {
	Title            LangText           `json:"title"`
	Description      LangText           `json:"description"`
	Identifiers      []string           `json:"identifiers"`
	Publisher        Publisher          `json:"publisher"`
	AccessRights     CodeRef            `json:"accessRights"`
	Issued           *string            `json:"issued"`
	Modified         *string            `json:"modified"`
	Keywords         []LangText         `json:"keywords,omitempty"`
	ContactPoints    []ContactPoint     `json:"contactPoints,omitempty"`
	Themes           []CodeRef          `json:"themes,omitempty"`
	Spatial          []string           `json:"spatial,omitempty"`
	TemporalCoverage []TemporalCoverage `json:"temporalCoverage,omitempty"`
	Distributions    []Distribution     `json:"distributions,omitempty"`
}

type DatasetPayload struct {
	Data Dataset `json:"data"`
}

type RowStatus string

const (
	RowSkipped   RowStatus = "SKIPPED"
	RowSucceeded RowStatus = "SUCCEEDED"
	RowFailed    RowStatus = "FAILED"
)

type ImportStatus string

const (
	ImportCompleted           ImportStatus = "completed"
	ImportCompletedWithErrors ImportStatus = "completed_with_errors"
	ImportError               ImportStatus = "error"
	ImportEmpty               ImportStatus = "empty"
)

type CreatedDataset struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Identifier string `json:"identifier"`
}

type RowResult struct {
	RowNumber  int       `json:"row"`
	Identifier string    `json:"identifier,omitempty"`
	Title      string    `json:"title,omitempty"`
	Status     RowStatus `json:"status"`
	DatasetID  string    `json:"datasetId,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type ImportOutcome struct {
	RunID              string           `json:"run_id"`
	SuccessfulDatasets []CreatedDataset `json:"successful_datasets"`
	SuccessCount       int              `json:"success_count"`
	ErrorCount         int              `json:"error_count"`
	TotalCount         int              `json:"total_count"`
	Message            string           `json:"message,omitempty"`
	Rows               []RowResult      `json:"rows,omitempty"`
	Warnings           []string         `json:"warnings,omitempty"`
}

func (o ImportOutcome) Status() ImportStatus {
	switch {
	case o.SuccessCount == 0 && o.ErrorCount == 0:
		return ImportEmpty
	case o.ErrorCount > 0 && o.SuccessCount > 0:
		return ImportCompletedWithErrors
	case o.ErrorCount > 0:
		return ImportError
	default:
		return ImportCompleted
	}
}

type ImportRun struct {
	RunID          string
	Source         string
	OrganizationID string
	Publisher      string
	Status         string
	SuccessCount   int
	ErrorCount     int
	TotalCount     int
	Message        string
	StartedAt      string
	FinishedAt     string
}

// Mail intake statuses, in the order a message moves through them.
const (
	MailFetched   = "fetched"
	MailProcessed = "processed"
	MailSkipped   = "skipped"
	MailFailed    = "failed"
	MailExported  = "exported"
)

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
