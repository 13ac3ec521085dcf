package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"i14yimport/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS imports (
  runId TEXT PRIMARY KEY,
  source TEXT NOT NULL,
  organizationId TEXT,
  publisher TEXT NOT NULL,
  status TEXT NOT NULL,
  successCount INTEGER NOT NULL,
  errorCount INTEGER NOT NULL,
  totalCount INTEGER NOT NULL,
  message TEXT,
  warningsJson TEXT NOT NULL,
  startedAt TEXT NOT NULL,
  finishedAt TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_imports_startedAt ON imports(startedAt);

CREATE TABLE IF NOT EXISTS import_rows (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  rowNo INTEGER NOT NULL,
  identifier TEXT,
  title TEXT,
  status TEXT NOT NULL,
  datasetId TEXT,
  error TEXT,
  UNIQUE(runId, rowNo),
  FOREIGN KEY(runId) REFERENCES imports(runId)
);

CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// SaveImport stores the run summary and its per-row results in one
// transaction.
func (d *DB) SaveImport(run internal.ImportRun, outcome internal.ImportOutcome) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	warnings := outcome.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, _ := json.Marshal(warnings)

	if _, err := tx.Exec(`
INSERT INTO imports (
  runId, source, organizationId, publisher, status,
  successCount, errorCount, totalCount, message, warningsJson, startedAt, finishedAt
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(runId) DO UPDATE SET
  status=excluded.status,
  successCount=excluded.successCount,
  errorCount=excluded.errorCount,
  totalCount=excluded.totalCount,
  message=excluded.message,
  warningsJson=excluded.warningsJson,
  finishedAt=excluded.finishedAt
`, run.RunID, run.Source, run.OrganizationID, run.Publisher, run.Status,
		run.SuccessCount, run.ErrorCount, run.TotalCount, run.Message, string(warningsJSON), run.StartedAt, run.FinishedAt,
	); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM import_rows WHERE runId = ?`, run.RunID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO import_rows (runId, rowNo, identifier, title, status, datasetId, error)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range outcome.Rows {
		if _, err := stmt.Exec(run.RunID, r.RowNumber, r.Identifier, r.Title, string(r.Status), r.DatasetID, r.Error); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListImports(limit int) ([]internal.ImportRun, error) {
	rows, err := d.conn.Query(`
SELECT runId, source, organizationId, publisher, status,
       successCount, errorCount, totalCount, message, startedAt, finishedAt
FROM imports ORDER BY startedAt DESC, createdAt DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ImportRun
	for rows.Next() {
		run, err := scanImport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (d *DB) GetImport(runID string) (*internal.ImportRun, error) {
	row := d.conn.QueryRow(`
SELECT runId, source, organizationId, publisher, status,
       successCount, errorCount, totalCount, message, startedAt, finishedAt
FROM imports WHERE runId = ?
`, runID)
	run, err := scanImport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (d *DB) GetImportWarnings(runID string) ([]string, error) {
	var raw string
	err := d.conn.QueryRow(`SELECT warningsJson FROM imports WHERE runId = ?`, runID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	_ = json.Unmarshal([]byte(raw), &out)
	return out, nil
}

func (d *DB) GetImportRows(runID string) ([]internal.RowResult, error) {
	rows, err := d.conn.Query(`
SELECT rowNo, identifier, title, status, datasetId, error
FROM import_rows WHERE runId = ?
ORDER BY rowNo ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RowResult
	for rows.Next() {
		var r internal.RowResult
		var status string
		if err := rows.Scan(&r.RowNumber, &r.Identifier, &r.Title, &status, &r.DatasetID, &r.Error); err != nil {
			return nil, err
		}
		r.Status = internal.RowStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) MustImport(runID string) (internal.ImportRun, error) {
	run, err := d.GetImport(runID)
	if err != nil {
		return internal.ImportRun{}, err
	}
	if run == nil {
		return internal.ImportRun{}, fmt.Errorf("import not found: runId=%s", runID)
	}
	return *run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImport(s scanner) (internal.ImportRun, error) {
	var run internal.ImportRun
	var org, message sql.NullString
	err := s.Scan(
		&run.RunID, &run.Source, &org, &run.Publisher, &run.Status,
		&run.SuccessCount, &run.ErrorCount, &run.TotalCount, &message, &run.StartedAt, &run.FinishedAt,
	)
	run.OrganizationID = org.String
	run.Message = message.String
	return run, err
}

func (d *DB) UpsertEmail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.EmailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.EmailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

const emailColumns = `id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef`

func scanEmail(s scanner) (internal.EmailRow, error) {
	var row internal.EmailRow
	var subject, sender, receivedAt sql.NullString
	err := s.Scan(&row.ID, &row.Provider, &row.MessageID, &subject, &sender, &receivedAt, &row.Hash, &row.Status, &row.RawRef)
	row.Subject = subject.String
	row.Sender = sender.String
	row.ReceivedAt = receivedAt.String
	return row, err
}

func (d *DB) GetEmailByProviderMessageID(provider, messageID string) (*internal.EmailRow, error) {
	row, err := scanEmail(d.conn.QueryRow(`SELECT `+emailColumns+` FROM emails WHERE provider = ? AND messageId = ?`, provider, messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetEmailByID(id int) (*internal.EmailRow, error) {
	row, err := scanEmail(d.conn.QueryRow(`SELECT `+emailColumns+` FROM emails WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListEmailsByStatus returns the oldest messages in status. An empty provider
// matches every provider.
func (d *DB) ListEmailsByStatus(status, provider string, limit int) ([]internal.EmailRow, error) {
	rows, err := d.conn.Query(`SELECT `+emailColumns+` FROM emails
WHERE status = ? AND (? = '' OR provider = ?)
ORDER BY receivedAt ASC, id ASC LIMIT ?`, status, provider, provider, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EmailRow
	for rows.Next() {
		row, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateEmailStatus(emailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, emailID)
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) MustEmailByProviderMessageID(provider, messageID string) (internal.EmailRow, error) {
	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, fmt.Errorf("email not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}
