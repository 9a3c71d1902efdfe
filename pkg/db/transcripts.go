package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"earnings-transcripts/pkg/domain"
)

// TranscriptTable is the relational replica of the Mongo archive.
const TranscriptTable = "transcript"

const transcriptDDL = `
CREATE TABLE IF NOT EXISTS transcript (
  key TEXT PRIMARY KEY,
  ticker TEXT NOT NULL DEFAULT '',
  company_name TEXT NOT NULL DEFAULT '',
  year INTEGER NOT NULL DEFAULT 0,
  quarter INTEGER NOT NULL DEFAULT 0,
  call_date TEXT NOT NULL DEFAULT '',
  transcript_text TEXT NOT NULL DEFAULT '',
  speakers TEXT[] NOT NULL DEFAULT '{}',
  q_and_a_section TEXT NOT NULL DEFAULT '',
  source_name TEXT NOT NULL DEFAULT '',
  source_url TEXT NOT NULL DEFAULT '',
  retrieved_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// TranscriptRow is one row of the transcript table. The json tags double as
// the PostgREST column names.
type TranscriptRow struct {
	Key            string    `json:"key"`
	Ticker         string    `json:"ticker"`
	CompanyName    string    `json:"company_name"`
	Year           int       `json:"year"`
	Quarter        int       `json:"quarter"`
	CallDate       string    `json:"call_date"`
	TranscriptText string    `json:"transcript_text"`
	Speakers       []string  `json:"speakers"`
	QASection      string    `json:"q_and_a_section"`
	SourceName     string    `json:"source_name"`
	SourceURL      string    `json:"source_url"`
	RetrievedAt    time.Time `json:"retrieved_at"`
}

// NewTranscriptRow flattens rec into a row keyed by rec.Key().
func NewTranscriptRow(rec *domain.TranscriptRecord) TranscriptRow {
	speakers := rec.Speakers
	if speakers == nil {
		speakers = []string{}
	}
	return TranscriptRow{
		Key:            rec.Key(),
		Ticker:         rec.Ticker,
		CompanyName:    rec.CompanyName,
		Year:           rec.Year,
		Quarter:        rec.Quarter,
		CallDate:       rec.CallDate,
		TranscriptText: rec.TranscriptText,
		Speakers:       speakers,
		QASection:      rec.QASection,
		SourceName:     rec.SourceName,
		SourceURL:      rec.SourceURL,
		RetrievedAt:    rec.RetrievedAt,
	}
}

// EnsureTranscriptSchema creates the transcript table if it is missing.
func EnsureTranscriptSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("postgres DB not connected")
	}
	if _, err := db.ExecContext(ctx, transcriptDDL); err != nil {
		return fmt.Errorf("create transcript table: %w", err)
	}
	return nil
}

// ExistingKeys returns the subset of keys already present in the table.
func ExistingKeys(ctx context.Context, db *sql.DB, keys []string) (map[string]bool, error) {
	set := make(map[string]bool)
	if len(keys) == 0 {
		return set, nil
	}

	query, args := KeyInQuery(keys)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		set[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return set, nil
}

// KeyInQuery builds "SELECT key ... WHERE key IN ($1, ...)" for keys.
func KeyInQuery(keys []string) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT key FROM transcript WHERE key IN (")
	args := make([]any, len(keys))
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", i+1)
		args[i] = k
	}
	b.WriteString(")")
	return b.String(), args
}

// InsertTranscripts inserts rows in one transaction; existing keys are left alone.
func InsertTranscripts(ctx context.Context, db *sql.DB, rows []TranscriptRow) error {
	const insertQuery = `
INSERT INTO transcript (key, ticker, company_name, year, quarter, call_date,
  transcript_text, speakers, q_and_a_section, source_name, source_url, retrieved_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (key) DO NOTHING`

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Key, r.Ticker, r.CompanyName, r.Year, r.Quarter, r.CallDate,
			r.TranscriptText, r.Speakers, r.QASection, r.SourceName, r.SourceURL, r.RetrievedAt); err != nil {
			return fmt.Errorf("insert transcript key=%q: %w", r.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
