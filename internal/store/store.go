// Package store persists pipeline run outcomes and flagged records to
// PostgreSQL for audit. The store is a downstream collaborator: it records
// what the pipeline produced and never feeds back into processing.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dealerops/invstage/internal/dataset"
	"github.com/dealerops/invstage/internal/partition"
	"github.com/dealerops/invstage/internal/pipeline"
	"github.com/dealerops/invstage/internal/upload"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id UUID PRIMARY KEY,
	file_name TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	validation_passed BOOLEAN NOT NULL,
	records_processed INTEGER NOT NULL DEFAULT 0,
	records_with_issues INTEGER NOT NULL DEFAULT 0,
	clean_count INTEGER NOT NULL DEFAULT 0,
	flagged_count INTEGER NOT NULL DEFAULT 0,
	records_uploaded INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	issues JSONB,
	report TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS flagged_records (
	run_id UUID NOT NULL REFERENCES pipeline_runs(id) ON DELETE CASCADE,
	row_index INTEGER NOT NULL,
	reasons TEXT NOT NULL,
	record JSONB NOT NULL,
	PRIMARY KEY (run_id, row_index)
);

CREATE INDEX IF NOT EXISTS idx_pipeline_runs_created_at
	ON pipeline_runs (created_at DESC);
`

// RunRecord is one persisted pipeline run.
type RunRecord struct {
	ID                string    `json:"id"`
	FileName          string    `json:"fileName"`
	Success           bool      `json:"success"`
	ValidationPassed  bool      `json:"validationPassed"`
	RecordsProcessed  int       `json:"recordsProcessed"`
	RecordsWithIssues int       `json:"recordsWithIssues"`
	CleanCount        int       `json:"cleanCount"`
	FlaggedCount      int       `json:"flaggedCount"`
	RecordsUploaded   int       `json:"recordsUploaded"`
	ErrorMessage      string    `json:"errorMessage,omitempty"`
	Report            string    `json:"report,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Store writes run outcomes to PostgreSQL.
type Store struct {
	db DBTX
}

// New creates a Store over the given connection or pool.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the staging tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure staging schema: %w", err)
	}
	return nil
}

// SaveRun persists a completed (or failed) run outcome together with its
// flagged records.
func (s *Store) SaveRun(ctx context.Context, runID, fileName string, o pipeline.Outcome, u upload.Result) error {
	issuesJSON, err := json.Marshal(o.Issues)
	if err != nil {
		return fmt.Errorf("marshal issue report: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO pipeline_runs (
			id, file_name, success, validation_passed,
			records_processed, records_with_issues,
			clean_count, flagged_count, records_uploaded,
			error_message, issues, report
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		runID, fileName, o.Success, o.ValidationPassed,
		o.RecordsProcessed, o.RecordsWithIssues,
		o.CleanCount, o.FlaggedCount, u.RecordsUploaded,
		textOrNull(o.ErrorMessage), issuesJSON, textOrNull(o.Report),
	)
	if err != nil {
		return fmt.Errorf("insert pipeline run: %w", err)
	}

	return s.saveFlagged(ctx, runID, o.Flagged, o.Annotations)
}

// saveFlagged inserts the flagged partition. Flagged rows carry their
// original annotation reasons; the record itself is stored as JSON with
// null for absent values.
func (s *Store) saveFlagged(ctx context.Context, runID string, flagged dataset.Dataset, anns []partition.Annotation) error {
	reasons := make([]string, 0, flagged.Len())
	for _, ann := range anns {
		if ann.HasIssues {
			reasons = append(reasons, ann.Reasons)
		}
	}

	for i, rec := range flagged.Rows {
		recJSON, err := json.Marshal(RecordJSON(flagged.Columns, rec))
		if err != nil {
			return fmt.Errorf("marshal flagged record %d: %w", i, err)
		}
		reason := ""
		if i < len(reasons) {
			reason = reasons[i]
		}
		if _, err := s.db.Exec(ctx, `
			INSERT INTO flagged_records (run_id, row_index, reasons, record)
			VALUES ($1, $2, $3, $4)`,
			runID, i, reason, recJSON,
		); err != nil {
			return fmt.Errorf("insert flagged record %d: %w", i, err)
		}
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, file_name, success, validation_passed,
		       records_processed, records_with_issues,
		       clean_count, flagged_count, records_uploaded,
		       error_message, report, created_at
		FROM pipeline_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pipeline runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, file_name, success, validation_passed,
		       records_processed, records_with_issues,
		       clean_count, flagged_count, records_uploaded,
		       error_message, report, created_at
		FROM pipeline_runs
		WHERE id = $1`, runID)
	return scanRun(row)
}

func scanRun(row pgx.Row) (RunRecord, error) {
	var (
		run          RunRecord
		errorMessage pgtype.Text
		report       pgtype.Text
	)
	err := row.Scan(
		&run.ID, &run.FileName, &run.Success, &run.ValidationPassed,
		&run.RecordsProcessed, &run.RecordsWithIssues,
		&run.CleanCount, &run.FlaggedCount, &run.RecordsUploaded,
		&errorMessage, &report, &run.CreatedAt,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("scan pipeline run: %w", err)
	}
	run.ErrorMessage = errorMessage.String
	run.Report = report.String
	return run, nil
}

// textOrNull maps an empty string to SQL NULL.
func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// RecordJSON converts a record to a JSON-friendly map: integers and
// floats stay numeric, text stays a string, null becomes JSON null.
func RecordJSON(columns []string, rec dataset.Record) map[string]any {
	out := make(map[string]any, len(columns))
	for _, col := range columns {
		v := rec[col]
		switch v.Kind {
		case dataset.KindInt:
			out[col] = v.Int64
		case dataset.KindFloat:
			out[col] = v.F64
		case dataset.KindText:
			out[col] = v.Str
		default:
			out[col] = nil
		}
	}
	return out
}
