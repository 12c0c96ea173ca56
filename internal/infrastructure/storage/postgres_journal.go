package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"FinkBridge/internal/domain"
	"FinkBridge/internal/ports"
)

const journalTable = "submission_journal"

const journalSchema = `CREATE TABLE IF NOT EXISTS submission_journal (
    id           UUID PRIMARY KEY,
    object_id    TEXT NOT NULL,
    status       INTEGER NOT NULL,
    steps        TEXT[] NOT NULL,
    submitted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS submission_journal_object_idx
    ON submission_journal (object_id, submitted_at DESC)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresJournal persists submission reports into Postgres.
type PostgresJournal struct {
	db *sql.DB
}

var _ ports.Journal = (*PostgresJournal)(nil)

// Open connects to dsn using the lib/pq driver.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresJournal wires a sql.DB implementation. A nil db makes every call a no-op.
func NewPostgresJournal(db *sql.DB) *PostgresJournal {
	return &PostgresJournal{db: db}
}

// EnsureSchema creates the journal table when missing.
func (j *PostgresJournal) EnsureSchema(ctx context.Context) error {
	if j.db == nil {
		return nil
	}
	if _, err := j.db.ExecContext(ctx, journalSchema); err != nil {
		return fmt.Errorf("create journal schema: %w", err)
	}
	return nil
}

// Record stores one report; recording the same report twice is a no-op.
func (j *PostgresJournal) Record(ctx context.Context, report domain.SubmissionReport) error {
	if j.db == nil {
		return nil
	}

	query, args, err := insertQuery(report)
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := j.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert report %s: %w", report.ID, err)
	}
	return nil
}

// History returns the newest entries first; an empty objectID lists every object.
func (j *PostgresJournal) History(ctx context.Context, objectID string, limit uint64) ([]ports.JournalEntry, error) {
	if j.db == nil {
		return nil, nil
	}

	query, args, err := historyQuery(objectID, limit)
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	var entries []ports.JournalEntry
	for rows.Next() {
		var entry ports.JournalEntry
		if err := rows.Scan(&entry.ID, &entry.ObjectID, &entry.Status, pq.Array(&entry.Steps), &entry.SubmittedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return entries, nil
}

func insertQuery(report domain.SubmissionReport) (string, []any, error) {
	return psql.Insert(journalTable).
		Columns("id", "object_id", "status", "steps", "submitted_at").
		Values(report.ID, report.ObjectID, report.Status(), pq.Array(formatSteps(report.Steps)), report.SubmittedAt).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
}

func historyQuery(objectID string, limit uint64) (string, []any, error) {
	q := psql.Select("id", "object_id", "status", "steps", "submitted_at").
		From(journalTable).
		OrderBy("submitted_at DESC")
	if objectID != "" {
		q = q.Where(sq.Eq{"object_id": objectID})
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q.ToSql()
}

// formatSteps renders each step as "step:action:status".
func formatSteps(steps []domain.StepResult) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, fmt.Sprintf("%s:%s:%d", s.Step, s.Action, s.Status))
	}
	return out
}
