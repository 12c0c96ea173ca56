package storage

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinkBridge/internal/domain"
)

func sampleReport() domain.SubmissionReport {
	return domain.SubmissionReport{
		ID:          "5f1d7a4e-8d7b-4a53-9a35-0f9f3a1b2c3d",
		ObjectID:    "ZTF21abcdefg",
		SubmittedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Steps: []domain.StepResult{
			{Step: domain.StepInstrument, Action: domain.ActionResolved, Status: http.StatusOK},
			{Step: domain.StepSource, Action: domain.ActionCreated, Status: http.StatusOK},
			{Step: domain.StepCandidate, Action: domain.ActionFailed, Status: http.StatusBadRequest},
		},
	}
}

func TestInsertQuery(t *testing.T) {
	t.Parallel()

	report := sampleReport()
	query, args, err := insertQuery(report)
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO submission_journal (id,object_id,status,steps,submitted_at) VALUES ($1,$2,$3,$4,$5) ON CONFLICT (id) DO NOTHING",
		query)
	require.Len(t, args, 5)
	assert.Equal(t, report.ID, args[0])
	assert.Equal(t, "ZTF21abcdefg", args[1])
	assert.Equal(t, http.StatusBadRequest, args[2])
	assert.Equal(t, pq.Array([]string{"instrument:resolved:200", "source:created:200", "candidate:failed:400"}), args[3])
	assert.Equal(t, report.SubmittedAt, args[4])
}

func TestHistoryQuery(t *testing.T) {
	t.Parallel()

	query, args, err := historyQuery("ZTF21abcdefg", 10)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, object_id, status, steps, submitted_at FROM submission_journal WHERE object_id = $1 ORDER BY submitted_at DESC LIMIT 10",
		query)
	assert.Equal(t, []any{"ZTF21abcdefg"}, args)

	query, args, err = historyQuery("", 0)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, object_id, status, steps, submitted_at FROM submission_journal ORDER BY submitted_at DESC", query)
	assert.Empty(t, args)
}

func TestJournalWithoutDatabase(t *testing.T) {
	t.Parallel()

	journal := NewPostgresJournal(nil)
	ctx := context.Background()

	require.NoError(t, journal.EnsureSchema(ctx))
	require.NoError(t, journal.Record(ctx, sampleReport()))

	entries, err := journal.History(ctx, "ZTF21abcdefg", 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
