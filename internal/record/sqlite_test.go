package record

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordInsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewSQLite(db)
	s.now = func() time.Time { return time.Date(2026, 10, 16, 4, 0, 0, 0, time.UTC) }

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO waterflow (id, occurred_at, switch_status, comment)`)).
		WithArgs(sqlmock.AnyArg(), "2026-10-16 04:00:00", "OVERRUN", "Backwash overrun").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Record(context.Background(), StatusOverrun, "Backwash overrun"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordDBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO waterflow").WillReturnError(errors.New("disk full"))

	err = NewSQLite(db).Record(context.Background(), StatusInfo, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBuildsFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "switch_status", "comment"}).
		AddRow("a", "2026-10-16 04:00:00", "INFO", "still alive").
		AddRow("b", "2026-10-16 05:10:00", "PROGRESS", "Calculating waterflow: 20 seconds")

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, occurred_at, switch_status, comment FROM waterflow WHERE occurred_at >= ? AND occurred_at <= ? ORDER BY occurred_at ASC, rowid ASC`)).
		WithArgs("2026-10-16 00:00:00", "2026-10-17 00:00:00").
		WillReturnRows(rows)

	got, err := NewSQLite(db).List(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, StatusInfo, got[0].Status)
	assert.Equal(t, time.Date(2026, 10, 16, 4, 0, 0, 0, time.UTC), got[0].OccurredAt)
	assert.Equal(t, StatusProgress, got[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id").WillReturnError(errors.New("locked"))

	_, err = NewSQLite(db).List(context.Background(), time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestOpenSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waterflow.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Record(ctx, StatusInfo, "started"))
	require.NoError(t, s.Record(ctx, StatusHalt, "halted"))

	got, err := s.List(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "started", got[0].Message)
	assert.Equal(t, StatusHalt, got[1].Status)
	assert.NotEqual(t, got[0].ID, got[1].ID)

	// Reopening keeps existing rows.
	require.NoError(t, s.Close())
	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()
	got, err = s2.List(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFakeRecorder(t *testing.T) {
	f := NewFakeRecorder()
	require.NoError(t, f.Record(context.Background(), StatusInfo, "a"))
	require.NoError(t, f.Record(context.Background(), StatusProgress, "b"))

	assert.Equal(t, []string{"b"}, f.WithStatus(StatusProgress))

	f.RecordError = errors.New("down")
	assert.Error(t, f.Record(context.Background(), StatusInfo, "c"))
	assert.Len(t, f.Entries, 2)
}

func TestDiscard(t *testing.T) {
	var r Recorder = Discard{}
	assert.NoError(t, r.Record(context.Background(), StatusInfo, "x"))
}
