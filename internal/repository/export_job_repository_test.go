package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreeji-gems/diamond-api/internal/models"
)

func newExportJobMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExportJobRepositoryCreateDefaultsPending(t *testing.T) {
	db, mock, cleanup := newExportJobMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	mock.ExpectExec("INSERT INTO export_jobs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ExportJob{Format: models.ExportFormatXLSX, Params: "{}"}
	err := repo.Create(context.Background(), job)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ExportJobPending, job.Status)
	assert.False(t, job.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryMarkCompleted(t *testing.T) {
	db, mock, cleanup := newExportJobMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	expires := time.Now().Add(time.Hour)
	mock.ExpectExec("UPDATE export_jobs SET status = \\$1, file_path = \\$2, token = \\$3, row_count = \\$4, expires_at = \\$5").
		WithArgs(models.ExportJobCompleted, "/tmp/exports/f.xlsx", "tok", 10, expires, sqlmock.AnyArg(), "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkCompleted(context.Background(), "job-1", "/tmp/exports/f.xlsx", "tok", 10, expires)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryMarkFailed(t *testing.T) {
	db, mock, cleanup := newExportJobMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	mock.ExpectExec("UPDATE export_jobs SET status = \\$1, error = \\$2").
		WithArgs(models.ExportJobFailed, "no rows matched the filter", sqlmock.AnyArg(), "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkFailed(context.Background(), "job-1", "no rows matched the filter")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryListExpired(t *testing.T) {
	db, mock, cleanup := newExportJobMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT id, status, format, params(?s:.+)WHERE status = \\$1 AND expires_at IS NOT NULL AND expires_at < \\$2").
		WithArgs(models.ExportJobCompleted, now).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "status", "format", "params", "file_path", "token", "error", "row_count", "expires_at", "created_at", "updated_at",
		}).AddRow("job-1", models.ExportJobCompleted, models.ExportFormatCSV, "{}", "/tmp/f.csv", "tok", nil, 3, now.Add(-time.Hour), now, now))

	jobs, err := repo.ListExpired(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-1", jobs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
