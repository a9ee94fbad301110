package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shreeji-gems/diamond-api/internal/models"
)

// ExportJobRepository handles persistence for queued export jobs.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository creates a new repository instance.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

const exportJobColumns = "id, status, format, params, file_path, token, error, row_count, expires_at, created_at, updated_at"

// Create persists a new pending job.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportJobPending
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	const query = `INSERT INTO export_jobs (id, status, format, params, created_at, updated_at)
        VALUES (:id, :status, :format, :params, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindByID returns one job.
func (r *ExportJobRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	query := fmt.Sprintf("SELECT %s FROM export_jobs WHERE id = $1", exportJobColumns)
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkRunning moves a job into the running state.
func (r *ExportJobRepository) MarkRunning(ctx context.Context, id string) error {
	const query = `UPDATE export_jobs SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, models.ExportJobRunning, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("mark export running: %w", err)
	}
	return nil
}

// MarkCompleted records the rendered file, its download token and expiry.
func (r *ExportJobRepository) MarkCompleted(ctx context.Context, id, filePath, token string, rowCount int, expiresAt time.Time) error {
	const query = `UPDATE export_jobs SET status = $1, file_path = $2, token = $3, row_count = $4, expires_at = $5, updated_at = $6 WHERE id = $7`
	if _, err := r.db.ExecContext(ctx, query, models.ExportJobCompleted, filePath, token, rowCount, expiresAt, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("mark export completed: %w", err)
	}
	return nil
}

// MarkFailed records a terminal failure message.
func (r *ExportJobRepository) MarkFailed(ctx context.Context, id, message string) error {
	const query = `UPDATE export_jobs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, models.ExportJobFailed, message, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("mark export failed: %w", err)
	}
	return nil
}

// ListExpired returns completed jobs whose download window passed, so their
// files can be removed.
func (r *ExportJobRepository) ListExpired(ctx context.Context, now time.Time) ([]models.ExportJob, error) {
	query := fmt.Sprintf("SELECT %s FROM export_jobs WHERE status = $1 AND expires_at IS NOT NULL AND expires_at < $2", exportJobColumns)
	var jobs []models.ExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.ExportJobCompleted, now); err != nil {
		return nil, fmt.Errorf("list expired exports: %w", err)
	}
	return jobs, nil
}

// Delete removes a job row.
func (r *ExportJobRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM export_jobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete export job: %w", err)
	}
	return nil
}
