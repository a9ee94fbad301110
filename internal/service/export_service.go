package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shreeji-gems/diamond-api/internal/models"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
	"github.com/shreeji-gems/diamond-api/pkg/export"
	"github.com/shreeji-gems/diamond-api/pkg/jobs"
	"github.com/shreeji-gems/diamond-api/pkg/storage"
)

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath, token string, rowCount int, expiresAt time.Time) error
	MarkFailed(ctx context.Context, id, message string) error
	ListExpired(ctx context.Context, now time.Time) ([]models.ExportJob, error)
	Delete(ctx context.Context, id string) error
}

type lotExporter interface {
	Export(ctx context.Context, req LotListRequest, limit int) ([]models.LotRecord, *models.LotTotals, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	MaxRows   int
}

// ExportRequest queues one ledger export. Columns are canonical keys; the
// rendered file always lays them out in ledger display order regardless of
// the order requested.
type ExportRequest struct {
	Format  models.ExportFormat `json:"format"`
	Columns []string            `json:"columns"`
	Filter  LotListRequest      `json:"filter"`
}

// ExportStatus is the poll payload for one job.
type ExportStatus struct {
	Job models.ExportJob `json:"job"`
	URL string           `json:"url,omitempty"`
}

// ExportService queues ledger exports, renders them on worker goroutines and
// serves the finished files through signed URLs.
type ExportService struct {
	repo    exportJobRepository
	lots    lotExporter
	storage fileStorage
	signer  *storage.SignedURLSigner
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ExportConfig

	csv   datasetRenderer
	excel datasetRenderer
	pdf   pdfRenderer
}

// NewExportService constructs an ExportService. Start must be called before
// jobs are accepted.
func NewExportService(repo exportJobRepository, lots lotExporter, store fileStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg ExportConfig, queueCfg jobs.QueueConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 50000
	}

	s := &ExportService{
		repo:    repo,
		lots:    lots,
		storage: store,
		signer:  signer,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		csv:     export.NewCSVExporter(),
		excel:   export.NewExcelExporter("Diamond Lots"),
		pdf:     export.NewPDFExporter(),
	}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("ledger-exports", s.process, queueCfg)
	return s
}

// Start launches the worker pool.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue validates the request and queues a pending job.
func (s *ExportService) Enqueue(ctx context.Context, req ExportRequest) (*models.ExportJob, error) {
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be xlsx, pdf or csv")
	}
	if len(req.Columns) == 0 {
		return nil, appErrors.ErrExportNoColumns
	}
	for _, key := range req.Columns {
		if _, ok := exportColumnIndex[key]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export column %q", key))
		}
	}
	if err := validateSort(req.Filter.Sort); err != nil {
		return nil, err
	}

	params, err := json.Marshal(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode export params")
	}

	job := &models.ExportJob{Format: req.Format, Params: string(params)}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "ledger_export"}); err != nil {
		if markErr := s.repo.MarkFailed(ctx, job.ID, "export queue unavailable"); markErr != nil {
			s.logger.Error("failed to mark unqueued job", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export queue unavailable")
	}
	return job, nil
}

// Status returns the job and, once completed, its signed download URL.
func (s *ExportService) Status(ctx context.Context, jobID string) (*ExportStatus, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}

	status := &ExportStatus{Job: *job}
	if job.Status == models.ExportJobCompleted && job.Token != nil {
		status.URL = s.downloadURL(*job.Token)
	}
	return status, nil
}

// Download validates a signed token and opens the finished file.
func (s *ExportService) Download(ctx context.Context, token string) (*os.File, *models.ExportJob, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportJobCompleted || job.FilePath == nil || *job.FilePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "export file not available")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file missing")
	}
	return file, job, nil
}

// Cleanup removes expired job rows and their files, then sweeps orphans.
func (s *ExportService) Cleanup(ctx context.Context) {
	expired, err := s.repo.ListExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Warn("failed to list expired export jobs", zap.Error(err))
	} else {
		for _, job := range expired {
			if job.FilePath != nil {
				if err := s.storage.Delete(*job.FilePath); err != nil {
					s.logger.Warn("failed to delete export file", zap.String("job_id", job.ID), zap.Error(err))
				}
			}
			if err := s.repo.Delete(ctx, job.ID); err != nil {
				s.logger.Warn("failed to delete export job", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}

	if deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("export file sweep failed", zap.Error(err))
	} else if len(deleted) > 0 {
		s.logger.Info("swept stale export files", zap.Int("count", len(deleted)))
	}
}

func (s *ExportService) process(ctx context.Context, queued jobs.Job) error {
	job, err := s.repo.FindByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", queued.ID, err)
	}
	if job.Status != models.ExportJobPending {
		return nil
	}
	if err := s.repo.MarkRunning(ctx, job.ID); err != nil {
		return fmt.Errorf("mark export running: %w", err)
	}

	var req ExportRequest
	if err := json.Unmarshal([]byte(job.Params), &req); err != nil {
		s.fail(ctx, job, "stored export params corrupt")
		return nil
	}

	rows, totals, err := s.lots.Export(ctx, req.Filter, s.cfg.MaxRows)
	if err != nil {
		s.fail(ctx, job, "failed to load ledger rows")
		return err
	}
	if len(rows) == 0 {
		s.fail(ctx, job, appErrors.ErrExportEmpty.Message)
		return nil
	}

	dataset := buildLedgerDataset(rows, totals, req.Columns)

	var payload []byte
	switch req.Format {
	case models.ExportFormatXLSX:
		payload, err = s.excel.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Diamond Lot Ledger")
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %s", req.Format)
	}
	if err != nil {
		s.fail(ctx, job, "failed to render export")
		return err
	}

	// The job id keeps two exports finishing in the same second from
	// publishing to the same path and serving each other's bytes.
	filename := fmt.Sprintf("diamond_lots_%s_%s.%s", time.Now().UTC().Format("20060102_150405"), job.ID, req.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.fail(ctx, job, "failed to store export file")
		return err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.fail(ctx, job, "failed to sign download URL")
		return err
	}

	if err := s.repo.MarkCompleted(ctx, job.ID, relPath, token, len(rows), expiresAt); err != nil {
		return fmt.Errorf("mark export completed: %w", err)
	}
	s.metrics.RecordExportJob(models.ExportJobCompleted, job.Format)
	s.logger.Info("export rendered",
		zap.String("job_id", job.ID), zap.String("format", string(job.Format)), zap.Int("rows", len(rows)))
	return nil
}

func (s *ExportService) fail(ctx context.Context, job *models.ExportJob, message string) {
	if err := s.repo.MarkFailed(ctx, job.ID, message); err != nil {
		s.logger.Error("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.metrics.RecordExportJob(models.ExportJobFailed, job.Format)
}

func (s *ExportService) downloadURL(token string) string {
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}
	return fmt.Sprintf("%s/export/download/%s", prefix, token)
}
