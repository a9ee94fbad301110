package service

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreeji-gems/diamond-api/internal/models"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
	"github.com/shreeji-gems/diamond-api/pkg/jobs"
	"github.com/shreeji-gems/diamond-api/pkg/storage"
)

type mockExportJobRepo struct {
	jobs      map[string]*models.ExportJob
	failedMsg map[string]string
	completed map[string]int
	expired   []models.ExportJob
	deleted   []string
}

func newMockExportJobRepo() *mockExportJobRepo {
	return &mockExportJobRepo{
		jobs:      map[string]*models.ExportJob{},
		failedMsg: map[string]string{},
		completed: map[string]int{},
	}
}

func (m *mockExportJobRepo) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = "job-1"
	}
	if job.Status == "" {
		job.Status = models.ExportJobPending
	}
	m.jobs[job.ID] = job
	return nil
}

func (m *mockExportJobRepo) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (m *mockExportJobRepo) MarkRunning(ctx context.Context, id string) error {
	m.jobs[id].Status = models.ExportJobRunning
	return nil
}

func (m *mockExportJobRepo) MarkCompleted(ctx context.Context, id, filePath, token string, rowCount int, expiresAt time.Time) error {
	job := m.jobs[id]
	job.Status = models.ExportJobCompleted
	job.FilePath = &filePath
	job.Token = &token
	job.RowCount = &rowCount
	job.ExpiresAt = &expiresAt
	m.completed[id] = rowCount
	return nil
}

func (m *mockExportJobRepo) MarkFailed(ctx context.Context, id, message string) error {
	m.jobs[id].Status = models.ExportJobFailed
	m.failedMsg[id] = message
	return nil
}

func (m *mockExportJobRepo) ListExpired(ctx context.Context, now time.Time) ([]models.ExportJob, error) {
	return m.expired, nil
}

func (m *mockExportJobRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockLotExporter struct {
	rows   []models.LotRecord
	totals models.LotTotals
}

func (m *mockLotExporter) Export(ctx context.Context, req LotListRequest, limit int) ([]models.LotRecord, *models.LotTotals, error) {
	totals := m.totals
	return m.rows, &totals, nil
}

type memStorage struct {
	saved   map[string][]byte
	deleted []string
}

func newMemStorage() *memStorage {
	return &memStorage{saved: map[string][]byte{}}
}

func (m *memStorage) Save(filename string, data []byte) (string, error) {
	rel := "exports/" + filename
	m.saved[rel] = data
	return rel, nil
}

func (m *memStorage) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (m *memStorage) Delete(filename string) error {
	m.deleted = append(m.deleted, filename)
	return nil
}

func (m *memStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return nil, nil
}

func newExportFixture(rows []models.LotRecord) (*ExportService, *mockExportJobRepo, *memStorage) {
	repo := newMockExportJobRepo()
	store := newMemStorage()
	lots := &mockLotExporter{rows: rows, totals: models.LotTotals{TotalItems: len(rows), TotalAmount: 262.5}}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(repo, lots, store, signer, nil,
		ExportConfig{APIPrefix: "/api", ResultTTL: time.Hour},
		jobs.QueueConfig{Workers: 1}, nil)
	return svc, repo, store
}

func ledgerRow(uniqueID int64) models.LotRecord {
	rate := 50.0
	weight := 5.25
	amount := 262.5
	return models.LotRecord{
		DiamondLot: models.DiamondLot{
			UniqueID:     uniqueID,
			Date:         time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			KapanNumber:  "K-101",
			PKTNumber:    "P-1",
			IssueWeight:  10.5,
			PolishWeight: &weight,
			Rate:         &rate,
			Amount:       &amount,
		},
		PartyName: "Shreeji Gems",
	}
}

func TestExportServiceEnqueueRejectsEmptyColumns(t *testing.T) {
	svc, _, _ := newExportFixture(nil)

	_, err := svc.Enqueue(context.Background(), ExportRequest{Format: models.ExportFormatCSV})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExportNoColumns.Code, appErrors.FromError(err).Code)
}

func TestExportServiceEnqueueRejectsUnknownFormat(t *testing.T) {
	svc, _, _ := newExportFixture(nil)

	_, err := svc.Enqueue(context.Background(), ExportRequest{Format: "docx", Columns: []string{"uniqueId"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceEnqueueRejectsUnknownColumn(t *testing.T) {
	svc, _, _ := newExportFixture(nil)

	_, err := svc.Enqueue(context.Background(), ExportRequest{
		Format:  models.ExportFormatCSV,
		Columns: []string{"uniqueId", "secretMargin"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceEnqueueRejectsAmbiguousSort(t *testing.T) {
	svc, _, _ := newExportFixture(nil)

	_, err := svc.Enqueue(context.Background(), ExportRequest{
		Format:  models.ExportFormatCSV,
		Columns: []string{"uniqueId"},
		Filter: LotListRequest{
			Sort: models.LotSort{Date: models.SortAsc, UniqueID: models.SortDesc},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAmbiguousSort.Code, appErrors.FromError(err).Code)
}

func TestExportServiceEnqueueFailsJobWhenQueueDown(t *testing.T) {
	svc, repo, _ := newExportFixture(nil)

	// The worker pool was never started, so queueing must fail and the job
	// row must be marked failed rather than left pending forever.
	_, err := svc.Enqueue(context.Background(), ExportRequest{
		Format:  models.ExportFormatCSV,
		Columns: []string{"uniqueId"},
	})
	require.Error(t, err)
	require.Len(t, repo.jobs, 1)
	for id := range repo.jobs {
		assert.Equal(t, models.ExportJobFailed, repo.jobs[id].Status)
	}
}

func TestExportServiceProcessRendersAndCompletes(t *testing.T) {
	svc, repo, store := newExportFixture([]models.LotRecord{ledgerRow(1), ledgerRow(2)})

	job := &models.ExportJob{
		ID:     "job-1",
		Status: models.ExportJobPending,
		Format: models.ExportFormatCSV,
		Params: `{"format":"csv","columns":["uniqueId","partyName","amount"],"filter":{}}`,
	}
	repo.jobs[job.ID] = job

	err := svc.process(context.Background(), jobs.Job{ID: "job-1", Type: "ledger_export"})
	require.NoError(t, err)

	stored := repo.jobs["job-1"]
	assert.Equal(t, models.ExportJobCompleted, stored.Status)
	require.NotNil(t, stored.RowCount)
	assert.Equal(t, 2, *stored.RowCount)
	require.NotNil(t, stored.FilePath)
	assert.Contains(t, store.saved, *stored.FilePath)
	assert.Contains(t, *stored.FilePath, "job-1")
	require.NotNil(t, stored.Token)

	payload := string(store.saved[*stored.FilePath])
	assert.Contains(t, payload, "No,Party,Amount")
	assert.Contains(t, payload, "Shreeji Gems")
	assert.Contains(t, payload, "Total")
}

func TestExportServiceProcessKeepsConcurrentFilesDistinct(t *testing.T) {
	svc, repo, store := newExportFixture([]models.LotRecord{ledgerRow(1)})

	params := `{"format":"csv","columns":["uniqueId"],"filter":{}}`
	for _, id := range []string{"job-a", "job-b"} {
		repo.jobs[id] = &models.ExportJob{
			ID:     id,
			Status: models.ExportJobPending,
			Format: models.ExportFormatCSV,
			Params: params,
		}
	}

	// Rendered in the same second; the filenames must still differ.
	require.NoError(t, svc.process(context.Background(), jobs.Job{ID: "job-a"}))
	require.NoError(t, svc.process(context.Background(), jobs.Job{ID: "job-b"}))

	pathA, pathB := *repo.jobs["job-a"].FilePath, *repo.jobs["job-b"].FilePath
	assert.NotEqual(t, pathA, pathB)
	assert.Len(t, store.saved, 2)
}

func TestExportServiceProcessFailsEmptySelection(t *testing.T) {
	svc, repo, _ := newExportFixture(nil)

	job := &models.ExportJob{
		ID:     "job-1",
		Status: models.ExportJobPending,
		Format: models.ExportFormatCSV,
		Params: `{"format":"csv","columns":["uniqueId"],"filter":{}}`,
	}
	repo.jobs[job.ID] = job

	err := svc.process(context.Background(), jobs.Job{ID: "job-1"})
	require.NoError(t, err)
	assert.Equal(t, models.ExportJobFailed, repo.jobs["job-1"].Status)
	assert.Equal(t, appErrors.ErrExportEmpty.Message, repo.failedMsg["job-1"])
}

func TestExportServiceProcessSkipsNonPendingJobs(t *testing.T) {
	svc, repo, store := newExportFixture([]models.LotRecord{ledgerRow(1)})

	job := &models.ExportJob{ID: "job-1", Status: models.ExportJobCompleted, Format: models.ExportFormatCSV}
	repo.jobs[job.ID] = job

	err := svc.process(context.Background(), jobs.Job{ID: "job-1"})
	require.NoError(t, err)
	assert.Empty(t, store.saved)
}

func TestExportServiceStatusCarriesDownloadURL(t *testing.T) {
	svc, repo, _ := newExportFixture(nil)

	token := "tok"
	repo.jobs["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportJobCompleted, Token: &token}

	status, err := svc.Status(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "/api/export/download/tok", status.URL)

	repo.jobs["job-2"] = &models.ExportJob{ID: "job-2", Status: models.ExportJobRunning}
	status, err = svc.Status(context.Background(), "job-2")
	require.NoError(t, err)
	assert.Empty(t, status.URL)
}

func TestExportServiceCleanupRemovesExpiredJobs(t *testing.T) {
	svc, repo, store := newExportFixture(nil)

	path := "exports/old.csv"
	repo.expired = []models.ExportJob{{ID: "job-old", Status: models.ExportJobCompleted, FilePath: &path}}

	svc.Cleanup(context.Background())
	assert.Equal(t, []string{path}, store.deleted)
	assert.Equal(t, []string{"job-old"}, repo.deleted)
}

func TestBuildLedgerDatasetCanonicalOrderAndTotals(t *testing.T) {
	rows := []models.LotRecord{ledgerRow(1)}
	totals := &models.LotTotals{TotalIssueWeight: 10.5, TotalAmount: 262.5}

	// Keys arrive in a scrambled order; the dataset must follow ledger order.
	dataset := buildLedgerDataset(rows, totals, []string{"amount", "uniqueId", "issueWeight", "partyName"})
	assert.Equal(t, []string{"No", "Party", "Issue Weight", "Amount"}, dataset.Headers)

	require.Len(t, dataset.Rows, 2)
	assert.Equal(t, "1", dataset.Rows[0]["No"])
	assert.Equal(t, "10.500", dataset.Rows[0]["Issue Weight"])
	assert.Equal(t, "262.50", dataset.Rows[0]["Amount"])

	totalRow := dataset.Rows[1]
	assert.Equal(t, "Total", totalRow["No"])
	assert.Equal(t, "", totalRow["Party"])
	assert.Equal(t, "10.500", totalRow["Issue Weight"])
	assert.Equal(t, "262.50", totalRow["Amount"])
}

func TestBuildLedgerDatasetSkipsTotalsWithoutSummableColumns(t *testing.T) {
	rows := []models.LotRecord{ledgerRow(1)}
	totals := &models.LotTotals{TotalAmount: 262.5}

	dataset := buildLedgerDataset(rows, totals, []string{"uniqueId", "partyName"})
	assert.Equal(t, []string{"No", "Party"}, dataset.Headers)
	assert.Len(t, dataset.Rows, 1)
}
