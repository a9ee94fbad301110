package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreeji-gems/diamond-api/internal/models"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
)

type mockAttendanceRepo struct {
	rows        []models.AttendanceRow
	employeeIDs []string
	upserts     []models.Attendance
	failFor     map[string]error
}

func (m *mockAttendanceRepo) ListMonth(ctx context.Context, from, to time.Time) ([]models.AttendanceRow, error) {
	return m.rows, nil
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, record *models.Attendance) error {
	if err, ok := m.failFor[record.EmployeeID]; ok {
		return err
	}
	m.upserts = append(m.upserts, *record)
	return nil
}

// A nil employeeIDs slice means every employee exists.
func (m *mockAttendanceRepo) EmployeeExists(ctx context.Context, id string) (bool, error) {
	if m.employeeIDs == nil {
		return true, nil
	}
	for _, known := range m.employeeIDs {
		if known == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAttendanceRepo) ActiveEmployeeIDs(ctx context.Context) ([]string, error) {
	return m.employeeIDs, nil
}

func newAttendanceService(repo *mockAttendanceRepo, now time.Time) *AttendanceService {
	svc := NewAttendanceService(repo, nil, nil)
	svc.now = func() time.Time { return now }
	return svc
}

func TestAttendanceServiceMonthValidatesRange(t *testing.T) {
	svc := NewAttendanceService(&mockAttendanceRepo{}, nil, nil)

	_, err := svc.Month(context.Background(), 1999, time.March)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Month(context.Background(), 2026, time.Month(13))
	require.Error(t, err)

	rows, err := svc.Month(context.Background(), 2026, time.August)
	require.NoError(t, err)
	assert.NotNil(t, rows)
}

func TestAttendanceServiceMarkReplacesStatus(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	repo := &mockAttendanceRepo{}
	svc := newAttendanceService(repo, now)

	record, err := svc.Mark(context.Background(), AttendanceMarkRequest{
		EmployeeID: "emp-1",
		Date:       time.Date(2026, 8, 14, 18, 30, 0, 0, time.UTC),
		Status:     models.AttendanceHalfday,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceHalfday, record.Status)
	// Time of day is dropped so the per-day uniqueness holds.
	assert.Equal(t, time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC), record.Date)
	require.Len(t, repo.upserts, 1)
}

func TestAttendanceServiceMarkRejectsFutureDate(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	svc := newAttendanceService(&mockAttendanceRepo{}, now)

	_, err := svc.Mark(context.Background(), AttendanceMarkRequest{
		EmployeeID: "emp-1",
		Date:       now.AddDate(0, 0, 1),
		Status:     models.AttendancePresent,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFutureDate.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceMarkAcceptsToday(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	svc := newAttendanceService(&mockAttendanceRepo{}, now)

	// Later the same day is not a future date.
	_, err := svc.Mark(context.Background(), AttendanceMarkRequest{
		EmployeeID: "emp-1",
		Date:       time.Date(2026, 8, 15, 23, 0, 0, 0, time.UTC),
		Status:     models.AttendancePresent,
	})
	require.NoError(t, err)
}

func TestAttendanceServiceMarkRejectsUnknownEmployee(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	repo := &mockAttendanceRepo{employeeIDs: []string{"emp-1"}}
	svc := newAttendanceService(repo, now)

	_, err := svc.Mark(context.Background(), AttendanceMarkRequest{
		EmployeeID: "ghost",
		Date:       now,
		Status:     models.AttendancePresent,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.upserts)
}

func TestAttendanceServiceMarkRejectsUnknownStatus(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	svc := newAttendanceService(&mockAttendanceRepo{}, now)

	_, err := svc.Mark(context.Background(), AttendanceMarkRequest{
		EmployeeID: "emp-1",
		Date:       now,
		Status:     "Vacation",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceMarkAllDefaultsPresent(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	repo := &mockAttendanceRepo{employeeIDs: []string{"emp-1", "emp-2", "emp-3"}}
	svc := newAttendanceService(repo, now)

	result, err := svc.MarkAll(context.Background(), AttendanceBulkRequest{Date: now})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Saved)
	assert.Empty(t, result.Conflicts)
	for _, record := range repo.upserts {
		assert.Equal(t, models.AttendancePresent, record.Status)
	}
}

func TestAttendanceServiceMarkAllReportsPartialFailures(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	repo := &mockAttendanceRepo{
		employeeIDs: []string{"emp-1", "emp-2", "emp-3"},
		failFor:     map[string]error{"emp-2": errors.New("connection reset")},
	}
	svc := newAttendanceService(repo, now)

	result, err := svc.MarkAll(context.Background(), AttendanceBulkRequest{Date: now, Status: models.AttendanceAbsent})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Saved)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "emp-2", result.Conflicts[0].EmployeeID)
	assert.Contains(t, result.Conflicts[0].Reason, "connection reset")
}

func TestAttendanceServiceMarkAllRejectsFutureDate(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	svc := newAttendanceService(&mockAttendanceRepo{employeeIDs: []string{"emp-1"}}, now)

	_, err := svc.MarkAll(context.Background(), AttendanceBulkRequest{Date: now.AddDate(0, 0, 2)})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFutureDate.Code, appErrors.FromError(err).Code)
}
