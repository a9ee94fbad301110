package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shreeji-gems/diamond-api/internal/models"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
)

type attendanceRepository interface {
	ListMonth(ctx context.Context, from, to time.Time) ([]models.AttendanceRow, error)
	Upsert(ctx context.Context, record *models.Attendance) error
	EmployeeExists(ctx context.Context, id string) (bool, error)
	ActiveEmployeeIDs(ctx context.Context) ([]string, error)
}

// AttendanceMarkRequest records one employee's status for one day. Marking an
// already-marked day replaces the previous status.
type AttendanceMarkRequest struct {
	EmployeeID string                  `json:"employeeId" validate:"required"`
	Date       time.Time               `json:"date" validate:"required"`
	Status     models.AttendanceStatus `json:"status" validate:"required"`
}

// AttendanceBulkRequest marks every active employee for one day.
type AttendanceBulkRequest struct {
	Date   time.Time               `json:"date" validate:"required"`
	Status models.AttendanceStatus `json:"status"`
}

// AttendanceService drives the monthly attendance grid.
type AttendanceService struct {
	repo      attendanceRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs an AttendanceService instance.
func NewAttendanceService(repo attendanceRepository, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// Month returns the grid for one month: every active employee with the days
// recorded so far.
func (s *AttendanceService) Month(ctx context.Context, year int, month time.Month) ([]models.AttendanceRow, error) {
	if year < 2000 || year > 2200 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year out of range")
	}
	if month < time.January || month > time.December {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month out of range")
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	rows, err := s.repo.ListMonth(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	if rows == nil {
		rows = []models.AttendanceRow{}
	}
	return rows, nil
}

// Mark upserts one per-employee per-day record. Future days are rejected.
func (s *AttendanceService) Mark(ctx context.Context, req AttendanceMarkRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be Present, Halfday or Absent")
	}

	day := truncateToDay(req.Date)
	if day.After(truncateToDay(s.now().UTC())) {
		return nil, appErrors.ErrFutureDate
	}

	exists, err := s.repo.EmployeeExists(ctx, req.EmployeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check employee")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
	}

	record := &models.Attendance{
		EmployeeID: req.EmployeeID,
		Date:       day,
		Status:     req.Status,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}
	return record, nil
}

// MarkAll writes one record per active employee. Each write is independent: a
// failure on one employee never rolls back the others, it is reported in the
// result instead.
func (s *AttendanceService) MarkAll(ctx context.Context, req AttendanceBulkRequest) (*models.AttendanceBulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	status := req.Status
	if status == "" {
		status = models.AttendancePresent
	}
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be Present, Halfday or Absent")
	}

	day := truncateToDay(req.Date)
	if day.After(truncateToDay(s.now().UTC())) {
		return nil, appErrors.ErrFutureDate
	}

	ids, err := s.repo.ActiveEmployeeIDs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}

	result := &models.AttendanceBulkResult{}
	for _, employeeID := range ids {
		record := &models.Attendance{EmployeeID: employeeID, Date: day, Status: status}
		if err := s.repo.Upsert(ctx, record); err != nil {
			s.logger.Warn("bulk attendance write failed",
				zap.String("employee_id", employeeID), zap.Error(err))
			result.Conflicts = append(result.Conflicts, models.AttendanceConflict{
				EmployeeID: employeeID,
				Reason:     err.Error(),
			})
			continue
		}
		result.Saved++
	}
	return result, nil
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
