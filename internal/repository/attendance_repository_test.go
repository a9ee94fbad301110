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

func newAttendanceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceRepositoryListMonth(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	now := time.Now()

	mock.ExpectQuery("SELECT id, name, active, created_at, updated_at FROM employees WHERE active = TRUE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "active", "created_at", "updated_at"}).
			AddRow("emp-1", "Amit", true, now, now).
			AddRow("emp-2", "Bhavesh", true, now, now))
	mock.ExpectQuery("SELECT id, employee_id, date, status, created_at, updated_at(?s:.+)FROM attendance WHERE date >= \\$1 AND date < \\$2").
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "date", "status", "created_at", "updated_at"}).
			AddRow("att-1", "emp-1", from.AddDate(0, 0, 2), models.AttendancePresent, now, now).
			AddRow("att-2", "emp-1", from.AddDate(0, 0, 3), models.AttendanceHalfday, now, now))

	rows, err := repo.ListMonth(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Amit", rows[0].Employee.Name)
	require.Len(t, rows[0].Attendance, 2)
	assert.Equal(t, models.AttendancePresent, rows[0].Attendance[0].Status)

	// An employee with no marks still appears, with an empty slice not nil.
	assert.Equal(t, "Bhavesh", rows[1].Employee.Name)
	assert.NotNil(t, rows[1].Attendance)
	assert.Empty(t, rows[1].Attendance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendance(?s:.+)ON CONFLICT \\(employee_id, date\\) DO UPDATE SET status = EXCLUDED.status").
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.Attendance{
		EmployeeID: "emp-1",
		Date:       time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		Status:     models.AttendanceAbsent,
	}
	err := repo.Upsert(context.Background(), record)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryEmployeeExists(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("SELECT 1 FROM employees WHERE id = \\$1").
		WithArgs("emp-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM employees WHERE id = \\$1").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.EmployeeExists(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.EmployeeExists(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryActiveEmployeeIDs(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("SELECT id FROM employees WHERE active = TRUE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("emp-1").AddRow("emp-2"))

	ids, err := repo.ActiveEmployeeIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"emp-1", "emp-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
