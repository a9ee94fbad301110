package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shreeji-gems/diamond-api/internal/models"
)

// AttendanceRepository handles persistence for daily attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new repository instance.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListMonth returns the attendance grid for a month: every active employee,
// each with the sparse set of days recorded inside [from, to).
func (r *AttendanceRepository) ListMonth(ctx context.Context, from, to time.Time) ([]models.AttendanceRow, error) {
	const employeeQuery = `SELECT id, name, active, created_at, updated_at FROM employees WHERE active = TRUE ORDER BY name ASC`
	var employees []models.Reference
	if err := r.db.SelectContext(ctx, &employees, employeeQuery); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	const recordQuery = `SELECT id, employee_id, date, status, created_at, updated_at
        FROM attendance WHERE date >= $1 AND date < $2 ORDER BY date ASC`
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, recordQuery, from, to); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}

	byEmployee := make(map[string][]models.AttendanceEntry, len(employees))
	for _, record := range records {
		byEmployee[record.EmployeeID] = append(byEmployee[record.EmployeeID], models.AttendanceEntry{
			Date:   record.Date,
			Status: record.Status,
		})
	}

	rows := make([]models.AttendanceRow, 0, len(employees))
	for _, employee := range employees {
		entries := byEmployee[employee.ID]
		if entries == nil {
			entries = []models.AttendanceEntry{}
		}
		rows = append(rows, models.AttendanceRow{Employee: employee, Attendance: entries})
	}
	return rows, nil
}

// Upsert writes one per-employee per-day record, replacing the status when the
// day was already marked.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.Attendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO attendance (id, employee_id, date, status, created_at, updated_at)
        VALUES (:id, :employee_id, :date, :status, :created_at, :updated_at)
        ON CONFLICT (employee_id, date) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// EmployeeExists reports whether the employee row is present.
func (r *AttendanceRepository) EmployeeExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, `SELECT 1 FROM employees WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check employee: %w", err)
	}
	return true, nil
}

// ActiveEmployeeIDs returns the ids of all active employees.
func (r *AttendanceRepository) ActiveEmployeeIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM employees WHERE active = TRUE ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	return ids, nil
}
