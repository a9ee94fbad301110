package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceHalfday AttendanceStatus = "Halfday"
	AttendanceAbsent  AttendanceStatus = "Absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceHalfday, AttendanceAbsent:
		return true
	default:
		return false
	}
}

// Attendance is a single per-employee per-day record.
type Attendance struct {
	ID         string           `db:"id" json:"id"`
	EmployeeID string           `db:"employee_id" json:"employeeId"`
	Date       time.Time        `db:"date" json:"date"`
	Status     AttendanceStatus `db:"status" json:"status"`
	CreatedAt  time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updatedAt"`
}

// AttendanceEntry is one day within a month row.
type AttendanceEntry struct {
	Date   time.Time        `json:"date"`
	Status AttendanceStatus `json:"status"`
}

// AttendanceRow is the month grid row for one employee: a sparse list of
// recorded days.
type AttendanceRow struct {
	Employee   Reference         `json:"employee"`
	Attendance []AttendanceEntry `json:"attendance"`
}

// AttendanceConflict reports one failed record of a bulk submission. Bulk
// writes are independent per record and are never rolled back as a unit.
type AttendanceConflict struct {
	EmployeeID string `json:"employeeId"`
	Reason     string `json:"reason"`
}

// AttendanceBulkResult summarises a mark-all-present run.
type AttendanceBulkResult struct {
	Saved     int                  `json:"saved"`
	Conflicts []AttendanceConflict `json:"conflicts,omitempty"`
}
