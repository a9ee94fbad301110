package models

import "time"

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatCSV  ExportFormat = "csv"
)

// Valid reports whether the format is supported.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatXLSX, ExportFormatPDF, ExportFormatCSV:
		return true
	default:
		return false
	}
}

// ContentType returns the MIME type for download responses.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportFormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

// ExportJobStatus tracks an export job's lifecycle.
type ExportJobStatus string

const (
	ExportJobPending   ExportJobStatus = "pending"
	ExportJobRunning   ExportJobStatus = "running"
	ExportJobCompleted ExportJobStatus = "completed"
	ExportJobFailed    ExportJobStatus = "failed"
)

// ExportJob is one queued ledger export. Params holds the JSON-encoded filter
// and column selection so a worker can rebuild the query.
type ExportJob struct {
	ID        string          `db:"id" json:"id"`
	Status    ExportJobStatus `db:"status" json:"status"`
	Format    ExportFormat    `db:"format" json:"format"`
	Params    string          `db:"params" json:"-"`
	FilePath  *string         `db:"file_path" json:"-"`
	Token     *string         `db:"token" json:"token,omitempty"`
	Error     *string         `db:"error" json:"error,omitempty"`
	RowCount  *int            `db:"row_count" json:"rowCount,omitempty"`
	ExpiresAt *time.Time      `db:"expires_at" json:"expiresAt,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}
