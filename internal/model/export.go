package model

import "time"

// ExportFormat is the file format of an inventory export.
type ExportFormat string

// Export formats.
const (
	ExportCSV   ExportFormat = "CSV"
	ExportExcel ExportFormat = "Excel"
)

// Export outcomes.
const (
	ExportSuccess = "Success"
	ExportFailed  = "Failed"
)

// ExportLog records one export attempt.
type ExportLog struct {
	ID        int64        `json:"id" db:"id"`
	Format    ExportFormat `json:"format" db:"format"`
	Status    string       `json:"status" db:"status"`
	Details   string       `json:"details" db:"details"`
	Username  string       `json:"user" db:"username"`
	ObjectKey string       `json:"object_key,omitempty" db:"object_key"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}
