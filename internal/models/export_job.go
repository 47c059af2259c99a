package models

import "time"

// ExportStatus captures background export lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob tracks one asynchronous case register export.
type ExportJob struct {
	ID             string       `json:"id"`
	OrganisationID *int64       `json:"organisation_id,omitempty"`
	Format         string       `json:"format"`
	Kind           CaseKind     `json:"kind,omitempty"`
	StatusID       *int64       `json:"status_id,omitempty"`
	Status         ExportStatus `json:"status"`
	RowCount       int          `json:"row_count"`
	FilePath       string       `json:"-"`
	Token          string       `json:"-"`
	DownloadURL    string       `json:"-"`
	ErrorMessage   string       `json:"error_message,omitempty"`
	CreatedBy      int64        `json:"created_by"`
	CreatedAt      time.Time    `json:"created_at"`
	FinishedAt     *time.Time   `json:"finished_at,omitempty"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
}

// Done reports whether the job reached a final state.
func (j ExportJob) Done() bool {
	return j.Status == ExportStatusFinished || j.Status == ExportStatusFailed
}
