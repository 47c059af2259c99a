package dto

import (
	"time"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
)

// ExportRequest asks for an asynchronous case register export.
type ExportRequest struct {
	Format         string          `json:"format" validate:"required,oneof=csv pdf CSV PDF"`
	OrganisationID *int64          `json:"organisationId"`
	Kind           models.CaseKind `json:"kind" validate:"omitempty,oneof=DATA_PRINCIPAL_REQUEST GRIEVANCE"`
	StatusID       *int64          `json:"statusId" validate:"omitempty,gt=0"`
}

// ExportJobResponse reports the state of an export job.
type ExportJobResponse struct {
	ID          string              `json:"id"`
	Status      models.ExportStatus `json:"status"`
	Format      string              `json:"format"`
	RowCount    int                 `json:"rowCount"`
	DownloadURL string              `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time          `json:"expiresAt,omitempty"`
	Error       string              `json:"error,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}
