package dto

import (
	"time"

	"github.com/rahulvs07/complyark-data-shield/internal/models"
)

// SubmitCaseRequest is the public intake payload. OrganisationID comes from
// the intake token, never from the body.
type SubmitCaseRequest struct {
	Kind           models.CaseKind    `json:"kind" validate:"required,oneof=DATA_PRINCIPAL_REQUEST GRIEVANCE"`
	FirstName      string             `json:"firstName" validate:"required,max=100"`
	LastName       string             `json:"lastName" validate:"required,max=100"`
	Email          string             `json:"email" validate:"required,max=254"`
	Phone          string             `json:"phone" validate:"required,max=32"`
	RequestType    models.RequestType `json:"requestType,omitempty"`
	Comment        string             `json:"comment" validate:"required,max=4000"`
	OrganisationID int64              `json:"-"`
}

// ChangeStatusRequest moves a case to another status.
type ChangeStatusRequest struct {
	StatusID int64  `json:"statusId"`
	Comment  string `json:"comment" validate:"max=4000"`
}

// AssignCaseRequest hands a case to a staff member.
type AssignCaseRequest struct {
	AssigneeID int64  `json:"assigneeId" validate:"required,gt=0"`
	Comment    string `json:"comment" validate:"max=4000"`
}

// CaseQuery holds list filters bound from the query string.
type CaseQuery struct {
	OrganisationID *int64 `form:"organisationId"`
	Kind           string `form:"kind"`
	StatusID       *int64 `form:"statusId"`
	AssignedTo     *int64 `form:"assignedTo"`
	OpenOnly       bool   `form:"open"`
	Search         string `form:"q"`
	Page           int    `form:"page"`
	PageSize       int    `form:"pageSize"`
}

// CaseView is a case decorated with display names.
type CaseView struct {
	models.Case
	StatusName     string `json:"status_name"`
	AssignedToName string `json:"assigned_to_name"`
	Overdue        bool   `json:"overdue"`
}

// CaseDetail bundles a case with its ordered history.
type CaseDetail struct {
	CaseView
	History []models.HistoryEntry `json:"history"`
}

// IntakeOrganisation is what a requester sees when opening an intake link.
type IntakeOrganisation struct {
	ID           int64                `json:"id"`
	Name         string               `json:"name"`
	IndustryName string               `json:"industryName"`
	RequestTypes []models.RequestType `json:"requestTypes"`
}

// SubmitCaseResponse acknowledges an intake submission.
type SubmitCaseResponse struct {
	CaseID    int64           `json:"caseId"`
	Kind      models.CaseKind `json:"kind"`
	Status    string          `json:"status"`
	DueDate   time.Time       `json:"dueDate"`
	CreatedAt time.Time       `json:"createdAt"`
}
