package models

import "time"

// CaseKind distinguishes data principal requests from grievances.
type CaseKind string

const (
	CaseKindDataRequest CaseKind = "DATA_PRINCIPAL_REQUEST"
	CaseKindGrievance   CaseKind = "GRIEVANCE"
)

// Valid reports whether k is a known kind.
func (k CaseKind) Valid() bool {
	return k == CaseKindDataRequest || k == CaseKindGrievance
}

// RequestType is the right a data principal invokes. Grievances leave it empty.
type RequestType string

const (
	RequestTypeAccess     RequestType = "Access"
	RequestTypeCorrection RequestType = "Correction"
	RequestTypeNomination RequestType = "Nomination"
	RequestTypeErasure    RequestType = "Erasure"
)

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	switch t {
	case RequestTypeAccess, RequestTypeCorrection, RequestTypeNomination, RequestTypeErasure:
		return true
	}
	return false
}

// Case is a data principal request or grievance raised against an organisation.
// Subject fields are fixed at intake; status, assignment and closure fields
// change only through lifecycle transitions.
type Case struct {
	ID              int64       `db:"id" json:"id"`
	Kind            CaseKind    `db:"kind" json:"kind"`
	RequestType     RequestType `db:"request_type" json:"request_type,omitempty"`
	OrganisationID  int64       `db:"organisation_id" json:"organisation_id"`
	FirstName       string      `db:"first_name" json:"first_name"`
	LastName        string      `db:"last_name" json:"last_name"`
	Email           string      `db:"email" json:"email"`
	Phone           string      `db:"phone" json:"phone"`
	Comment         string      `db:"comment" json:"comment"`
	StatusID        int64       `db:"status_id" json:"status_id"`
	AssignedTo      int64       `db:"assigned_to" json:"assigned_to"`
	DueDate         time.Time   `db:"due_date" json:"due_date"`
	CompletedOnTime bool        `db:"completed_on_time" json:"completed_on_time"`
	ClosureComment  string      `db:"closure_comment" json:"closure_comment,omitempty"`
	ClosedAt        *time.Time  `db:"closed_at" json:"closed_at,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// FullName joins the requester's names.
func (c Case) FullName() string {
	return joinName(c.FirstName, c.LastName)
}

// IsClosed reports whether the case has been closed.
func (c Case) IsClosed() bool {
	return c.ClosedAt != nil
}

// IsOverdue reports whether an open case is past its due date at now.
func (c Case) IsOverdue(now time.Time) bool {
	return !c.IsClosed() && now.After(c.DueDate)
}

// CaseFilter narrows ListCases. A nil OrganisationID lists every tenant.
type CaseFilter struct {
	OrganisationID *int64
	Kind           CaseKind
	StatusID       *int64
	AssignedTo     *int64
	OpenOnly       bool
	Search         string
	Page           int
	PageSize       int
}
