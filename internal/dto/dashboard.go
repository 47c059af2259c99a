package dto

import "time"

// DashboardSummary aggregates case counts for one organisation or, for the
// system administrator, across every organisation.
type DashboardSummary struct {
	OrganisationID  *int64        `json:"organisationId,omitempty"`
	GeneratedAt     time.Time     `json:"generatedAt"`
	TotalCases      int           `json:"totalCases"`
	DataRequests    int           `json:"dataRequests"`
	Grievances      int           `json:"grievances"`
	OpenCases       int           `json:"openCases"`
	EscalatedCases  int           `json:"escalatedCases"`
	OverdueCases    int           `json:"overdueCases"`
	UnassignedCases int           `json:"unassignedCases"`
	ClosedOnTime    int           `json:"closedOnTime"`
	ClosedLate      int           `json:"closedLate"`
	ByStatus        []StatusCount `json:"byStatus"`
	ByRequestType   []TypeCount   `json:"byRequestType"`
	OpenTasks       []TaskSummary `json:"openTasks"`
	EscalatedTasks  []TaskSummary `json:"escalatedTasks"`
}

// StatusCount is the number of cases currently in a status.
type StatusCount struct {
	StatusID int64  `json:"statusId"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
}

// TypeCount is the number of data principal requests of a type.
type TypeCount struct {
	RequestType string `json:"requestType"`
	Count       int    `json:"count"`
}

// TaskSummary is a compact open case row for dashboard lists.
type TaskSummary struct {
	CaseID     int64     `json:"caseId"`
	Kind       string    `json:"kind"`
	Requester  string    `json:"requester"`
	StatusName string    `json:"statusName"`
	AssignedTo int64     `json:"assignedTo"`
	DueDate    time.Time `json:"dueDate"`
	Overdue    bool      `json:"overdue"`
}
