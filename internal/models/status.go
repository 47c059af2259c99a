package models

import "time"

// Catalogue status ids.
const (
	StatusSubmitted    int64 = 1
	StatusInProgress   int64 = 2
	StatusAwaitingInfo int64 = 3
	StatusReassigned   int64 = 4
	StatusEscalated    int64 = 5
	StatusClosed       int64 = 6
)

// Status is a lifecycle state with the number of days a case may spend in it.
type Status struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	SLADays    int    `db:"sla_days" json:"sla_days"`
	IsActive   bool   `db:"is_active" json:"is_active"`
	IsTerminal bool   `db:"is_terminal" json:"is_terminal"`
}

// DueFrom returns t shifted by the status SLA.
func (s Status) DueFrom(t time.Time) time.Time {
	return t.AddDate(0, 0, s.SLADays)
}

// DefaultStatuses is the fixed status catalogue. Closed is the single terminal state.
func DefaultStatuses() []Status {
	return []Status{
		{ID: StatusSubmitted, Name: "Submitted", SLADays: 7, IsActive: true},
		{ID: StatusInProgress, Name: "InProgress", SLADays: 5, IsActive: true},
		{ID: StatusAwaitingInfo, Name: "AwaitingInfo", SLADays: 3, IsActive: true},
		{ID: StatusReassigned, Name: "Reassigned", SLADays: 5, IsActive: true},
		{ID: StatusEscalated, Name: "Escalated", SLADays: 2, IsActive: true},
		{ID: StatusClosed, Name: "Closed", SLADays: 0, IsActive: true, IsTerminal: true},
	}
}
