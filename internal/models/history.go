package models

import "time"

// HistoryEntry records one lifecycle event. Names are snapshots taken when the
// event happened so later renames do not rewrite the audit trail.
type HistoryEntry struct {
	ID             int64     `db:"id" json:"id"`
	CaseID         int64     `db:"case_id" json:"case_id"`
	OrganisationID int64     `db:"organisation_id" json:"organisation_id"`
	StatusID       int64     `db:"status_id" json:"status_id"`
	StatusName     string    `db:"status_name" json:"status_name"`
	AssignedTo     int64     `db:"assigned_to" json:"assigned_to"`
	AssignedToName string    `db:"assigned_to_name" json:"assigned_to_name"`
	UpdatedBy      int64     `db:"updated_by" json:"updated_by"`
	UpdatedByName  string    `db:"updated_by_name" json:"updated_by_name"`
	Comment        string    `db:"comment" json:"comment"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
