package models

import "time"

// Organisation is a tenant. Cases, users and dashboards are scoped to it.
type Organisation struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	IndustryID   int64     `db:"industry_id" json:"industry_id"`
	IndustryName string    `db:"industry_name" json:"industry_name"`
	ContactEmail string    `db:"contact_email" json:"contact_email"`
	ContactPhone string    `db:"contact_phone" json:"contact_phone"`
	Address      string    `db:"address" json:"address"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Industry struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// DefaultIndustries seeds the industry catalogue.
func DefaultIndustries() []Industry {
	names := []string{"Banking", "Healthcare", "Retail", "Technology", "Telecommunications", "Education", "Insurance", "Other"}
	out := make([]Industry, len(names))
	for i, name := range names {
		out[i] = Industry{ID: int64(i + 1), Name: name}
	}
	return out
}
