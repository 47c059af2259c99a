package dto

// CreateOrganisationRequest registers a tenant.
type CreateOrganisationRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	IndustryID   int64  `json:"industryId" validate:"required,gt=0"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone string `json:"contactPhone" validate:"omitempty,max=32"`
	Address      string `json:"address" validate:"omitempty,max=500"`
}

// UpdateOrganisationRequest patches a tenant. Nil fields are left unchanged.
type UpdateOrganisationRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=200"`
	IndustryID   *int64  `json:"industryId" validate:"omitempty,gt=0"`
	ContactEmail *string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone *string `json:"contactPhone" validate:"omitempty,max=32"`
	Address      *string `json:"address" validate:"omitempty,max=500"`
	IsActive     *bool   `json:"isActive"`
}

// IntakeLinkResponse carries the public intake URL for an organisation.
type IntakeLinkResponse struct {
	OrganisationID int64  `json:"organisationId"`
	Token          string `json:"token"`
	URL            string `json:"url"`
}
