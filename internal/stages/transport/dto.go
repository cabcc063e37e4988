package transport

import "github.com/google/uuid"

// CreateStageRequest contains data for creating a pipeline stage.
type CreateStageRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100,slugsafe"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Color       *string `json:"color,omitempty" validate:"omitempty,max=20"`
	Icon        *string `json:"icon,omitempty" validate:"omitempty,max=50"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// UpdateStageRequest contains data for updating a stage. Renaming a stage
// recomputes its slug.
type UpdateStageRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100,slugsafe"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Color       *string `json:"color,omitempty" validate:"omitempty,max=20"`
	Icon        *string `json:"icon,omitempty" validate:"omitempty,max=50"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// ReorderStagesRequest lists every stage ID in its new order.
type ReorderStagesRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,dive,required"`
}

// ListStagesRequest holds query parameters for listing stages.
type ListStagesRequest struct {
	IncludeInactive bool `form:"includeInactive"`
}

// StageResponse represents a stage in API responses. ColorHex and
// IconName are the resolved presentation values with defaults applied.
type StageResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Color       *string   `json:"color,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
	ColorHex    string    `json:"colorHex"`
	IconName    string    `json:"iconName"`
	Position    int       `json:"position"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

// StageListResponse wraps an ordered list of stages.
type StageListResponse struct {
	Items []StageResponse `json:"items"`
	Total int             `json:"total"`
}

// UpdateStageResponse reports the updated stage and how many leads were
// carried over to a new slug.
type UpdateStageResponse struct {
	Stage         StageResponse `json:"stage"`
	MigratedLeads int           `json:"migratedLeads"`
}

// DeleteStageResponse reports the outcome of a stage deletion. Leads that
// still reference the removed slug are counted in OrphanedLeads.
type DeleteStageResponse struct {
	Deleted       bool   `json:"deleted"`
	OrphanedLeads int    `json:"orphanedLeads"`
	Warning       string `json:"warning,omitempty"`
}
