package transport

import (
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// CreateLeadRequest contains data for a manual CRM entry or an intake.
// Status defaults to the first active stage.
type CreateLeadRequest struct {
	ClientID       *uuid.UUID `json:"clientId,omitempty"`
	PatientName    string     `json:"patientName" validate:"required,min=2,max=200"`
	PatientEmail   string     `json:"patientEmail" validate:"required,email,max=254"`
	PatientPhone   string     `json:"patientPhone" validate:"required,phone_br"`
	Status         *string    `json:"status,omitempty" validate:"omitempty,max=100"`
	Priority       Priority   `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	LeadScore      *int       `json:"leadScore,omitempty" validate:"omitempty,min=0,max=100"`
	Tags           []string   `json:"tags,omitempty" validate:"omitempty,max=30,dive,max=50"`
	Source         *string    `json:"source,omitempty" validate:"omitempty,max=100"`
	Company        *string    `json:"company,omitempty" validate:"omitempty,max=200"`
	JobTitle       *string    `json:"jobTitle,omitempty" validate:"omitempty,max=200"`
	EstimatedValue *string    `json:"estimatedValue,omitempty" validate:"omitempty,max=50"`
	NextFollowUp   *string    `json:"nextFollowUp,omitempty"`
	Notes          *string    `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// UpdateLeadRequest is the CRM edit form. Absent, null and blank values
// are all ignored. Version, when given, must match the stored lead.
type UpdateLeadRequest struct {
	Version               *int      `json:"version,omitempty" validate:"omitempty,min=1"`
	PatientName           *string   `json:"patientName,omitempty" validate:"omitempty,max=200"`
	PatientEmail          *string   `json:"patientEmail,omitempty" validate:"omitempty,max=254,email|len=0"`
	PatientPhone          *string   `json:"patientPhone,omitempty" validate:"omitempty,max=40"`
	Priority              *string   `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	LeadScore             *int      `json:"leadScore,omitempty" validate:"omitempty,min=0,max=100"`
	Tags                  *[]string `json:"tags,omitempty" validate:"omitempty,max=30,dive,max=50"`
	Source                *string   `json:"source,omitempty" validate:"omitempty,max=100"`
	Company               *string   `json:"company,omitempty" validate:"omitempty,max=200"`
	JobTitle              *string   `json:"jobTitle,omitempty" validate:"omitempty,max=200"`
	AddressStreet         *string   `json:"addressStreet,omitempty" validate:"omitempty,max=200"`
	AddressNumber         *string   `json:"addressNumber,omitempty" validate:"omitempty,max=20"`
	AddressComplement     *string   `json:"addressComplement,omitempty" validate:"omitempty,max=100"`
	AddressNeighborhood   *string   `json:"addressNeighborhood,omitempty" validate:"omitempty,max=100"`
	AddressCity           *string   `json:"addressCity,omitempty" validate:"omitempty,max=100"`
	AddressState          *string   `json:"addressState,omitempty" validate:"omitempty,max=2"`
	AddressZipCode        *string   `json:"addressZipCode,omitempty" validate:"omitempty,max=10"`
	Website               *string   `json:"website,omitempty" validate:"omitempty,max=300"`
	LinkedInURL           *string   `json:"linkedinUrl,omitempty" validate:"omitempty,max=300"`
	InstagramURL          *string   `json:"instagramUrl,omitempty" validate:"omitempty,max=300"`
	Budget                *string   `json:"budget,omitempty" validate:"omitempty,max=50"`
	EstimatedValue        *string   `json:"estimatedValue,omitempty" validate:"omitempty,max=50"`
	ConversionProbability *int      `json:"conversionProbability,omitempty" validate:"omitempty,min=0,max=100"`
	NextFollowUp          *string   `json:"nextFollowUp,omitempty"`
	LostReason            *string   `json:"lostReason,omitempty" validate:"omitempty,max=500"`
	Notes                 *string   `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// UpdateLeadStatusRequest moves a lead to another stage.
type UpdateLeadStatusRequest struct {
	Status         string  `json:"status" validate:"required,max=100"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	EstimatedValue *string `json:"estimatedValue,omitempty" validate:"omitempty,max=50"`
	Version        *int    `json:"version,omitempty" validate:"omitempty,min=1"`
}

// AssignLeadRequest sets the owning consultant. A null consultantId
// unassigns the lead, which only admins may do.
type AssignLeadRequest struct {
	ConsultantID OptionalUUID `json:"consultantId"`
}

// ListLeadsRequest holds query parameters for the lead listing.
type ListLeadsRequest struct {
	Status       string `form:"status" validate:"omitempty,max=100"`
	ConsultantID string `form:"consultantId" validate:"omitempty,uuid"`
	Priority     string `form:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Search       string `form:"search" validate:"omitempty,max=100"`
	Page         int    `form:"page" validate:"omitempty,min=1"`
	PageSize     int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// LeadResponse represents a lead in API responses.
type LeadResponse struct {
	ID                    uuid.UUID  `json:"id"`
	ClientID              *uuid.UUID `json:"clientId,omitempty"`
	PatientName           string     `json:"patientName"`
	PatientEmail          string     `json:"patientEmail"`
	PatientPhone          string     `json:"patientPhone"`
	ConsultantID          *uuid.UUID `json:"consultantId,omitempty"`
	AssignedConsultantID  *uuid.UUID `json:"assignedConsultantId,omitempty"`
	AssignedAt            *time.Time `json:"assignedAt,omitempty"`
	Status                string     `json:"status"`
	StatusName            string     `json:"statusName"`
	Priority              Priority   `json:"priority"`
	LeadScore             *int       `json:"leadScore,omitempty"`
	Tags                  []string   `json:"tags"`
	Source                *string    `json:"source,omitempty"`
	Company               *string    `json:"company,omitempty"`
	JobTitle              *string    `json:"jobTitle,omitempty"`
	Address               Address    `json:"address"`
	Website               *string    `json:"website,omitempty"`
	LinkedInURL           *string    `json:"linkedinUrl,omitempty"`
	InstagramURL          *string    `json:"instagramUrl,omitempty"`
	Budget                *string    `json:"budget,omitempty"`
	EstimatedValue        *string    `json:"estimatedValue,omitempty"`
	ConversionProbability *int       `json:"conversionProbability,omitempty"`
	NextFollowUp          *time.Time `json:"nextFollowUp,omitempty"`
	LostReason            *string    `json:"lostReason,omitempty"`
	Notes                 *string    `json:"notes,omitempty"`
	Version               int        `json:"version"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

type Address struct {
	Street       *string `json:"street,omitempty"`
	Number       *string `json:"number,omitempty"`
	Complement   *string `json:"complement,omitempty"`
	Neighborhood *string `json:"neighborhood,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	ZipCode      *string `json:"zipCode,omitempty"`
}

// LeadListResponse is one page of leads.
type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// HistoryEntryResponse is one stage transition. Stage names are resolved
// against the current registry and fall back to the stored slug.
type HistoryEntryResponse struct {
	ID                 uuid.UUID  `json:"id"`
	PreviousStatus     *string    `json:"previousStatus,omitempty"`
	PreviousStatusName *string    `json:"previousStatusName,omitempty"`
	NewStatus          string     `json:"newStatus"`
	NewStatusName      string     `json:"newStatusName"`
	ByUserID           *uuid.UUID `json:"byUserId,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// HistoryResponse lists a lead's transitions oldest first.
type HistoryResponse struct {
	Items []HistoryEntryResponse `json:"items"`
}

// BoardColumn is one active stage with the leads currently on it.
type BoardColumn struct {
	StageID  uuid.UUID      `json:"stageId"`
	Slug     string         `json:"slug"`
	Name     string         `json:"name"`
	Color    string         `json:"color"`
	Icon     string         `json:"icon"`
	Position int            `json:"position"`
	Leads    []LeadResponse `json:"leads"`
}

// BoardResponse is the kanban payload, columns in position order.
type BoardResponse struct {
	Columns []BoardColumn `json:"columns"`
}
