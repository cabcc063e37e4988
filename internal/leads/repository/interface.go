package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("lead not found")
	ErrStaleVersion    = errors.New("lead version is stale")
	ErrAlreadyAssigned = errors.New("lead already assigned")
)

// Lead is a pipeline opportunity as stored. Status holds a stage slug.
type Lead struct {
	ID                    uuid.UUID
	ClientID              *uuid.UUID
	PatientName           string
	PatientEmail          string
	PatientPhone          string
	ConsultantID          *uuid.UUID
	AssignedConsultantID  *uuid.UUID
	AssignedAt            *time.Time
	Status                string
	Priority              string
	LeadScore             *int
	Tags                  []string
	Source                *string
	Company               *string
	JobTitle              *string
	AddressStreet         *string
	AddressNumber         *string
	AddressComplement     *string
	AddressNeighborhood   *string
	AddressCity           *string
	AddressState          *string
	AddressZipCode        *string
	Website               *string
	LinkedInURL           *string
	InstagramURL          *string
	Budget                *string
	EstimatedValue        *string
	ConversionProbability *int
	NextFollowUp          *time.Time
	LostReason            *string
	Notes                 *string
	Version               int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CreateLeadParams contains the columns written when a lead is created.
type CreateLeadParams struct {
	ClientID             *uuid.UUID
	PatientName          string
	PatientEmail         string
	PatientPhone         string
	ConsultantID         *uuid.UUID
	AssignedConsultantID *uuid.UUID
	Status               string
	Priority             string
	LeadScore            *int
	Tags                 []string
	Source               *string
	Company              *string
	JobTitle             *string
	EstimatedValue       *string
	NextFollowUp         *time.Time
	Notes                *string
}

// UpdateLeadParams is a partial update. Nil pointers and a nil Tags slice
// leave the column untouched. When ExpectedVersion is set the write only
// applies to that version of the row.
type UpdateLeadParams struct {
	ID                    uuid.UUID
	ExpectedVersion       *int
	PatientName           *string
	PatientEmail          *string
	PatientPhone          *string
	Priority              *string
	LeadScore             *int
	Tags                  []string
	Source                *string
	Company               *string
	JobTitle              *string
	AddressStreet         *string
	AddressNumber         *string
	AddressComplement     *string
	AddressNeighborhood   *string
	AddressCity           *string
	AddressState          *string
	AddressZipCode        *string
	Website               *string
	LinkedInURL           *string
	InstagramURL          *string
	Budget                *string
	EstimatedValue        *string
	ConversionProbability *int
	NextFollowUp          *time.Time
	LostReason            *string
	Notes                 *string
}

// StatusChangeParams describes one stage move. PreviousStatus is the
// status the caller validated the move against; the write is refused if
// the row no longer carries it.
type StatusChangeParams struct {
	LeadID          uuid.UUID
	PreviousStatus  string
	NewStatus       string
	ActorID         *uuid.UUID
	Notes           *string
	EstimatedValue  *string
	ExpectedVersion *int
}

// AssignParams sets or clears the assigned consultant.
type AssignParams struct {
	LeadID       uuid.UUID
	ConsultantID *uuid.UUID
	// OnlyIfUnassigned refuses the write when someone already owns the lead.
	OnlyIfUnassigned bool
}

// AssignResult carries the updated lead and the consultant it replaced.
type AssignResult struct {
	Lead                 Lead
	PreviousConsultantID *uuid.UUID
}

// HistoryEntry is one immutable stage transition.
type HistoryEntry struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	PreviousStatus *string
	NewStatus      string
	ByUserID       *uuid.UUID
	Notes          *string
	CreatedAt      time.Time
}

// ListParams filters and paginates the lead listing.
type ListParams struct {
	Status               string
	AssignedConsultantID *uuid.UUID
	Priority             string
	Search               string
	Offset               int
	Limit                int
}

// LeadReader provides read operations for leads.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
	ListByStatus(ctx context.Context, status string) ([]Lead, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Lead, error)
}

// LeadWriter provides write operations for leads.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	Update(ctx context.Context, params UpdateLeadParams) (Lead, error)
	Assign(ctx context.Context, params AssignParams) (AssignResult, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// StatusWriter moves a lead between stages. The status write and its
// history entry commit together or not at all.
type StatusWriter interface {
	ChangeStatus(ctx context.Context, params StatusChangeParams) (Lead, HistoryEntry, error)
}

// HistoryReader lists stage transitions.
type HistoryReader interface {
	ListHistory(ctx context.Context, leadID uuid.UUID) ([]HistoryEntry, error)
}

// Repository combines all lead repository operations.
type Repository interface {
	LeadReader
	LeadWriter
	StatusWriter
	HistoryReader
}
