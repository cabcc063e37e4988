package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Stage is one pipeline column as stored.
type Stage struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description *string
	Color       *string
	Icon        *string
	Position    int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams contains parameters for creating a stage. Position is
// assigned by the store as max(position)+1.
type CreateParams struct {
	Name        string
	Slug        string
	Description *string
	Color       *string
	Icon        *string
	IsActive    bool
}

// UpdateParams contains parameters for updating a stage. Nil fields are
// left untouched.
type UpdateParams struct {
	ID          uuid.UUID
	Name        *string
	Slug        *string
	Description *string
	Color       *string
	Icon        *string
	IsActive    *bool
}

// StageReader provides read operations for stages.
type StageReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Stage, error)
	GetBySlug(ctx context.Context, slug string) (Stage, error)
	List(ctx context.Context, includeInactive bool) ([]Stage, error)
	CountLeadsWithStatus(ctx context.Context, slug string) (int, error)
}

// StageWriter provides write operations for stages.
type StageWriter interface {
	Create(ctx context.Context, params CreateParams) (Stage, error)
	// Update applies params and, when the slug changes, moves every lead
	// on oldSlug to the new slug in the same transaction. It returns the
	// number of leads moved.
	Update(ctx context.Context, params UpdateParams, oldSlug string) (Stage, int, error)
	// Delete removes the stage and reports whether a row existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// Reorder assigns positions 0..n-1 following the order of ids.
	Reorder(ctx context.Context, ids []uuid.UUID) error
}

// Repository combines all stage repository operations.
type Repository interface {
	StageReader
	StageWriter
}
