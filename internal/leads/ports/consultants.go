package ports

import (
	"context"

	"github.com/google/uuid"
)

// ConsultantDirectory answers whether a user may own leads.
type ConsultantDirectory interface {
	IsAssignable(ctx context.Context, userID uuid.UUID) (bool, error)
}
