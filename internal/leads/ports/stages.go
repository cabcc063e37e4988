// Package ports defines what the leads context needs from other contexts.
// Adapters in internal/adapters implement them.
package ports

import (
	"context"

	"github.com/google/uuid"

	"canna_portal_backend/internal/leads/domain"
)

// StageView is a registry stage with the presentation fields the board
// needs.
type StageView struct {
	domain.StageRef
	ID    uuid.UUID
	Color string
	Icon  string
}

// StageRegistry reads the stage registry, inactive stages included, in
// position order.
type StageRegistry interface {
	Stages(ctx context.Context) ([]StageView, error)
}
