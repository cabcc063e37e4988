package transport

import (
	"github.com/google/uuid"

	"canna_portal_backend/internal/kanban/reconcile"
)

// DropRequest describes where a dragged card was released. Version is the
// lead version the client's board was rendered with.
type DropRequest struct {
	LeadID  uuid.UUID        `json:"leadId" validate:"required"`
	Version int              `json:"version" validate:"omitempty,min=1"`
	Pointer reconcile.Point  `json:"pointer"`
	Dragged reconcile.Rect   `json:"dragged"`
	Layout  reconcile.Layout `json:"layout"`
}

// DropResponse reports how the drop settled and the card as the server
// now holds it.
type DropResponse struct {
	Outcome reconcile.Outcome `json:"outcome"`
	LeadID  uuid.UUID         `json:"leadId"`
	From    string            `json:"from"`
	To      string            `json:"to"`
	Card    reconcile.Card    `json:"card"`
}
