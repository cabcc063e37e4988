// Package kanban provides the lead board bounded context: server-side
// resolution of drag-and-drop moves.
package kanban

import (
	apphttp "canna_portal_backend/internal/http"
	"canna_portal_backend/internal/kanban/handler"
	"canna_portal_backend/internal/kanban/service"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/validator"
)

// Module is the kanban bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the kanban module over a board source.
func NewModule(source service.BoardSource, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{handler: handler.New(service.New(source, log), val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "kanban"
}

// RegisterRoutes mounts kanban routes on the protected API group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/kanban/drop", m.handler.Drop)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
