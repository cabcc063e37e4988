// Package leads provides the lead pipeline bounded context: lead records,
// stage moves with their history, and consultant assignment.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"canna_portal_backend/internal/events"
	apphttp "canna_portal_backend/internal/http"
	"canna_portal_backend/internal/leads/handler"
	"canna_portal_backend/internal/leads/management"
	"canna_portal_backend/internal/leads/ports"
	"canna_portal_backend/internal/leads/repository"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	management *management.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, stages ports.StageRegistry, consultants ports.ConsultantDirectory, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := management.New(repo, stages, consultants, eventBus, log)

	return &Module{
		handler:    handler.New(svc, val),
		management: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// ManagementService returns the lead service for other modules' adapters.
func (m *Module) ManagementService() *management.Service {
	return m.management
}

// RegisterRoutes mounts lead routes on the protected API group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
