// Package stages provides the pipeline stage registry bounded context.
// Stages are the admin-configurable kanban columns; leads reference them
// by slug.
package stages

import (
	apphttp "canna_portal_backend/internal/http"
	"canna_portal_backend/internal/stages/handler"
	"canna_portal_backend/internal/stages/repository"
	"canna_portal_backend/internal/stages/service"
	"canna_portal_backend/platform/httpkit"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the stages bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the stages module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "stages"
}

// Service returns the service layer for use by other modules' adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts stage routes. Reads are open to every
// authenticated user; writes are admin-only.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/lead-stages")
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.GetByID)

	admin := group.Group("")
	admin.Use(httpkit.RequireRole(httpkit.RoleAdmin))
	admin.POST("", m.handler.Create)
	admin.PUT("/order", m.handler.Reorder)
	admin.PATCH("/:id", m.handler.Update)
	admin.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
