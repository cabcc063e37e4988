// Package webhook provides the partner webhook bounded context module:
// prescription approvals from partner clinics and paid orders from the
// commerce side.
package webhook

import (
	"canna_portal_backend/internal/events"
	apphttp "canna_portal_backend/internal/http"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	keys    []string
}

// NewModule creates and initializes the webhook module with all its dependencies.
func NewModule(pool *pgxpool.Pool, leads LeadAdvancer, eventBus events.Bus, keys []string, val *validator.Validator, log *logger.Logger) *Module {
	service := NewService(NewRepository(pool), leads, eventBus, val, log)

	return &Module{
		handler: NewHandler(service, val),
		keys:    keys,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public webhook endpoint (API key auth, no JWT)
	webhookGroup := ctx.V1.Group("/webhook/partners")
	if ctx.PublicRateLimiter != nil {
		webhookGroup.Use(ctx.PublicRateLimiter.RateLimit())
	}
	webhookGroup.Use(APIKeyAuthMiddleware(m.keys))
	webhookGroup.POST("/events", m.handler.HandlePartnerEvent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
