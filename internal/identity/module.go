// Package identity provides the user directory bounded context module:
// consultants, their commission rates, and client registration.
package identity

import (
	"canna_portal_backend/internal/events"
	apphttp "canna_portal_backend/internal/http"
	"canna_portal_backend/internal/identity/handler"
	"canna_portal_backend/internal/identity/repository"
	"canna_portal_backend/internal/identity/service"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(pool *pgxpool.Pool, eventBus events.Bus, sessions handler.AffiliateSessions, cookieName string, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)
	h := handler.New(svc, val, sessions, cookieName)

	return &Module{handler: h, service: svc}
}

func (m *Module) Name() string {
	return "identity"
}

func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/consultants", m.handler.ListConsultants)
	ctx.Admin.PUT("/consultants/:id/commission-rate", m.handler.UpdateCommissionRate)

	if ctx.PublicRateLimiter != nil {
		ctx.V1.POST("/clients", ctx.PublicRateLimiter.RateLimit(), m.handler.RegisterClient)
	} else {
		ctx.V1.POST("/clients", m.handler.RegisterClient)
	}
}

var _ apphttp.Module = (*Module)(nil)
var _ Directory = (*service.Service)(nil)
