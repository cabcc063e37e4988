// Package commissions provides consultant commission reporting over
// finalized leads.
package commissions

import (
	"canna_portal_backend/internal/commissions/handler"
	"canna_portal_backend/internal/commissions/ports"
	"canna_portal_backend/internal/commissions/service"
	apphttp "canna_portal_backend/internal/http"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/validator"
)

// Module is the commissions bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the commissions module.
func NewModule(leads ports.LeadSource, rates ports.ConsultantRates, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{handler: handler.New(service.New(leads, rates, log), val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "commissions"
}

// RegisterRoutes mounts the commission report on the protected API group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/commissions", m.handler.Report)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
