// Package affiliates provides the affiliate attribution bounded context:
// vendor codes, link redirects, tracking events and vendor metrics.
package affiliates

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"canna_portal_backend/internal/affiliates/handler"
	"canna_portal_backend/internal/affiliates/repository"
	"canna_portal_backend/internal/affiliates/service"
	"canna_portal_backend/internal/affiliates/session"
	"canna_portal_backend/internal/events"
	apphttp "canna_portal_backend/internal/http"
	"canna_portal_backend/platform/config"
	"canna_portal_backend/platform/httpkit"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/validator"
)

// Config combines the settings the affiliate module reads.
type Config interface {
	config.SessionConfig
	config.AffiliateConfig
}

// PurchaseQueue defers purchase attribution to a background worker.
type PurchaseQueue interface {
	EnqueueAffiliatePurchase(ctx context.Context, clientID, orderID uuid.UUID, orderValue decimal.Decimal) error
}

// Module is the affiliates bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	queue   PurchaseQueue
	log     *logger.Logger
}

// NewModule creates the affiliates module. rdb and queue may be nil: without
// Redis clicks are not deduplicated per session, and without a queue paid
// orders are attributed inline.
func NewModule(pool *pgxpool.Pool, rdb *redis.Client, queue PurchaseQueue, eventBus events.Bus, cfg Config, val *validator.Validator, log *logger.Logger) *Module {
	var sessions service.SessionStore
	if rdb != nil {
		sessions = session.NewStore(rdb, cfg.GetAffiliateSessionTTL())
	}

	svc := service.New(repository.New(pool), sessions, eventBus, service.Settings{
		DefaultRate: cfg.GetAffiliateDefaultRate(),
		LinkBaseURL: cfg.GetAffiliateLinkBaseURL(),
	}, log)

	m := &Module{
		handler: handler.New(svc, val, handler.CookieSettings{
			Name:         cfg.GetAffiliateCookieName(),
			Secure:       cfg.GetAffiliateCookieSecure(),
			SameSite:     cfg.GetAffiliateCookieSameSite(),
			TTL:          cfg.GetAffiliateSessionTTL(),
			RedirectPath: cfg.GetAffiliateRedirectPath(),
		}),
		service: svc,
		queue:   queue,
		log:     log,
	}

	eventBus.Subscribe(events.ClientRegistered{}.EventName(), events.HandlerFunc(m.onClientRegistered))
	eventBus.Subscribe(events.OrderPaid{}.EventName(), events.HandlerFunc(m.onOrderPaid))

	return m
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "affiliates"
}

// Service returns the affiliate service for the scheduler and identity
// adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the link redirect on unmatched routes and the
// vendor routes on the protected API group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if ctx.PublicRateLimiter != nil {
		ctx.Engine.NoRoute(ctx.PublicRateLimiter.RateLimit(), m.handler.Redirect)
	} else {
		ctx.Engine.NoRoute(m.handler.Redirect)
	}

	group := ctx.Protected.Group("/affiliates")
	group.GET("/me/metrics", m.handler.MyMetrics)
	group.GET("/vendors/:id/metrics", m.handler.VendorMetrics)
	group.POST("/vendors/:id/enable", httpkit.RequireRole(httpkit.RoleAdmin), m.handler.EnableVendor)
}

func (m *Module) onClientRegistered(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ClientRegistered)
	if !ok {
		return nil
	}
	m.service.TrackRegistration(ctx, e.AffiliateCode, e.ClientID)
	return nil
}

func (m *Module) onOrderPaid(ctx context.Context, event events.Event) error {
	e, ok := event.(events.OrderPaid)
	if !ok {
		return nil
	}
	if m.queue != nil {
		err := m.queue.EnqueueAffiliatePurchase(ctx, e.ClientID, e.OrderID, e.OrderValue)
		if err == nil {
			return nil
		}
		m.log.Warn("purchase attribution enqueue failed, tracking inline", "orderId", e.OrderID, "error", err)
	}
	return m.service.TrackPurchase(ctx, e.ClientID, e.OrderID, e.OrderValue)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
