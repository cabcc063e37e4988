// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"canna_portal_backend/internal/events"
	"canna_portal_backend/platform/config"
	"canna_portal_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker is a dependency the health endpoint pings.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthFunc adapts a function to HealthChecker.
type HealthFunc func(ctx context.Context) error

func (f HealthFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthCheck names a dependency in the health response.
type HealthCheck struct {
	Name    string
	Checker HealthChecker
	// Optional checks are reported but never fail the health check.
	Optional bool
}

// App holds what main wires together for the router.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   []HealthCheck
	EventBus events.Bus
	Modules  []Module
}
