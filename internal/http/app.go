// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"estate_portal_backend/internal/events"
	"estate_portal_backend/platform/config"
	"estate_portal_backend/platform/logger"
	"estate_portal_backend/platform/metrics"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// It is populated by main.go and passed to the router.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health maps a dependency name ("database", "redis") to its checker.
	Health map[string]HealthChecker
	// Metrics is optional; when set the router exposes /metrics.
	Metrics *metrics.Metrics
	// Sentry enables the error reporting middleware.
	Sentry   bool
	EventBus events.Bus
	Modules  []Module
}
