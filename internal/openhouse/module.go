// Package openhouse provides the open-house lead registry module.
package openhouse

import (
	"estate_portal_backend/internal/events"
	apphttp "estate_portal_backend/internal/http"
	"estate_portal_backend/internal/openhouse/handler"
	"estate_portal_backend/internal/openhouse/repository"
	"estate_portal_backend/internal/openhouse/service"
	"estate_portal_backend/platform/config"
	"estate_portal_backend/platform/httpkit"
	"estate_portal_backend/platform/logger"
	"estate_portal_backend/platform/metrics"
	"estate_portal_backend/platform/phone"
	"estate_portal_backend/platform/validator"
)

// Module is the open-house bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the open-house module. The activity recorder is wired
// separately with SetActivityRecorder.
func NewModule(db repository.DBTX, eventBus events.Bus, val *validator.Validator, cfg config.OpenHouseConfig, m *metrics.Metrics, log *logger.Logger) *Module {
	svc := service.New(
		repository.New(db),
		eventBus,
		val,
		phone.NewNormalizer(cfg.GetPhoneDefaultRegion()),
		log.With("component", "openhouse"),
	)
	svc.SetMetrics(m)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "openhouse"
}

// Service returns the registry service.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetActivityRecorder feeds registrations of known clients into lead tracking.
func (m *Module) SetActivityRecorder(r service.ActivityRecorder) {
	m.service.SetActivityRecorder(r)
}

// RegisterRoutes mounts the public sign-in form and the agent endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/open-houses")
	if ctx.PublicFormLimiter != nil {
		public.Use(ctx.PublicFormLimiter.RateLimit())
	}
	public.Use(httpkit.OptionalAuth(ctx.Config))
	m.handler.RegisterPublicRoutes(public)

	m.handler.RegisterRoutes(ctx.Protected.Group("/open-houses"))
}

var _ apphttp.Module = (*Module)(nil)
