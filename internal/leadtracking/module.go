// Package leadtracking provides the lead scoring and engagement tracking
// bounded context module.
package leadtracking

import (
	"fmt"
	"time"

	"estate_portal_backend/internal/events"
	apphttp "estate_portal_backend/internal/http"
	"estate_portal_backend/internal/leadtracking/followups"
	"estate_portal_backend/internal/leadtracking/handler"
	"estate_portal_backend/internal/leadtracking/repository"
	"estate_portal_backend/internal/leadtracking/scorecache"
	"estate_portal_backend/internal/leadtracking/scoring"
	"estate_portal_backend/internal/leadtracking/service"
	"estate_portal_backend/internal/leadtracking/transport"
	"estate_portal_backend/platform/cache"
	"estate_portal_backend/platform/config"
	"estate_portal_backend/platform/logger"
	"estate_portal_backend/platform/metrics"
	"estate_portal_backend/platform/validator"
)

// Infra groups the optional infrastructure the module can use. Nil fields
// disable the corresponding feature.
type Infra struct {
	Cache     *cache.Client
	CacheTTL  time.Duration
	Reminders followups.ReminderScheduler
	Metrics   *metrics.Metrics
}

// Module is the lead tracking bounded context module implementing http.Module.
type Module struct {
	handler   *handler.Handler
	repo      *repository.Repository
	tracker   *service.Tracker
	scheduler *followups.Scheduler
}

// NewModule wires the repository, scoring engine, followup scheduler and
// tracker. Scoring weights are read from the configured YAML file when one
// is set.
func NewModule(db repository.DBTX, eventBus events.Bus, val *validator.Validator, cfg config.ScoringConfig, infra Infra, log *logger.Logger) (*Module, error) {
	weights := scoring.DefaultWeights()
	if path := cfg.GetScoringWeightsFile(); path != "" {
		w, err := scoring.LoadWeights(path)
		if err != nil {
			return nil, fmt.Errorf("load scoring weights: %w", err)
		}
		weights = w
		log.Info("scoring weights loaded", "path", path)
	}

	if err := transport.RegisterValidations(val); err != nil {
		return nil, err
	}

	repo := repository.New(db)
	engine := scoring.NewEngine(repo, repo, scoring.WithWeights(weights))

	opts := []followups.Option{followups.WithMetrics(infra.Metrics)}
	if infra.Reminders != nil {
		opts = append(opts, followups.WithReminders(infra.Reminders))
	}
	sched := followups.New(repo, eventBus, log.With("component", "followups"), followups.Config{
		HotLeadThreshold: cfg.GetHotLeadThreshold(),
		HotLeadDelay:     cfg.GetHotLeadFollowupDelay(),
	}, opts...)

	deps := service.Deps{
		Store:     repo,
		Scorer:    engine,
		Followups: sched,
		Bus:       eventBus,
		Metrics:   infra.Metrics,
		Log:       log.With("component", "leadtracking"),
	}
	if infra.Cache != nil {
		deps.Cache = scorecache.New(infra.Cache, infra.CacheTTL, log, infra.Metrics)
	}
	tracker := service.New(deps)

	return &Module{
		handler:   handler.New(tracker, val),
		repo:      repo,
		tracker:   tracker,
		scheduler: sched,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leadtracking"
}

// Tracker returns the lead tracking facade.
func (m *Module) Tracker() *service.Tracker {
	return m.tracker
}

// Followups returns the followup scheduler for the reminder worker and digest.
func (m *Module) Followups() *followups.Scheduler {
	return m.scheduler
}

// Repository exposes the activity store and agent directory to other modules.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts lead tracking routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/lead-tracking"))
}

var _ apphttp.Module = (*Module)(nil)
