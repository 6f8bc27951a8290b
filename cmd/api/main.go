package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estate_portal_backend/internal/adapters"
	"estate_portal_backend/internal/email"
	"estate_portal_backend/internal/events"
	apphttp "estate_portal_backend/internal/http"
	"estate_portal_backend/internal/http/router"
	"estate_portal_backend/internal/leadtracking"
	"estate_portal_backend/internal/leadtracking/followups"
	"estate_portal_backend/internal/notification"
	"estate_portal_backend/internal/openhouse"
	"estate_portal_backend/internal/scheduler"
	"estate_portal_backend/platform/cache"
	"estate_portal_backend/platform/config"
	"estate_portal_backend/platform/db"
	"estate_portal_backend/platform/logger"
	"estate_portal_backend/platform/metrics"
	"estate_portal_backend/platform/monitoring"
	"estate_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	flushSentry, sentryEnabled, err := monitoring.Init(cfg)
	if err != nil {
		log.Error("failed to initialize sentry", "error", err)
	}
	defer flushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if cfg.MigrationsEnabled {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	health := map[string]apphttp.HealthChecker{"database": db.NewPoolAdapter(pool)}

	var redisCache *cache.Client
	if cfg.IsCacheEnabled() {
		redisCache, err = cache.NewClient(ctx, cfg.GetRedisURL())
		if err != nil {
			log.Warn("redis unavailable; lead score cache disabled", "error", err)
		} else {
			defer func() { _ = redisCache.Close() }()
			health["redis"] = redisCache
		}
	}

	eventBus := events.NewInMemoryBus(log)
	appMetrics := metrics.New()
	val := validator.New()

	reminders, closeReminders := initReminderScheduler(cfg, log)
	if closeReminders != nil {
		defer closeReminders()
	}

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadTrackingModule, err := leadtracking.NewModule(pool, eventBus, val, cfg, leadtracking.Infra{
		Cache:     redisCache,
		CacheTTL:  cfg.GetScoreCacheTTL(),
		Reminders: reminders,
		Metrics:   appMetrics,
	}, log)
	if err != nil {
		log.Error("failed to initialize lead tracking module", "error", err)
		panic("failed to initialize lead tracking module: " + err.Error())
	}

	openHouseModule := openhouse.NewModule(pool, eventBus, val, cfg, appMetrics, log)
	openHouseModule.SetActivityRecorder(adapters.NewOpenHouseActivityRecorder(leadTrackingModule.Repository()))

	// Open-house notices go out from the API process; due reminders are
	// published by the scheduler worker.
	notificationModule := notification.New(sender, leadTrackingModule.Repository(), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		Metrics:  appMetrics,
		Sentry:   sentryEnabled,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadTrackingModule,
			openHouseModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initReminderScheduler returns a nil interface, not a typed nil, when
// reminders are unavailable.
func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (followups.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; followup reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
