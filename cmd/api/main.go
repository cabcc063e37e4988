package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"canna_portal_backend/internal/adapters"
	"canna_portal_backend/internal/affiliates"
	"canna_portal_backend/internal/broker"
	"canna_portal_backend/internal/commissions"
	"canna_portal_backend/internal/email"
	"canna_portal_backend/internal/events"
	apphttp "canna_portal_backend/internal/http"
	"canna_portal_backend/internal/http/router"
	"canna_portal_backend/internal/identity"
	"canna_portal_backend/internal/kanban"
	"canna_portal_backend/internal/leads"
	"canna_portal_backend/internal/notification"
	"canna_portal_backend/internal/scheduler"
	"canna_portal_backend/internal/stages"
	"canna_portal_backend/internal/webhook"
	"canna_portal_backend/platform/config"
	"canna_portal_backend/platform/db"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

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

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	rdb := initRedis(ctx, cfg, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	taskClient := initTaskClient(cfg, log)
	if taskClient != nil {
		defer func() { _ = taskClient.Close() }()
	}

	if closeBroker := initBroker(cfg, eventBus, log); closeBroker != nil {
		defer closeBroker()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules
	// ========================================================================

	stagesModule := stages.NewModule(pool, val, log)

	var purchaseQueue affiliates.PurchaseQueue
	if taskClient != nil {
		purchaseQueue = taskClient
	}
	affiliatesModule := affiliates.NewModule(pool, rdb, purchaseQueue, eventBus, cfg, val, log)

	identityModule := identity.NewModule(pool, eventBus, affiliatesModule.Service(), cfg.GetAffiliateCookieName(), val, log)

	leadsModule := leads.NewModule(pool, adapters.NewStageRegistry(stagesModule.Service()), identityModule.Service(), eventBus, val, log)
	leadService := leadsModule.ManagementService()

	kanbanModule := kanban.NewModule(adapters.NewKanbanBoard(leadService), val, log)

	commissionsModule := commissions.NewModule(
		adapters.NewCommissionLeads(leadService),
		adapters.NewCommissionRates(identityModule.Service()),
		val,
		log,
	)

	webhookModule := webhook.NewModule(pool, leadService, eventBus, cfg.GetPartnerWebhookKeys(), val, log)

	var reminders notification.ReminderScheduler
	if taskClient != nil {
		reminders = taskClient
	}
	notificationModule := notification.New(email.NewSender(cfg), identityModule.Service(), leadService, reminders, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	health := []apphttp.HealthCheck{{Name: "database", Checker: pool}}
	if rdb != nil {
		health = append(health, apphttp.HealthCheck{
			Name:     "redis",
			Checker:  apphttp.HealthFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
			Optional: true,
		})
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			stagesModule,
			leadsModule,
			kanbanModule,
			identityModule,
			affiliatesModule,
			commissionsModule,
			webhookModule,
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initRedis connects the affiliate session store. Without Redis the API
// still serves links, but clicks are not deduplicated per session.
func initRedis(ctx context.Context, cfg config.SchedulerConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; affiliate sessions disabled")
		return nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		return nil
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("redis unreachable; affiliate sessions disabled", "error", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func initTaskClient(cfg config.SchedulerConfig, log *logger.Logger) *scheduler.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up reminders disabled and purchases tracked inline")
		return nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task client", "error", err)
		return nil
	}
	return client
}

func initBroker(cfg config.BrokerConfig, bus *events.InMemoryBus, log *logger.Logger) func() {
	if !cfg.IsBrokerEnabled() {
		return nil
	}

	conn, err := broker.Dial(cfg.GetAMQPURL(), cfg.GetAMQPExchange())
	if err != nil {
		log.Error("event broker unavailable; forwarding disabled", "error", err)
		return nil
	}

	broker.NewForwarder(conn, log).RegisterHandlers(bus)
	log.Info("event forwarding enabled", "exchange", cfg.GetAMQPExchange())
	return func() { _ = conn.Close() }
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
