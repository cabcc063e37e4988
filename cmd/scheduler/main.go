package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"canna_portal_backend/internal/adapters"
	"canna_portal_backend/internal/affiliates"
	"canna_portal_backend/internal/broker"
	"canna_portal_backend/internal/email"
	"canna_portal_backend/internal/events"
	identityrepo "canna_portal_backend/internal/identity/repository"
	identityservice "canna_portal_backend/internal/identity/service"
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
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	// Purchases tracked by the worker publish AffiliatePurchaseTracked here,
	// so the forwarder runs in this process too.
	if cfg.IsBrokerEnabled() {
		conn, err := broker.Dial(cfg.GetAMQPURL(), cfg.GetAMQPExchange())
		if err != nil {
			log.Error("event broker unavailable; forwarding disabled", "error", err)
		} else {
			defer func() { _ = conn.Close() }()
			broker.NewForwarder(conn, log).RegisterHandlers(eventBus)
		}
	}

	val := validator.New()

	// Worker-side wiring only; no HTTP routes are mounted here.
	identitySvc := identityservice.New(identityrepo.New(pool), eventBus, log)
	stagesModule := stages.NewModule(pool, val, log)
	leadsModule := leads.NewModule(pool, adapters.NewStageRegistry(stagesModule.Service()), identitySvc, eventBus, val, log)
	affiliatesModule := affiliates.NewModule(pool, nil, nil, eventBus, cfg, val, log)
	notificationModule := notification.New(email.NewSender(cfg), identitySvc, leadsModule.ManagementService(), nil, cfg, log)

	retentionInterval := getDurationEnv("WEBHOOK_RETENTION_INTERVAL", time.Hour)
	retention := time.Duration(getPositiveIntEnv("WEBHOOK_RETENTION_DAYS", 30)) * 24 * time.Hour
	deliveryRetention := scheduler.NewDeliveryRetention(webhook.NewRepository(pool), log, retentionInterval, retention)
	go deliveryRetention.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, notificationModule, affiliatesModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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

func getPositiveIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
