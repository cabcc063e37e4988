package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"canna_portal_backend/platform/config"
	"canna_portal_backend/platform/logger"
)

// ReminderSender delivers a due follow-up reminder.
type ReminderSender interface {
	SendFollowUpReminder(ctx context.Context, leadID uuid.UUID, followUpAt time.Time) error
}

// PurchaseTracker records the affiliate side of a paid order.
type PurchaseTracker interface {
	TrackPurchase(ctx context.Context, clientID, orderID uuid.UUID, orderValue decimal.Decimal) error
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	reminders ReminderSender
	purchases PurchaseTracker
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, reminders ReminderSender, purchases PurchaseTracker, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server:    server,
		reminders: reminders,
		purchases: purchases,
		log:       log,
	}
	w.mux = w.routes()
	return w, nil
}

func (w *Worker) routes() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskFollowUpReminder, w.handleFollowUpReminder)
	mux.HandleFunc(TaskAffiliatePurchase, w.handleAffiliatePurchase)
	return mux
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleFollowUpReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpReminderPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("lead id: %v: %w", err, asynq.SkipRetry)
	}

	followUpAt, err := time.Parse(time.RFC3339, payload.FollowUpAt)
	if err != nil {
		return fmt.Errorf("follow-up date: %v: %w", err, asynq.SkipRetry)
	}

	return w.reminders.SendFollowUpReminder(ctx, leadID, followUpAt)
}

func (w *Worker) handleAffiliatePurchase(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAffiliatePurchasePayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	clientID, err := uuid.Parse(payload.ClientID)
	if err != nil {
		return fmt.Errorf("client id: %v: %w", err, asynq.SkipRetry)
	}

	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		return fmt.Errorf("order id: %v: %w", err, asynq.SkipRetry)
	}

	value, err := decimal.NewFromString(payload.OrderValue)
	if err != nil {
		return fmt.Errorf("order value: %v: %w", err, asynq.SkipRetry)
	}

	if err := w.purchases.TrackPurchase(ctx, clientID, orderID, value); err != nil {
		w.log.Warn("affiliate purchase tracking failed", "orderId", orderID, "error", err)
		return err
	}
	return nil
}
