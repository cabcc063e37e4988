package scheduler

import (
	"context"
	"time"

	"canna_portal_backend/platform/logger"
)

const (
	defaultRetentionInterval = time.Hour
	defaultDeliveryRetention = 30 * 24 * time.Hour
)

// DeliveryPruner removes stored webhook deliveries received before a cutoff.
type DeliveryPruner interface {
	DeleteReceivedBefore(ctx context.Context, before time.Time) (int64, error)
}

// DeliveryRetention periodically prunes old partner webhook deliveries.
// Deliveries are kept long enough to absorb partner retries.
type DeliveryRetention struct {
	repo      DeliveryPruner
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewDeliveryRetention(repo DeliveryPruner, log *logger.Logger, interval, retention time.Duration) *DeliveryRetention {
	if interval <= 0 {
		interval = defaultRetentionInterval
	}
	if retention <= 0 {
		retention = defaultDeliveryRetention
	}

	return &DeliveryRetention{
		repo:      repo,
		log:       log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

func (c *DeliveryRetention) Run(ctx context.Context) {
	if c == nil || c.repo == nil {
		return
	}

	c.prune(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.prune(ctx)
		}
	}
}

func (c *DeliveryRetention) prune(ctx context.Context) {
	deleted, err := c.repo.DeleteReceivedBefore(ctx, c.now().Add(-c.retention))
	if err != nil {
		c.log.Warn("webhook delivery pruning failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("webhook delivery pruning removed old deliveries", "deleted", deleted)
	}
}
