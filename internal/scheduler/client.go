package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"canna_portal_backend/platform/config"
)

const purchaseMaxRetry = 8

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleFollowUpReminder queues a reminder for runAt. Scheduling the same
// lead and follow-up date twice is a no-op.
func (c *Client) ScheduleFollowUpReminder(ctx context.Context, leadID uuid.UUID, followUpAt time.Time, runAt time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewFollowUpReminderTask(FollowUpReminderPayload{
		LeadID:     leadID.String(),
		FollowUpAt: followUpAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	taskID := fmt.Sprintf("follow-up:%s:%d", leadID, followUpAt.Unix())
	return c.enqueue(ctx, task, asynq.ProcessAt(runAt), asynq.TaskID(taskID))
}

// EnqueueAffiliatePurchase queues commission tracking for a paid order. The
// task ID is derived from the order so redelivered payments enqueue once.
func (c *Client) EnqueueAffiliatePurchase(ctx context.Context, clientID, orderID uuid.UUID, orderValue decimal.Decimal) error {
	if c == nil || c.client == nil {
		return errors.New("scheduler client not configured")
	}

	task, err := NewAffiliatePurchaseTask(AffiliatePurchasePayload{
		ClientID:   clientID.String(),
		OrderID:    orderID.String(),
		OrderValue: orderValue.String(),
	})
	if err != nil {
		return err
	}

	return c.enqueue(ctx, task, asynq.TaskID("affiliate-purchase:"+orderID.String()), asynq.MaxRetry(purchaseMaxRetry))
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	opts = append(opts, asynq.Queue(c.queue))
	_, err := c.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return "default"
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
