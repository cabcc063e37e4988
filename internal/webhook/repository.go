package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository records partner deliveries so retried webhooks are applied once.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new webhook repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Claim stores the delivery and reports whether it is new.
func (r *Repository) Claim(ctx context.Context, deliveryID, eventType, keyRef string, payload json.RawMessage) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_deliveries (delivery_id, event_type, partner_key, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (delivery_id) DO NOTHING`, deliveryID, eventType, keyRef, payload)
	if err != nil {
		return false, fmt.Errorf("claim webhook delivery: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release forgets a delivery whose processing failed so the partner can
// retry it.
func (r *Repository) Release(ctx context.Context, deliveryID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM webhook_deliveries WHERE delivery_id = $1`, deliveryID); err != nil {
		return fmt.Errorf("release webhook delivery: %w", err)
	}
	return nil
}

// DeleteReceivedBefore prunes deliveries older than before and returns how
// many rows were removed.
func (r *Repository) DeleteReceivedBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM webhook_deliveries WHERE received_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune webhook deliveries: %w", err)
	}
	return tag.RowsAffected(), nil
}
