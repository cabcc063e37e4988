package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"canna_portal_backend/platform/db"
)

const (
	vendorColumns           = `id, full_name, email, is_active, is_external_vendor, affiliate_code, commission_rate`
	eventColumns            = `id, vendor_id, event_type, affiliate_code, client_id, order_id, order_value, commission_value, ip_address, user_agent, referrer, created_at`
	codeUniqueConstraint    = "users_affiliate_code_key"
	registrationEventInsert = `
		INSERT INTO affiliate_tracking_events (vendor_id, event_type, affiliate_code, client_id)
		VALUES ($1, 'registration', $2, $3)`
	orderUpsert = `
		INSERT INTO orders (id, client_id, total, affiliate_vendor_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET affiliate_vendor_id = COALESCE(orders.affiliate_vendor_id, EXCLUDED.affiliate_vendor_id)`
	purchaseEventInsert = `
		INSERT INTO affiliate_tracking_events
			(vendor_id, event_type, affiliate_code, client_id, order_id, order_value, commission_value)
		VALUES ($1, 'purchase', $2, $3, $4, $5, $6)
		ON CONFLICT (order_id) WHERE event_type = 'purchase' DO NOTHING`
)

// execer is the part of pgx.Tx a purchase write needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new affiliates repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetVendorByID retrieves a user by ID, vendor or not.
func (r *Repo) GetVendorByID(ctx context.Context, id uuid.UUID) (Vendor, error) {
	v, err := scanVendor(r.pool.QueryRow(ctx, `SELECT `+vendorColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Vendor{}, ErrNotFound
	}
	if err != nil {
		return Vendor{}, fmt.Errorf("get vendor: %w", err)
	}
	return v, nil
}

// GetActiveVendorByCode looks a vendor up by exact code.
func (r *Repo) GetActiveVendorByCode(ctx context.Context, code string) (Vendor, error) {
	v, err := scanVendor(r.pool.QueryRow(ctx, `
		SELECT `+vendorColumns+`
		FROM users
		WHERE affiliate_code = $1 AND is_external_vendor = true AND is_active = true`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Vendor{}, ErrNotFound
	}
	if err != nil {
		return Vendor{}, fmt.Errorf("get vendor by code: %w", err)
	}
	return v, nil
}

// CodeExists reports whether any user holds code.
func (r *Repo) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE affiliate_code = $1)`, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("check affiliate code: %w", err)
	}
	return exists, nil
}

// GetClientVendor returns the vendor attributed to a client.
func (r *Repo) GetClientVendor(ctx context.Context, clientID uuid.UUID) (*uuid.UUID, error) {
	var vendorID *uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT affiliate_vendor_id FROM users WHERE id = $1`, clientID).Scan(&vendorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client vendor: %w", err)
	}
	return vendorID, nil
}

// EnableVendor turns a user into an external vendor.
func (r *Repo) EnableVendor(ctx context.Context, id uuid.UUID, code string, rate string) (Vendor, error) {
	v, err := scanVendor(r.pool.QueryRow(ctx, `
		UPDATE users
		SET is_external_vendor = true,
			affiliate_code = $2,
			commission_rate = $3,
			updated_at = now()
		WHERE id = $1
		RETURNING `+vendorColumns, id, code, rate))
	if errors.Is(err, pgx.ErrNoRows) {
		return Vendor{}, ErrNotFound
	}
	if db.IsUniqueViolation(err, codeUniqueConstraint) {
		return Vendor{}, ErrCodeTaken
	}
	if err != nil {
		return Vendor{}, fmt.Errorf("enable vendor: %w", err)
	}
	return v, nil
}

// InsertClick appends a click event.
func (r *Repo) InsertClick(ctx context.Context, params ClickParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO affiliate_tracking_events (vendor_id, event_type, affiliate_code, ip_address, user_agent, referrer)
		VALUES ($1, 'click', $2, $3, $4, $5)`,
		params.VendorID, params.AffiliateCode, params.IPAddress, params.UserAgent, params.Referrer)
	if err != nil {
		return fmt.Errorf("insert click: %w", err)
	}
	return nil
}

// RecordRegistration attributes a client to a vendor once.
func (r *Repo) RecordRegistration(ctx context.Context, vendor Vendor, clientID uuid.UUID) (bool, error) {
	code := ""
	if vendor.AffiliateCode != nil {
		code = *vendor.AffiliateCode
	}

	linked := false
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE users
			SET affiliate_vendor_id = $2, affiliate_linked_at = now(), updated_at = now()
			WHERE id = $1 AND affiliate_vendor_id IS NULL AND id <> $2`, clientID, vendor.ID)
		if err != nil {
			return fmt.Errorf("link client: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, registrationEventInsert, vendor.ID, code, clientID); err != nil {
			return fmt.Errorf("insert registration: %w", err)
		}
		linked = true
		return nil
	})
	return linked, err
}

// RecordPurchase links the order and appends the purchase event, once per
// order. The partial unique index on purchase order ids settles concurrent
// deliveries of the same order.
func (r *Repo) RecordPurchase(ctx context.Context, params PurchaseParams) (bool, error) {
	recorded := false
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		recorded, err = recordPurchase(ctx, tx, params)
		return err
	})
	return recorded, err
}

func recordPurchase(ctx context.Context, tx execer, params PurchaseParams) (bool, error) {
	if _, err := tx.Exec(ctx, orderUpsert,
		params.OrderID, params.ClientID, params.OrderValue, params.VendorID); err != nil {
		return false, fmt.Errorf("upsert order: %w", err)
	}

	tag, err := tx.Exec(ctx, purchaseEventInsert,
		params.VendorID, params.AffiliateCode, params.ClientID, params.OrderID,
		params.OrderValue, params.CommissionValue)
	if err != nil {
		return false, fmt.Errorf("insert purchase: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountEvents counts a vendor's events by type.
func (r *Repo) CountEvents(ctx context.Context, vendorID uuid.UUID) (Counts, error) {
	var c Counts
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE event_type = 'click'),
			COUNT(*) FILTER (WHERE event_type = 'registration'),
			COUNT(*) FILTER (WHERE event_type = 'purchase')
		FROM affiliate_tracking_events
		WHERE vendor_id = $1`, vendorID).Scan(&c.Clicks, &c.Registrations, &c.Purchases)
	if err != nil {
		return Counts{}, fmt.Errorf("count affiliate events: %w", err)
	}
	return c, nil
}

// SumPurchases totals the order and commission values of purchase events.
func (r *Repo) SumPurchases(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	var revenue, commission decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(order_value), 0)::text, COALESCE(SUM(commission_value), 0)::text
		FROM affiliate_tracking_events
		WHERE vendor_id = $1 AND event_type = 'purchase'`, vendorID).Scan(&revenue, &commission)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("sum purchases: %w", err)
	}
	return revenue, commission, nil
}

// RecentEvents returns the newest events of a vendor.
func (r *Repo) RecentEvents(ctx context.Context, vendorID uuid.UUID, limit int) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM affiliate_tracking_events
		WHERE vendor_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, vendorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list affiliate events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.VendorID, &e.EventType, &e.AffiliateCode, &e.ClientID, &e.OrderID,
			&e.OrderValue, &e.CommissionValue, &e.IPAddress, &e.UserAgent, &e.Referrer, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan affiliate event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate affiliate events: %w", err)
	}
	return events, nil
}

func scanVendor(row pgx.Row) (Vendor, error) {
	var v Vendor
	err := row.Scan(&v.ID, &v.FullName, &v.Email, &v.IsActive, &v.IsExternalVendor, &v.AffiliateCode, &v.CommissionRate)
	return v, err
}
