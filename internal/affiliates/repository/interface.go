package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("affiliate record not found")
	ErrCodeTaken = errors.New("affiliate code already taken")
)

// Event types stored in affiliate_tracking_events.
const (
	EventClick        = "click"
	EventRegistration = "registration"
	EventPurchase     = "purchase"
)

// Vendor is a user seen through the affiliate program.
type Vendor struct {
	ID               uuid.UUID
	FullName         string
	Email            string
	IsActive         bool
	IsExternalVendor bool
	AffiliateCode    *string
	CommissionRate   *string
}

// Event is one append-only tracking row.
type Event struct {
	ID              uuid.UUID
	VendorID        uuid.UUID
	EventType       string
	AffiliateCode   string
	ClientID        *uuid.UUID
	OrderID         *uuid.UUID
	OrderValue      decimal.NullDecimal
	CommissionValue decimal.NullDecimal
	IPAddress       *string
	UserAgent       *string
	Referrer        *string
	CreatedAt       time.Time
}

// ClickParams describes a click to record.
type ClickParams struct {
	VendorID      uuid.UUID
	AffiliateCode string
	IPAddress     *string
	UserAgent     *string
	Referrer      *string
}

// PurchaseParams describes an attributed order. CommissionValue is the
// snapshot computed from the vendor's rate at tracking time.
type PurchaseParams struct {
	VendorID        uuid.UUID
	AffiliateCode   string
	ClientID        uuid.UUID
	OrderID         uuid.UUID
	OrderValue      decimal.Decimal
	CommissionValue decimal.Decimal
}

// Counts is the number of events of each type for a vendor.
type Counts struct {
	Clicks        int
	Registrations int
	Purchases     int
}

// VendorReader provides read operations for vendors and clients.
type VendorReader interface {
	GetVendorByID(ctx context.Context, id uuid.UUID) (Vendor, error)
	GetActiveVendorByCode(ctx context.Context, code string) (Vendor, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	// GetClientVendor returns the vendor a client was attributed to at
	// registration, or nil when the client came in unattributed.
	GetClientVendor(ctx context.Context, clientID uuid.UUID) (*uuid.UUID, error)
}

// VendorWriter provides write operations for vendors.
type VendorWriter interface {
	// EnableVendor marks the user as an external vendor with code and rate.
	// It returns ErrCodeTaken when another user holds code.
	EnableVendor(ctx context.Context, id uuid.UUID, code string, rate string) (Vendor, error)
}

// EventWriter appends tracking events.
type EventWriter interface {
	InsertClick(ctx context.Context, params ClickParams) error
	// RecordRegistration links the client to the vendor and records a
	// registration event, both only if the client has no vendor yet. It
	// reports whether the link was made.
	RecordRegistration(ctx context.Context, vendor Vendor, clientID uuid.UUID) (bool, error)
	// RecordPurchase links the order to the vendor and records the purchase
	// event once per order. It reports whether anything was written.
	RecordPurchase(ctx context.Context, params PurchaseParams) (bool, error)
}

// MetricsReader computes vendor metrics from stored events.
type MetricsReader interface {
	CountEvents(ctx context.Context, vendorID uuid.UUID) (Counts, error)
	SumPurchases(ctx context.Context, vendorID uuid.UUID) (revenue, commission decimal.Decimal, err error)
	RecentEvents(ctx context.Context, vendorID uuid.UUID, limit int) ([]Event, error)
}

// Repository combines all affiliate repository operations.
type Repository interface {
	VendorReader
	VendorWriter
	EventWriter
	MetricsReader
}
