package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EnableVendorRequest turns a user into an external vendor. Both fields are
// optional; the rate accepts a fraction ("0.15") or a percentage ("15%").
type EnableVendorRequest struct {
	CommissionRate *string `json:"commissionRate" validate:"omitempty,max=16"`
	CustomCode     *string `json:"customCode" validate:"omitempty,min=4,max=64"`
}

// EnableVendorResponse carries the vendor's code and shareable link.
type EnableVendorResponse struct {
	VendorID       uuid.UUID `json:"vendorId"`
	Code           string    `json:"code"`
	Link           string    `json:"link"`
	CommissionRate string    `json:"commissionRate"`
	AlreadyEnabled bool      `json:"alreadyEnabled"`
}

// ActivityResponse is one tracking event in a vendor's recent activity.
type ActivityResponse struct {
	ID              uuid.UUID        `json:"id"`
	EventType       string           `json:"eventType"`
	ClientID        *uuid.UUID       `json:"clientId,omitempty"`
	OrderID         *uuid.UUID       `json:"orderId,omitempty"`
	OrderValue      *decimal.Decimal `json:"orderValue,omitempty"`
	CommissionValue *decimal.Decimal `json:"commissionValue,omitempty"`
	Referrer        *string          `json:"referrer,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// VendorMetricsResponse aggregates a vendor's events at query time.
type VendorMetricsResponse struct {
	VendorID        uuid.UUID          `json:"vendorId"`
	Code            string             `json:"code"`
	Clicks          int                `json:"clicks"`
	Registrations   int                `json:"registrations"`
	Purchases       int                `json:"purchases"`
	TotalRevenue    decimal.Decimal    `json:"totalRevenue"`
	TotalCommission decimal.Decimal    `json:"totalCommission"`
	ConversionRate  float64            `json:"conversionRate"`
	RecentActivity  []ActivityResponse `json:"recentActivity"`
}
