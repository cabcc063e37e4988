package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportRequest filters the report to one consultant.
type ReportRequest struct {
	ConsultantID string `form:"consultantId" validate:"omitempty,uuid"`
}

// ConsultantCommission is one consultant's line.
type ConsultantCommission struct {
	ConsultantID uuid.UUID       `json:"consultantId"`
	Name         string          `json:"name"`
	Deals        int             `json:"deals"`
	TotalSales   decimal.Decimal `json:"totalSales"`
	Rate         decimal.Decimal `json:"rate"`
	Commission   decimal.Decimal `json:"commission"`
}

// ReportResponse is the commission report.
type ReportResponse struct {
	Consultants      []ConsultantCommission `json:"consultants"`
	Deals            int                    `json:"deals"`
	TotalSales       decimal.Decimal        `json:"totalSales"`
	TotalCommissions decimal.Decimal        `json:"totalCommissions"`
	AverageRate      decimal.Decimal        `json:"averageRate"`
}
