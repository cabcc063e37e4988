// Package domain computes consultant commissions from closed leads.
package domain

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"canna_portal_backend/platform/money"
)

// ClosedLead is the part of a lead the aggregator reads.
type ClosedLead struct {
	LeadID         uuid.UUID
	Status         string
	ConsultantID   *uuid.UUID
	EstimatedValue *string
}

// Consultant is an entry of the rate table. Rate is stored as text and may
// be a fraction or a percentage.
type Consultant struct {
	ID   uuid.UUID
	Name string
	Rate string
}

// Line is one consultant's share of the report.
type Line struct {
	ConsultantID uuid.UUID
	Name         string
	Deals        int
	TotalSales   decimal.Decimal
	Rate         decimal.Decimal
	Commission   decimal.Decimal
}

// Report is the aggregated result. AverageRate is weighted by sales value.
type Report struct {
	Lines           []Line
	Deals           int
	TotalSales      decimal.Decimal
	TotalCommission decimal.Decimal
	AverageRate     decimal.Decimal
}

// Aggregate totals commissions over leads at finalSlug, attributing each to
// its currently assigned consultant. Unassigned leads are skipped, and a
// consultant missing from the rate table earns at rate 0. A non-nil filter
// keeps only that consultant.
func Aggregate(leads []ClosedLead, consultants []Consultant, finalSlug string, filter *uuid.UUID) Report {
	rates := make(map[uuid.UUID]Consultant, len(consultants))
	for _, c := range consultants {
		rates[c.ID] = c
	}

	lines := make(map[uuid.UUID]*Line)
	report := Report{TotalSales: decimal.Zero, TotalCommission: decimal.Zero, AverageRate: decimal.Zero}

	for _, lead := range leads {
		if lead.Status != finalSlug || lead.ConsultantID == nil {
			continue
		}
		id := *lead.ConsultantID
		if filter != nil && *filter != id {
			continue
		}

		line, ok := lines[id]
		if !ok {
			c := rates[id]
			line = &Line{
				ConsultantID: id,
				Name:         c.Name,
				TotalSales:   decimal.Zero,
				Rate:         money.ParseRate(c.Rate),
				Commission:   decimal.Zero,
			}
			lines[id] = line
		}

		value := decimal.Zero
		if lead.EstimatedValue != nil {
			value = money.ParseBRLDecimal(*lead.EstimatedValue)
		}
		commission := value.Mul(line.Rate)

		line.Deals++
		line.TotalSales = line.TotalSales.Add(value)
		line.Commission = line.Commission.Add(commission)

		report.Deals++
		report.TotalSales = report.TotalSales.Add(value)
		report.TotalCommission = report.TotalCommission.Add(commission)
	}

	report.Lines = make([]Line, 0, len(lines))
	for _, line := range lines {
		report.Lines = append(report.Lines, *line)
	}
	sort.Slice(report.Lines, func(i, j int) bool {
		a, b := report.Lines[i], report.Lines[j]
		if !a.Commission.Equal(b.Commission) {
			return a.Commission.GreaterThan(b.Commission)
		}
		return a.Name < b.Name
	})

	if report.TotalSales.IsPositive() {
		report.AverageRate = report.TotalCommission.Div(report.TotalSales)
	}
	return report
}
