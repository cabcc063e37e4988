// Package service builds commission reports.
package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"canna_portal_backend/internal/commissions/domain"
	"canna_portal_backend/internal/commissions/ports"
	"canna_portal_backend/internal/commissions/transport"
	leadsdomain "canna_portal_backend/internal/leads/domain"
	"canna_portal_backend/platform/logger"
)

// Service provides commission reporting.
type Service struct {
	leads ports.LeadSource
	rates ports.ConsultantRates
	log   *logger.Logger
}

// New creates a new commission service.
func New(leads ports.LeadSource, rates ports.ConsultantRates, log *logger.Logger) *Service {
	return &Service{leads: leads, rates: rates, log: log}
}

// Report aggregates commissions over finalized leads. A non-nil consultantID
// restricts the report to that consultant.
func (s *Service) Report(ctx context.Context, consultantID *uuid.UUID) (transport.ReportResponse, error) {
	var (
		leads       []domain.ClosedLead
		consultants []domain.Consultant
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leads, err = s.leads.FinalizedLeads(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		consultants, err = s.rates.ConsultantRates(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.ReportResponse{}, err
	}

	report := domain.Aggregate(leads, consultants, leadsdomain.FinalizedSlug, consultantID)

	lines := make([]transport.ConsultantCommission, 0, len(report.Lines))
	for _, line := range report.Lines {
		lines = append(lines, transport.ConsultantCommission{
			ConsultantID: line.ConsultantID,
			Name:         line.Name,
			Deals:        line.Deals,
			TotalSales:   line.TotalSales.Round(2),
			Rate:         line.Rate,
			Commission:   line.Commission.Round(2),
		})
	}

	return transport.ReportResponse{
		Consultants:      lines,
		Deals:            report.Deals,
		TotalSales:       report.TotalSales.Round(2),
		TotalCommissions: report.TotalCommission.Round(2),
		AverageRate:      report.AverageRate.Round(4),
	}, nil
}
