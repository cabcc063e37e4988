package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"canna_portal_backend/internal/commissions/domain"
	"canna_portal_backend/platform/logger"
)

type staticLeads struct {
	leads []domain.ClosedLead
	err   error
}

func (s staticLeads) FinalizedLeads(context.Context) ([]domain.ClosedLead, error) {
	return s.leads, s.err
}

type staticRates []domain.Consultant

func (s staticRates) ConsultantRates(context.Context) ([]domain.Consultant, error) { return s, nil }

func TestReportRoundsTotals(t *testing.T) {
	a := uuid.New()
	value := "333,33"
	leads := staticLeads{leads: []domain.ClosedLead{
		{LeadID: uuid.New(), Status: "finalizado", ConsultantID: &a, EstimatedValue: &value},
	}}
	svc := New(leads, staticRates{{ID: a, Name: "Ana", Rate: "12.5%"}}, logger.New("test"))

	resp, err := svc.Report(context.Background(), nil)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !resp.TotalCommissions.Equal(decimal.RequireFromString("41.67")) {
		t.Fatalf("expected 41.67, got %s", resp.TotalCommissions)
	}
	if len(resp.Consultants) != 1 || resp.Consultants[0].Name != "Ana" {
		t.Fatalf("unexpected lines %+v", resp.Consultants)
	}
}

func TestReportPropagatesSourceErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := New(staticLeads{err: boom}, staticRates{}, logger.New("test"))

	if _, err := svc.Report(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
}
