// Package ports declares what the commissions context reads from others.
package ports

import (
	"context"

	"canna_portal_backend/internal/commissions/domain"
)

// LeadSource lists leads sitting at the finalized stage.
type LeadSource interface {
	FinalizedLeads(ctx context.Context) ([]domain.ClosedLead, error)
}

// ConsultantRates lists consultants with their commission rates.
type ConsultantRates interface {
	ConsultantRates(ctx context.Context) ([]domain.Consultant, error)
}
