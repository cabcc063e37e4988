package adapters

import (
	"context"

	"canna_portal_backend/internal/commissions/domain"
	"canna_portal_backend/internal/commissions/ports"
	identityrepo "canna_portal_backend/internal/identity/repository"
	leadsdomain "canna_portal_backend/internal/leads/domain"
	leadsrepo "canna_portal_backend/internal/leads/repository"
)

// StatusLister lists leads currently in one stage.
type StatusLister interface {
	ListByStatus(ctx context.Context, status string) ([]leadsrepo.Lead, error)
}

// ConsultantLister lists the users who may own leads, inactive ones
// included.
type ConsultantLister interface {
	LeadOwners(ctx context.Context) ([]identityrepo.User, error)
}

// CommissionLeads adapts lead management to commissions/ports.LeadSource.
type CommissionLeads struct {
	leads StatusLister
}

func NewCommissionLeads(leads StatusLister) *CommissionLeads {
	return &CommissionLeads{leads: leads}
}

// FinalizedLeads returns closed leads credited to their current owner.
func (a *CommissionLeads) FinalizedLeads(ctx context.Context) ([]domain.ClosedLead, error) {
	leads, err := a.leads.ListByStatus(ctx, leadsdomain.FinalizedSlug)
	if err != nil {
		return nil, err
	}

	closed := make([]domain.ClosedLead, 0, len(leads))
	for _, lead := range leads {
		closed = append(closed, domain.ClosedLead{
			LeadID:         lead.ID,
			Status:         lead.Status,
			ConsultantID:   lead.AssignedConsultantID,
			EstimatedValue: lead.EstimatedValue,
		})
	}
	return closed, nil
}

// CommissionRates adapts the identity service to
// commissions/ports.ConsultantRates.
type CommissionRates struct {
	users ConsultantLister
}

func NewCommissionRates(users ConsultantLister) *CommissionRates {
	return &CommissionRates{users: users}
}

func (a *CommissionRates) ConsultantRates(ctx context.Context) ([]domain.Consultant, error) {
	users, err := a.users.LeadOwners(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Consultant, 0, len(users))
	for _, u := range users {
		rate := ""
		if u.CommissionRate != nil {
			rate = *u.CommissionRate
		}
		out = append(out, domain.Consultant{ID: u.ID, Name: u.FullName, Rate: rate})
	}
	return out, nil
}

var (
	_ ports.LeadSource      = (*CommissionLeads)(nil)
	_ ports.ConsultantRates = (*CommissionRates)(nil)
)
