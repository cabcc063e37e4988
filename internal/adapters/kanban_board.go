package adapters

import (
	"context"

	"github.com/google/uuid"

	"canna_portal_backend/internal/kanban/reconcile"
	kanbanservice "canna_portal_backend/internal/kanban/service"
	"canna_portal_backend/internal/leads/domain"
	leadtransport "canna_portal_backend/internal/leads/transport"
)

// LeadBoard is the part of the lead management service the kanban context
// drives.
type LeadBoard interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]leadtransport.LeadResponse, error)
	Pipeline(ctx context.Context) (domain.Pipeline, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, req leadtransport.UpdateLeadStatusRequest) (leadtransport.LeadResponse, error)
}

// KanbanBoard adapts lead management to kanban/service.BoardSource.
type KanbanBoard struct {
	leads LeadBoard
}

func NewKanbanBoard(leads LeadBoard) *KanbanBoard {
	return &KanbanBoard{leads: leads}
}

// Cards loads the named leads as cards.
func (a *KanbanBoard) Cards(ctx context.Context, leadIDs []uuid.UUID) ([]reconcile.Card, error) {
	leads, err := a.leads.ListByIDs(ctx, leadIDs)
	if err != nil {
		return nil, err
	}

	cards := make([]reconcile.Card, 0, len(leads))
	for _, lead := range leads {
		cards = append(cards, toCard(lead))
	}
	return cards, nil
}

// Policy returns the current pipeline, which enforces forward-only moves.
func (a *KanbanBoard) Policy(ctx context.Context) (reconcile.Policy, error) {
	pipeline, err := a.leads.Pipeline(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline, nil
}

// Committer binds moves to the acting user.
func (a *KanbanBoard) Committer(actorID uuid.UUID, isAdmin bool) reconcile.Committer {
	return leadCommitter{leads: a.leads, actor: domain.Actor{ID: actorID, IsAdmin: isAdmin}}
}

type leadCommitter struct {
	leads LeadBoard
	actor domain.Actor
}

// MoveLead commits the move with the card's version so a concurrent edit is
// reported as stale instead of overwritten.
func (c leadCommitter) MoveLead(ctx context.Context, leadID uuid.UUID, target string, version int) (reconcile.Card, error) {
	req := leadtransport.UpdateLeadStatusRequest{Status: target}
	if version > 0 {
		req.Version = &version
	}

	lead, err := c.leads.UpdateStatus(ctx, c.actor, leadID, req)
	if err != nil {
		return reconcile.Card{}, err
	}
	return toCard(lead), nil
}

func toCard(lead leadtransport.LeadResponse) reconcile.Card {
	return reconcile.Card{
		LeadID:  lead.ID,
		Status:  lead.Status,
		Version: lead.Version,
		Title:   lead.PatientName,
	}
}

var _ kanbanservice.BoardSource = (*KanbanBoard)(nil)
