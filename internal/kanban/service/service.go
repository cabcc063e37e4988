// Package service resolves board drops on the server: the drop geometry is
// matched to a stage, the move is checked and committed, and failures are
// reported back so the client can restore its board.
package service

import (
	"context"

	"github.com/google/uuid"

	"canna_portal_backend/internal/kanban/reconcile"
	"canna_portal_backend/internal/kanban/transport"
	"canna_portal_backend/platform/apperr"
	"canna_portal_backend/platform/logger"
)

// BoardSource provides the board contents and the rules for moving cards.
// Cards returns the cards it can find among leadIDs; unknown leads are
// left out.
type BoardSource interface {
	Cards(ctx context.Context, leadIDs []uuid.UUID) ([]reconcile.Card, error)
	Policy(ctx context.Context) (reconcile.Policy, error)
	Committer(actorID uuid.UUID, isAdmin bool) reconcile.Committer
}

// Service handles kanban drops.
type Service struct {
	source BoardSource
	log    *logger.Logger
}

// New creates a new kanban service.
func New(source BoardSource, log *logger.Logger) *Service {
	return &Service{source: source, log: log}
}

// Drop runs one gesture against the dragged lead and the cards named in the
// drop layout. The version the client saw is kept on the dragged card, so a
// move made from a stale board is refused as stale. A refused or failed
// move returns its error; the response is only produced for moves that
// committed or changed nothing.
func (s *Service) Drop(ctx context.Context, actorID uuid.UUID, isAdmin bool, req transport.DropRequest) (transport.DropResponse, error) {
	cards, err := s.source.Cards(ctx, dropLeadIDs(req))
	if err != nil {
		return transport.DropResponse{}, err
	}
	if req.Version > 0 {
		for i := range cards {
			if cards[i].LeadID == req.LeadID {
				cards[i].Version = req.Version
			}
		}
	}
	policy, err := s.source.Policy(ctx)
	if err != nil {
		return transport.DropResponse{}, err
	}

	store := reconcile.NewStore(cards)
	engine := reconcile.NewEngine(store, policy, s.source.Committer(actorID, isAdmin), isAdmin, s.log)

	gesture, err := engine.Begin(req.LeadID)
	if err != nil {
		return transport.DropResponse{}, apperr.NotFound("lead is not on the board")
	}

	result, err := gesture.Drop(ctx, req.Pointer, req.Dragged, req.Layout)
	if err != nil {
		return transport.DropResponse{}, err
	}
	if result.Err != nil {
		return transport.DropResponse{}, result.Err
	}

	return transport.DropResponse{
		Outcome: result.Outcome,
		LeadID:  result.LeadID,
		From:    result.From,
		To:      result.To,
		Card:    result.Card,
	}, nil
}

// dropLeadIDs lists the dragged lead first, then every other card in the
// layout once.
func dropLeadIDs(req transport.DropRequest) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(req.Layout.Cards)+1)
	seen := map[uuid.UUID]struct{}{req.LeadID: {}}
	ids = append(ids, req.LeadID)
	for _, card := range req.Layout.Cards {
		if _, ok := seen[card.LeadID]; ok {
			continue
		}
		seen[card.LeadID] = struct{}{}
		ids = append(ids, card.LeadID)
	}
	return ids
}
