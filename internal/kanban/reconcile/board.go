package reconcile

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Card is a lead as the board shows it.
type Card struct {
	LeadID  uuid.UUID `json:"leadId"`
	Status  string    `json:"status"`
	Version int       `json:"version"`
	Title   string    `json:"title"`
}

// Snapshot is an immutable view of the board. Every change produces a new
// Snapshot, so rolling back is a pointer swap.
type Snapshot struct {
	cards map[uuid.UUID]Card
	order []uuid.UUID
}

func newSnapshot(cards []Card) *Snapshot {
	s := &Snapshot{
		cards: make(map[uuid.UUID]Card, len(cards)),
		order: make([]uuid.UUID, 0, len(cards)),
	}
	for _, c := range cards {
		if _, dup := s.cards[c.LeadID]; !dup {
			s.order = append(s.order, c.LeadID)
		}
		s.cards[c.LeadID] = c
	}
	return s
}

// Card returns the card for a lead.
func (s *Snapshot) Card(leadID uuid.UUID) (Card, bool) {
	c, ok := s.cards[leadID]
	return c, ok
}

// Column returns the cards on a stage in board order.
func (s *Snapshot) Column(status string) []Card {
	out := make([]Card, 0)
	for _, id := range s.order {
		if c := s.cards[id]; c.Status == status {
			out = append(out, c)
		}
	}
	return out
}

// Cards returns every card in board order.
func (s *Snapshot) Cards() []Card {
	out := make([]Card, len(s.order))
	for i, id := range s.order {
		out[i] = s.cards[id]
	}
	return out
}

// with returns a copy of s where card replaces the card of the same lead.
func (s *Snapshot) with(card Card) *Snapshot {
	next := &Snapshot{
		cards: make(map[uuid.UUID]Card, len(s.cards)),
		order: s.order,
	}
	for id, c := range s.cards {
		next.cards[id] = c
	}
	next.cards[card.LeadID] = card
	return next
}

// Store holds the current board snapshot. Concurrent gestures on
// different cards are independent; each only ever touches its own card.
type Store struct {
	mu      sync.RWMutex
	current *Snapshot
}

// NewStore creates a store seeded with cards.
func NewStore(cards []Card) *Store {
	return &Store{current: newSnapshot(cards)}
}

// Snapshot returns the current board.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace installs a fresh board, typically after a reload from the server.
func (s *Store) Replace(cards []Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = newSnapshot(cards)
}

// move applies an optimistic status change and returns the snapshots
// before and after it.
func (s *Store) move(leadID uuid.UUID, status string) (before, after *Snapshot, card Card, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.current.Card(leadID)
	if !ok {
		return nil, nil, Card{}, fmt.Errorf("lead %s is not on the board", leadID)
	}
	moved := card
	moved.Status = status

	before = s.current
	after = before.with(moved)
	s.current = after
	return before, after, card, nil
}

// confirm makes the server's copy of a card authoritative.
func (s *Store) confirm(after *Snapshot, card Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == after {
		s.current = after.with(card)
		return
	}
	if _, ok := s.current.Card(card.LeadID); ok {
		s.current = s.current.with(card)
	}
}

// rollback restores the card to its pre-drag state. When nothing else
// changed the board meanwhile, the previous snapshot is reinstated as is;
// otherwise only the moved card is reverted so other gestures survive.
func (s *Store) rollback(before, after *Snapshot, original Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == after {
		s.current = before
		return
	}
	if _, ok := s.current.Card(original.LeadID); ok {
		s.current = s.current.with(original)
	}
}
