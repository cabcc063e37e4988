// Package reconcile reconciles drag-and-drop moves on the lead board with the
// server. A gesture is checked against the pipeline policy, applied to the
// local board optimistically, committed, and rolled back if the commit
// fails.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"canna_portal_backend/platform/logger"
)

// State is the phase of a drag gesture.
type State int32

const (
	StateIdle State = iota
	StateDragging
	StateResolving
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateResolving:
		return "resolving"
	case StateCommitting:
		return "committing"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Outcome is how a gesture ended.
type Outcome string

const (
	// OutcomeNoop means nothing changed: no target, or the same stage.
	OutcomeNoop Outcome = "noop"
	// OutcomeCommitted means the server accepted the move.
	OutcomeCommitted Outcome = "committed"
	// OutcomeRejected means the policy refused the move before any change.
	OutcomeRejected Outcome = "rejected"
	// OutcomeRolledBack means the commit failed and the board was restored.
	OutcomeRolledBack Outcome = "rolled_back"
)

// ErrGestureState is returned when a gesture method is called out of order.
var ErrGestureState = errors.New("gesture is not in the expected state")

// Policy validates a move before it is shown.
type Policy interface {
	CheckTransition(current, target string, isAdmin bool) error
}

// Committer persists a move and returns the server's copy of the card.
type Committer interface {
	MoveLead(ctx context.Context, leadID uuid.UUID, target string, version int) (Card, error)
}

// Result describes a finished gesture.
type Result struct {
	Outcome Outcome
	LeadID  uuid.UUID
	From    string
	To      string
	Card    Card
	Err     error
}

// Engine runs gestures for one viewer of the board.
type Engine struct {
	store     *Store
	policy    Policy
	committer Committer
	isAdmin   bool
	log       *logger.Logger
}

// NewEngine creates an engine over store.
func NewEngine(store *Store, policy Policy, committer Committer, isAdmin bool, log *logger.Logger) *Engine {
	return &Engine{store: store, policy: policy, committer: committer, isAdmin: isAdmin, log: log}
}

// Store returns the board the engine mutates.
func (e *Engine) Store() *Store { return e.store }

// Gesture is a single drag, from pick-up to settle.
type Gesture struct {
	engine *Engine
	leadID uuid.UUID
	state  atomic.Int32
}

// Begin picks up a card.
func (e *Engine) Begin(leadID uuid.UUID) (*Gesture, error) {
	if _, ok := e.store.Snapshot().Card(leadID); !ok {
		return nil, fmt.Errorf("lead %s is not on the board", leadID)
	}
	g := &Gesture{engine: e, leadID: leadID}
	g.state.Store(int32(StateDragging))
	return g, nil
}

// State returns the current phase of the gesture.
func (g *Gesture) State() State { return State(g.state.Load()) }

// LeadID returns the dragged lead.
func (g *Gesture) LeadID() uuid.UUID { return g.leadID }

// Cancel abandons the drag without touching the board.
func (g *Gesture) Cancel() {
	g.state.CompareAndSwap(int32(StateDragging), int32(StateIdle))
}

// Drop settles the gesture. The optimistic move is visible in the store
// while the commit is in flight; Drop returns once the commit has settled.
func (g *Gesture) Drop(ctx context.Context, pointer Point, dragged Rect, layout Layout) (Result, error) {
	if !g.state.CompareAndSwap(int32(StateDragging), int32(StateResolving)) {
		return Result{}, ErrGestureState
	}
	defer g.state.Store(int32(StateIdle))

	e := g.engine
	board := e.store.Snapshot()
	card, ok := board.Card(g.leadID)
	if !ok {
		return Result{Outcome: OutcomeNoop, LeadID: g.leadID}, nil
	}

	result := Result{LeadID: g.leadID, From: card.Status, Card: card}

	target, ok := ResolveTarget(board, g.leadID, pointer, dragged, layout)
	if !ok || target == card.Status {
		result.Outcome = OutcomeNoop
		result.To = card.Status
		return result, nil
	}
	result.To = target

	if err := e.policy.CheckTransition(card.Status, target, e.isAdmin); err != nil {
		result.Outcome = OutcomeRejected
		result.Err = err
		return result, nil
	}

	before, after, original, err := e.store.move(g.leadID, target)
	if err != nil {
		result.Outcome = OutcomeNoop
		return result, nil
	}
	g.state.Store(int32(StateCommitting))

	confirmed, err := e.committer.MoveLead(ctx, g.leadID, target, original.Version)
	if err != nil {
		e.store.rollback(before, after, original)
		if e.log != nil {
			e.log.WithContext(ctx).Warn("kanban move rolled back",
				"lead_id", g.leadID.String(), "from", original.Status, "to", target, "error", err.Error())
		}
		result.Outcome = OutcomeRolledBack
		result.Card = original
		result.Err = err
		return result, nil
	}

	e.store.confirm(after, confirmed)
	result.Outcome = OutcomeCommitted
	result.Card = confirmed
	return result, nil
}
