package reconcile

import "github.com/google/uuid"

// ColumnTarget is a rendered stage column.
type ColumnTarget struct {
	Stage string `json:"stage"`
	Rect  Rect   `json:"rect"`
}

// CardTarget is a rendered lead card.
type CardTarget struct {
	LeadID uuid.UUID `json:"leadId"`
	Rect   Rect      `json:"rect"`
}

// Layout is the geometry of the board at drop time.
type Layout struct {
	Columns []ColumnTarget `json:"columns"`
	Cards   []CardTarget   `json:"cards"`
}

// ResolveTarget picks the stage a card was dropped on.
//
// A column containing the pointer wins. Otherwise the card whose rectangle
// overlaps the dragged rectangle the most decides, and its current column
// on the board becomes the target. The dragged card itself is ignored.
// ok is false when the drop landed outside every target.
func ResolveTarget(board *Snapshot, active uuid.UUID, pointer Point, dragged Rect, layout Layout) (string, bool) {
	for _, col := range layout.Columns {
		if col.Rect.Contains(pointer) {
			return col.Stage, true
		}
	}

	var (
		best     float64
		bestCard uuid.UUID
	)
	for _, card := range layout.Cards {
		if card.LeadID == active {
			continue
		}
		if area := dragged.IntersectionArea(card.Rect); area > best {
			best = area
			bestCard = card.LeadID
		}
	}
	if best == 0 {
		return "", false
	}

	owner, ok := board.Card(bestCard)
	if !ok {
		return "", false
	}
	return owner.Status, true
}
