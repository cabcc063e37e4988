// Package domain holds the lead pipeline rules that do not depend on
// storage or transport.
package domain

import "sort"

// PrescriptionValidatedSlug is the compliance milestone. Once a lead sits
// at or beyond this stage, only admins may move it to an earlier stage.
const PrescriptionValidatedSlug = "receita_validada"

// FinalizedSlug is the terminal stage counted as a closed sale.
const FinalizedSlug = "finalizado"

// StageRef is the part of a registry stage the pipeline rules need.
type StageRef struct {
	Slug     string
	Name     string
	Position int
	IsActive bool
}

// Pipeline is an immutable, position-ordered view of the stage registry.
type Pipeline struct {
	stages []StageRef
	index  map[string]int
}

// NewPipeline orders refs by position. Stages sharing a position keep
// their input order.
func NewPipeline(refs []StageRef) Pipeline {
	ordered := append([]StageRef(nil), refs...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	index := make(map[string]int, len(ordered))
	for i, ref := range ordered {
		index[ref.Slug] = i
	}
	return Pipeline{stages: ordered, index: index}
}

// Len returns the number of stages, active or not.
func (p Pipeline) Len() int { return len(p.stages) }

// Index returns the ordinal of slug, or -1 when the registry does not know it.
func (p Pipeline) Index(slug string) int {
	if i, ok := p.index[slug]; ok {
		return i
	}
	return -1
}

// IsActive reports whether slug names an active stage.
func (p Pipeline) IsActive(slug string) bool {
	i := p.Index(slug)
	return i >= 0 && p.stages[i].IsActive
}

// Name resolves a slug to its display name, falling back to the slug for
// stages that were renamed or deleted.
func (p Pipeline) Name(slug string) string {
	if i := p.Index(slug); i >= 0 {
		return p.stages[i].Name
	}
	return slug
}

// EntrySlug returns the lowest-position active stage, where new leads start.
func (p Pipeline) EntrySlug() (string, bool) {
	for _, ref := range p.stages {
		if ref.IsActive {
			return ref.Slug, true
		}
	}
	return "", false
}

// CheckTransition validates moving a lead from current to target.
//
// The target must be an active stage. Non-admins cannot move a lead to a
// lower position once it has reached the prescription milestone. The rule
// is inactive when the registry has no milestone stage, and a current
// status unknown to the registry is never blocked.
func (p Pipeline) CheckTransition(current, target string, isAdmin bool) error {
	if !p.IsActive(target) {
		return UnknownStage(target)
	}
	if isAdmin {
		return nil
	}

	milestone := p.Index(PrescriptionValidatedSlug)
	from := p.Index(current)
	if milestone < 0 || from < 0 {
		return nil
	}
	if from >= milestone && p.Index(target) < from {
		return BackwardTransitionBlocked(current, target)
	}
	return nil
}
