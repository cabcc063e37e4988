package adapters

import (
	"context"

	"canna_portal_backend/internal/leads/domain"
	"canna_portal_backend/internal/leads/ports"
	stagesdomain "canna_portal_backend/internal/stages/domain"
	stagesrepo "canna_portal_backend/internal/stages/repository"
)

// StageLister is the narrow view of the stages service the leads context
// reads.
type StageLister interface {
	Stages(ctx context.Context, includeInactive bool) ([]stagesrepo.Stage, error)
}

// StageRegistry adapts the stages service to leads/ports.StageRegistry.
type StageRegistry struct {
	stages StageLister
}

func NewStageRegistry(stages StageLister) *StageRegistry {
	return &StageRegistry{stages: stages}
}

// Stages returns every stage, inactive ones included, with colors and
// icons already resolved for the board.
func (a *StageRegistry) Stages(ctx context.Context) ([]ports.StageView, error) {
	stages, err := a.stages.Stages(ctx, true)
	if err != nil {
		return nil, err
	}

	views := make([]ports.StageView, 0, len(stages))
	for _, st := range stages {
		views = append(views, ports.StageView{
			StageRef: domain.StageRef{
				Slug:     st.Slug,
				Name:     st.Name,
				Position: st.Position,
				IsActive: st.IsActive,
			},
			ID:    st.ID,
			Color: stagesdomain.ResolveColor(st.Color),
			Icon:  stagesdomain.ResolveIcon(st.Icon),
		})
	}
	return views, nil
}

var _ ports.StageRegistry = (*StageRegistry)(nil)
