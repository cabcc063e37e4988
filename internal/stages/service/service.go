// Package service implements the pipeline stage registry.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"canna_portal_backend/internal/stages/domain"
	"canna_portal_backend/internal/stages/repository"
	"canna_portal_backend/internal/stages/transport"
	"canna_portal_backend/platform/apperr"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/sanitize"
	"canna_portal_backend/platform/textnorm"
)

// Service provides business logic for pipeline stages.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new stages service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// List returns stages ordered by position. Only active stages are
// returned unless includeInactive is set. An empty registry is not an error.
func (s *Service) List(ctx context.Context, includeInactive bool) (transport.StageListResponse, error) {
	stages, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return transport.StageListResponse{}, err
	}
	items := make([]transport.StageResponse, len(stages))
	for i, st := range stages {
		items[i] = toResponse(st)
	}
	return transport.StageListResponse{Items: items, Total: len(items)}, nil
}

// Stages returns the raw ordered registry for other modules.
func (s *Service) Stages(ctx context.Context, includeInactive bool) ([]repository.Stage, error) {
	return s.repo.List(ctx, includeInactive)
}

// GetByID retrieves a single stage.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.StageResponse, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.StageResponse{}, err
	}
	return toResponse(st), nil
}

// Create adds a stage at the end of the pipeline. The slug is derived from
// the name and must be unique across active and inactive stages.
func (s *Service) Create(ctx context.Context, req transport.CreateStageRequest) (transport.StageResponse, error) {
	name := sanitize.Name(req.Name)
	slug := textnorm.Slugify(name)
	if slug == "" {
		return transport.StageResponse{}, domain.InvalidName(req.Name)
	}

	if err := s.ensureSlugFree(ctx, slug, uuid.Nil); err != nil {
		return transport.StageResponse{}, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	st, err := s.repo.Create(ctx, repository.CreateParams{
		Name:        name,
		Slug:        slug,
		Description: sanitize.TextPtr(req.Description),
		Color:       trimPtr(req.Color),
		Icon:        trimPtr(req.Icon),
		IsActive:    isActive,
	})
	if err != nil {
		return transport.StageResponse{}, err
	}

	s.log.Info("stage created", "id", st.ID, "slug", st.Slug, "position", st.Position)
	return toResponse(st), nil
}

// Update edits a stage. A rename recomputes the slug and carries leads on
// the old slug to the new one; history entries keep the slug they were
// written with.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateStageRequest) (transport.UpdateStageResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.UpdateStageResponse{}, err
	}

	params := repository.UpdateParams{
		ID:          id,
		Description: sanitize.TextPtr(req.Description),
		Color:       trimPtr(req.Color),
		Icon:        trimPtr(req.Icon),
		IsActive:    req.IsActive,
	}

	if req.Name != nil {
		name := sanitize.Name(*req.Name)
		slug := textnorm.Slugify(name)
		if slug == "" {
			return transport.UpdateStageResponse{}, domain.InvalidName(*req.Name)
		}
		params.Name = &name
		if slug != current.Slug {
			if err := s.ensureSlugFree(ctx, slug, id); err != nil {
				return transport.UpdateStageResponse{}, err
			}
			params.Slug = &slug
		}
	}

	st, migrated, err := s.repo.Update(ctx, params, current.Slug)
	if err != nil {
		return transport.UpdateStageResponse{}, err
	}

	if params.Slug != nil {
		s.log.Info("stage renamed", "id", id, "from", current.Slug, "to", st.Slug, "migratedLeads", migrated)
	} else {
		s.log.Info("stage updated", "id", id)
	}

	return transport.UpdateStageResponse{Stage: toResponse(st), MigratedLeads: migrated}, nil
}

// Delete removes a stage even when leads still reference its slug; the
// response carries a warning with the number of orphaned leads. Deleting
// an unknown stage succeeds with Deleted=false.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (transport.DeleteStageResponse, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.DeleteStageResponse{Deleted: false}, nil
		}
		return transport.DeleteStageResponse{}, err
	}

	orphaned, err := s.repo.CountLeadsWithStatus(ctx, st.Slug)
	if err != nil {
		return transport.DeleteStageResponse{}, err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return transport.DeleteStageResponse{}, err
	}

	resp := transport.DeleteStageResponse{Deleted: deleted, OrphanedLeads: orphaned}
	if orphaned > 0 {
		resp.Warning = fmt.Sprintf("%d lead(s) still reference status %q", orphaned, st.Slug)
		s.log.Warn("stage deleted with leads attached", "id", id, "slug", st.Slug, "orphanedLeads", orphaned)
	} else {
		s.log.Info("stage deleted", "id", id, "slug", st.Slug)
	}
	return resp, nil
}

// Reorder assigns positions following the given ID order.
func (s *Service) Reorder(ctx context.Context, req transport.ReorderStagesRequest) error {
	seen := make(map[uuid.UUID]struct{}, len(req.IDs))
	for _, id := range req.IDs {
		if _, dup := seen[id]; dup {
			return apperr.Validation(fmt.Sprintf("stage %s listed more than once", id))
		}
		seen[id] = struct{}{}
	}

	if err := s.repo.Reorder(ctx, req.IDs); err != nil {
		return err
	}
	s.log.Info("stages reordered", "count", len(req.IDs))
	return nil
}

func (s *Service) ensureSlugFree(ctx context.Context, slug string, self uuid.UUID) error {
	existing, err := s.repo.GetBySlug(ctx, slug)
	if err == nil {
		if existing.ID == self {
			return nil
		}
		return domain.DuplicateSlug(slug)
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind == apperr.KindNotFound {
		return nil
	}
	return err
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}

func toResponse(st repository.Stage) transport.StageResponse {
	return transport.StageResponse{
		ID:          st.ID,
		Name:        st.Name,
		Slug:        st.Slug,
		Description: st.Description,
		Color:       st.Color,
		Icon:        st.Icon,
		ColorHex:    domain.ResolveColor(st.Color),
		IconName:    domain.ResolveIcon(st.Icon),
		Position:    st.Position,
		IsActive:    st.IsActive,
		CreatedAt:   st.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   st.UpdatedAt.Format(time.RFC3339),
	}
}
