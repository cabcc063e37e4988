package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"canna_portal_backend/internal/stages/domain"
	"canna_portal_backend/internal/stages/repository"
	"canna_portal_backend/internal/stages/transport"
	"canna_portal_backend/platform/apperr"
	"canna_portal_backend/platform/logger"
)

type fakeRepo struct {
	stages      map[uuid.UUID]repository.Stage
	leadStatus  map[uuid.UUID]string
	deleteCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		stages:     make(map[uuid.UUID]repository.Stage),
		leadStatus: make(map[uuid.UUID]string),
	}
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Stage, error) {
	st, ok := f.stages[id]
	if !ok {
		return repository.Stage{}, domain.NotFound()
	}
	return st, nil
}

func (f *fakeRepo) GetBySlug(_ context.Context, slug string) (repository.Stage, error) {
	for _, st := range f.stages {
		if st.Slug == slug {
			return st, nil
		}
	}
	return repository.Stage{}, domain.NotFound()
}

func (f *fakeRepo) List(_ context.Context, includeInactive bool) ([]repository.Stage, error) {
	out := make([]repository.Stage, 0, len(f.stages))
	for _, st := range f.stages {
		if includeInactive || st.IsActive {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeRepo) CountLeadsWithStatus(_ context.Context, slug string) (int, error) {
	count := 0
	for _, status := range f.leadStatus {
		if status == slug {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Stage, error) {
	position := -1
	for _, st := range f.stages {
		if st.Position > position {
			position = st.Position
		}
	}
	st := repository.Stage{
		ID:          uuid.New(),
		Name:        params.Name,
		Slug:        params.Slug,
		Description: params.Description,
		Color:       params.Color,
		Icon:        params.Icon,
		Position:    position + 1,
		IsActive:    params.IsActive,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.stages[st.ID] = st
	return st, nil
}

func (f *fakeRepo) Update(_ context.Context, params repository.UpdateParams, oldSlug string) (repository.Stage, int, error) {
	st, ok := f.stages[params.ID]
	if !ok {
		return repository.Stage{}, 0, domain.NotFound()
	}
	if params.Name != nil {
		st.Name = *params.Name
	}
	migrated := 0
	if params.Slug != nil {
		st.Slug = *params.Slug
		for id, status := range f.leadStatus {
			if status == oldSlug {
				f.leadStatus[id] = st.Slug
				migrated++
			}
		}
	}
	if params.IsActive != nil {
		st.IsActive = *params.IsActive
	}
	if params.Color != nil {
		st.Color = params.Color
	}
	f.stages[st.ID] = st
	return st, migrated, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	f.deleteCalls++
	_, ok := f.stages[id]
	delete(f.stages, id)
	return ok, nil
}

func (f *fakeRepo) Reorder(_ context.Context, ids []uuid.UUID) error {
	for position, id := range ids {
		st, ok := f.stages[id]
		if !ok {
			return apperr.NotFound("stage not found")
		}
		st.Position = position
		f.stages[id] = st
	}
	return nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return New(repo, logger.New("test")), repo
}

func mustCreate(t *testing.T, svc *Service, name string) transport.StageResponse {
	t.Helper()
	st, err := svc.Create(context.Background(), transport.CreateStageRequest{Name: name})
	if err != nil {
		t.Fatalf("create %q: %v", name, err)
	}
	return st
}

func TestCreateDerivesSlugAndAppendsPosition(t *testing.T) {
	svc, _ := newTestService()

	novo := mustCreate(t, svc, "Novo")
	receita := mustCreate(t, svc, "Receita Validada")

	if novo.Slug != "novo" || novo.Position != 0 {
		t.Fatalf("unexpected first stage: %+v", novo)
	}
	if receita.Slug != "receita_validada" || receita.Position != 1 {
		t.Fatalf("unexpected second stage: %+v", receita)
	}
	if !receita.IsActive {
		t.Fatal("stages are active by default")
	}
	if receita.ColorHex != domain.DefaultColor || receita.IconName != domain.DefaultIcon {
		t.Fatalf("expected presentation defaults, got %q/%q", receita.ColorHex, receita.IconName)
	}
}

func TestCreateRejectsDuplicateSlugIncludingInactive(t *testing.T) {
	svc, _ := newTestService()
	inactive := false
	if _, err := svc.Create(context.Background(), transport.CreateStageRequest{Name: "Em Análise", IsActive: &inactive}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Create(context.Background(), transport.CreateStageRequest{Name: "em analise"})
	if apperr.GetCode(err) != domain.CodeDuplicateSlug {
		t.Fatalf("expected duplicate slug error, got %v", err)
	}
}

func TestCreateRejectsNameWithoutSlug(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), transport.CreateStageRequest{Name: "???"})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRenameMigratesLeads(t *testing.T) {
	svc, repo := newTestService()
	st := mustCreate(t, svc, "Contato")
	repo.leadStatus[uuid.New()] = "contato"
	repo.leadStatus[uuid.New()] = "contato"
	repo.leadStatus[uuid.New()] = "outro"

	newName := "Primeiro Contato"
	resp, err := svc.Update(context.Background(), st.ID, transport.UpdateStageRequest{Name: &newName})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Stage.Slug != "primeiro_contato" {
		t.Fatalf("expected recomputed slug, got %q", resp.Stage.Slug)
	}
	if resp.MigratedLeads != 2 {
		t.Fatalf("expected 2 migrated leads, got %d", resp.MigratedLeads)
	}
}

func TestRenameToExistingSlugConflicts(t *testing.T) {
	svc, _ := newTestService()
	mustCreate(t, svc, "Novo")
	other := mustCreate(t, svc, "Contato")

	name := "NOVO"
	_, err := svc.Update(context.Background(), other.ID, transport.UpdateStageRequest{Name: &name})
	if apperr.GetCode(err) != domain.CodeDuplicateSlug {
		t.Fatalf("expected duplicate slug error, got %v", err)
	}
}

func TestDeleteWarnsButDeletes(t *testing.T) {
	svc, repo := newTestService()
	st := mustCreate(t, svc, "Novo")
	repo.leadStatus[uuid.New()] = "novo"

	resp, err := svc.Delete(context.Background(), st.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Deleted || resp.OrphanedLeads != 1 || resp.Warning == "" {
		t.Fatalf("unexpected delete response: %+v", resp)
	}

	again, err := svc.Delete(context.Background(), st.ID)
	if err != nil {
		t.Fatalf("second delete must be idempotent, got %v", err)
	}
	if again.Deleted {
		t.Fatal("second delete must report nothing deleted")
	}
}

func TestListHidesInactiveAndToleratesEmpty(t *testing.T) {
	svc, _ := newTestService()

	empty, err := svc.List(context.Background(), false)
	if err != nil || empty.Total != 0 {
		t.Fatalf("expected empty list, got %+v, %v", empty, err)
	}

	mustCreate(t, svc, "Novo")
	inactive := false
	if _, err := svc.Create(context.Background(), transport.CreateStageRequest{Name: "Arquivado", IsActive: &inactive}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, _ := svc.List(context.Background(), false)
	all, _ := svc.List(context.Background(), true)
	if active.Total != 1 || all.Total != 2 {
		t.Fatalf("expected 1 active and 2 total, got %d and %d", active.Total, all.Total)
	}
}

func TestReorderRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService()
	a := mustCreate(t, svc, "A")
	b := mustCreate(t, svc, "B")

	if err := svc.Reorder(context.Background(), transport.ReorderStagesRequest{IDs: []uuid.UUID{a.ID, a.ID}}); err == nil {
		t.Fatal("expected validation error for duplicate ids")
	}
	if err := svc.Reorder(context.Background(), transport.ReorderStagesRequest{IDs: []uuid.UUID{b.ID, a.ID}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, _ := svc.List(context.Background(), true)
	if list.Items[0].ID != b.ID {
		t.Fatalf("expected B first after reorder, got %s", list.Items[0].Slug)
	}
}
