package management

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"canna_portal_backend/internal/events"
	"canna_portal_backend/internal/leads/domain"
	"canna_portal_backend/internal/leads/ports"
	"canna_portal_backend/internal/leads/repository"
	"canna_portal_backend/internal/leads/transport"
	"canna_portal_backend/platform/apperr"
	"canna_portal_backend/platform/logger"
)

type fakeRepo struct {
	mu      sync.Mutex
	leads   map[uuid.UUID]repository.Lead
	history []repository.HistoryEntry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: make(map[uuid.UUID]repository.Lead)}
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeRepo) List(_ context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Lead
	for _, lead := range f.leads {
		if params.Status != "" && lead.Status != params.Status {
			continue
		}
		out = append(out, lead)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListByStatus(ctx context.Context, status string) ([]repository.Lead, error) {
	leads, _, err := f.List(ctx, repository.ListParams{Status: status})
	return leads, err
}

func (f *fakeRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Lead, 0, len(ids))
	for _, id := range ids {
		if lead, ok := f.leads[id]; ok {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	lead := repository.Lead{
		ID:             uuid.New(),
		ClientID:       params.ClientID,
		PatientName:    params.PatientName,
		PatientEmail:   params.PatientEmail,
		PatientPhone:   params.PatientPhone,
		ConsultantID:   params.ConsultantID,
		Status:         params.Status,
		Priority:       params.Priority,
		Tags:           params.Tags,
		EstimatedValue: params.EstimatedValue,
		NextFollowUp:   params.NextFollowUp,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) Update(_ context.Context, params repository.UpdateLeadParams) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[params.ID]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	if params.ExpectedVersion != nil && *params.ExpectedVersion != lead.Version {
		return repository.Lead{}, repository.ErrStaleVersion
	}
	if params.PatientName != nil {
		lead.PatientName = *params.PatientName
	}
	if params.Company != nil {
		lead.Company = params.Company
	}
	if params.EstimatedValue != nil {
		lead.EstimatedValue = params.EstimatedValue
	}
	if params.NextFollowUp != nil {
		lead.NextFollowUp = params.NextFollowUp
	}
	if params.Tags != nil {
		lead.Tags = params.Tags
	}
	lead.Version++
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) ChangeStatus(_ context.Context, params repository.StatusChangeParams) (repository.Lead, repository.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[params.LeadID]
	if !ok {
		return repository.Lead{}, repository.HistoryEntry{}, repository.ErrNotFound
	}
	if lead.Status != params.PreviousStatus {
		return repository.Lead{}, repository.HistoryEntry{}, repository.ErrStaleVersion
	}
	if params.ExpectedVersion != nil && *params.ExpectedVersion != lead.Version {
		return repository.Lead{}, repository.HistoryEntry{}, repository.ErrStaleVersion
	}

	previous := lead.Status
	lead.Status = params.NewStatus
	if params.EstimatedValue != nil {
		lead.EstimatedValue = params.EstimatedValue
	}
	lead.Version++
	f.leads[lead.ID] = lead

	entry := repository.HistoryEntry{
		ID:             uuid.New(),
		LeadID:         lead.ID,
		PreviousStatus: &previous,
		NewStatus:      params.NewStatus,
		ByUserID:       params.ActorID,
		Notes:          params.Notes,
		CreatedAt:      time.Now(),
	}
	f.history = append(f.history, entry)
	return lead, entry, nil
}

func (f *fakeRepo) Assign(_ context.Context, params repository.AssignParams) (repository.AssignResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[params.LeadID]
	if !ok {
		return repository.AssignResult{}, repository.ErrNotFound
	}
	if params.OnlyIfUnassigned && lead.AssignedConsultantID != nil {
		return repository.AssignResult{}, repository.ErrAlreadyAssigned
	}
	previous := lead.AssignedConsultantID
	lead.AssignedConsultantID = params.ConsultantID
	lead.Version++
	f.leads[lead.ID] = lead
	return repository.AssignResult{Lead: lead, PreviousConsultantID: previous}, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.leads, id)
	kept := f.history[:0]
	for _, entry := range f.history {
		if entry.LeadID != id {
			kept = append(kept, entry)
		}
	}
	f.history = kept
	return nil
}

func (f *fakeRepo) ListHistory(_ context.Context, leadID uuid.UUID) ([]repository.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.HistoryEntry
	for _, entry := range f.history {
		if entry.LeadID == leadID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (f *fakeRepo) historyFor(leadID uuid.UUID) []repository.HistoryEntry {
	entries, _ := f.ListHistory(context.Background(), leadID)
	return entries
}

type fakeStages struct {
	views []ports.StageView
}

func (f *fakeStages) Stages(context.Context) ([]ports.StageView, error) {
	return f.views, nil
}

func stagesOf(slugs ...string) *fakeStages {
	views := make([]ports.StageView, len(slugs))
	for i, slug := range slugs {
		views[i] = ports.StageView{
			StageRef: domain.StageRef{Slug: slug, Name: slug, Position: i, IsActive: true},
			ID:       uuid.New(),
		}
	}
	return &fakeStages{views: views}
}

type fakeDirectory struct {
	assignable map[uuid.UUID]bool
}

func (f *fakeDirectory) IsAssignable(_ context.Context, id uuid.UUID) (bool, error) {
	return f.assignable[id], nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.EventName() == name {
			n++
		}
	}
	return n
}

type fixture struct {
	svc   *Service
	repo  *fakeRepo
	bus   *recordingBus
	dir   *fakeDirectory
	stage *fakeStages
}

func newFixture(stages *fakeStages) fixture {
	repo := newFakeRepo()
	bus := &recordingBus{}
	dir := &fakeDirectory{assignable: map[uuid.UUID]bool{}}
	svc := New(repo, stages, dir, bus, logger.New("test"))
	return fixture{svc: svc, repo: repo, bus: bus, dir: dir, stage: stages}
}

func createLead(t *testing.T, f fixture, actor domain.Actor) transport.LeadResponse {
	t.Helper()
	lead, err := f.svc.Create(context.Background(), actor, transport.CreateLeadRequest{
		PatientName:  "Maria Souza",
		PatientEmail: "Maria@Example.com",
		PatientPhone: "+55 11 91234-5678",
	})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	return lead
}

func consultant() domain.Actor { return domain.Actor{ID: uuid.New()} }
func admin() domain.Actor      { return domain.Actor{ID: uuid.New(), IsAdmin: true} }

func TestCreateDefaultsToFirstActiveStage(t *testing.T) {
	stages := stagesOf("arquivado", "novo", "finalizado")
	stages.views[0].IsActive = false
	f := newFixture(stages)

	lead := createLead(t, f, consultant())
	if lead.Status != "novo" {
		t.Fatalf("expected status novo, got %q", lead.Status)
	}
	if lead.PatientEmail != "maria@example.com" {
		t.Fatalf("expected lowercased email, got %q", lead.PatientEmail)
	}
	if lead.Priority != transport.PriorityMedium {
		t.Fatalf("expected default priority medium, got %q", lead.Priority)
	}
	if f.bus.count(events.LeadCreated{}.EventName()) != 1 {
		t.Fatalf("expected one LeadCreated event")
	}
}

func TestCreateFailsWithoutActiveStages(t *testing.T) {
	f := newFixture(&fakeStages{})

	_, err := f.svc.Create(context.Background(), consultant(), transport.CreateLeadRequest{
		PatientName: "Ana", PatientEmail: "ana@example.com", PatientPhone: "11912345678",
	})
	if apperr.GetCode(err) != domain.CodePipelineEmpty {
		t.Fatalf("expected pipeline_empty, got %v", err)
	}
}

func TestUpdateStatusAppendsExactlyOneHistoryEntry(t *testing.T) {
	f := newFixture(stagesOf("novo", "em_contato", "receita_validada", "finalizado"))
	actor := consultant()
	lead := createLead(t, f, actor)

	moves := []string{"em_contato", "receita_validada", "finalizado"}
	previous := lead.Status
	for i, target := range moves {
		if _, err := f.svc.UpdateStatus(context.Background(), actor, lead.ID, transport.UpdateLeadStatusRequest{Status: target}); err != nil {
			t.Fatalf("move to %s: %v", target, err)
		}
		history := f.repo.historyFor(lead.ID)
		if len(history) != i+1 {
			t.Fatalf("after move %d expected %d entries, got %d", i, i+1, len(history))
		}
		last := history[len(history)-1]
		if last.PreviousStatus == nil || *last.PreviousStatus != previous || last.NewStatus != target {
			t.Fatalf("unexpected entry %+v for %s -> %s", last, previous, target)
		}
		if last.ByUserID == nil || *last.ByUserID != actor.ID {
			t.Fatalf("expected entry attributed to actor")
		}
		previous = target
	}

	if got := f.bus.count(events.LeadStageChanged{}.EventName()); got != len(moves) {
		t.Fatalf("expected %d stage events, got %d", len(moves), got)
	}
}

func TestUpdateStatusToSameStageWritesNothing(t *testing.T) {
	f := newFixture(stagesOf("novo", "finalizado"))
	actor := consultant()
	lead := createLead(t, f, actor)

	got, err := f.svc.UpdateStatus(context.Background(), actor, lead.ID, transport.UpdateLeadStatusRequest{Status: "novo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Version != lead.Version {
		t.Fatalf("expected version unchanged")
	}
	if len(f.repo.historyFor(lead.ID)) != 0 {
		t.Fatalf("expected no history entry")
	}
}

func TestUpdateStatusRejectsUnknownStage(t *testing.T) {
	f := newFixture(stagesOf("novo", "finalizado"))
	actor := admin()
	lead := createLead(t, f, actor)

	_, err := f.svc.UpdateStatus(context.Background(), actor, lead.ID, transport.UpdateLeadStatusRequest{Status: "nao_existe"})
	if apperr.GetCode(err) != domain.CodeUnknownStage {
		t.Fatalf("expected unknown_stage, got %v", err)
	}
	if len(f.repo.historyFor(lead.ID)) != 0 {
		t.Fatalf("expected no history entry")
	}
}

func TestUpdateStatusRejectsStaleVersion(t *testing.T) {
	f := newFixture(stagesOf("novo", "finalizado"))
	actor := consultant()
	lead := createLead(t, f, actor)

	stale := lead.Version + 1
	_, err := f.svc.UpdateStatus(context.Background(), actor, lead.ID, transport.UpdateLeadStatusRequest{Status: "finalizado", Version: &stale})
	if apperr.GetCode(err) != domain.CodeStaleVersion {
		t.Fatalf("expected stale_version, got %v", err)
	}
}

func TestForwardOnlyScenario(t *testing.T) {
	f := newFixture(stagesOf("novo", "receita_validada", "finalizado"))
	user := consultant()
	ctx := context.Background()

	lead := createLead(t, f, user)
	if lead.Status != "novo" {
		t.Fatalf("expected novo, got %q", lead.Status)
	}

	if _, err := f.svc.UpdateStatus(ctx, user, lead.ID, transport.UpdateLeadStatusRequest{Status: "finalizado"}); err != nil {
		t.Fatalf("forward move rejected: %v", err)
	}

	_, err := f.svc.UpdateStatus(ctx, user, lead.ID, transport.UpdateLeadStatusRequest{Status: "novo"})
	if apperr.GetCode(err) != domain.CodeBackwardTransitionBlocked {
		t.Fatalf("expected backward_transition_blocked, got %v", err)
	}
	if kind := apperr.GetKind(err); kind != apperr.KindForbidden {
		t.Fatalf("expected forbidden kind, got %v", kind)
	}

	got, err := f.svc.UpdateStatus(ctx, admin(), lead.ID, transport.UpdateLeadStatusRequest{Status: "novo"})
	if err != nil {
		t.Fatalf("admin move rejected: %v", err)
	}
	if got.Status != "novo" {
		t.Fatalf("expected novo after admin move, got %q", got.Status)
	}
	if n := len(f.repo.historyFor(lead.ID)); n != 2 {
		t.Fatalf("expected 2 history entries, got %d", n)
	}
}

func TestAdvanceToNeverMovesBackward(t *testing.T) {
	f := newFixture(stagesOf("novo", "receita_validada", "finalizado"))
	ctx := context.Background()
	lead := createLead(t, f, consultant())

	got, err := f.svc.AdvanceTo(ctx, domain.SystemActor(), lead.ID, domain.PrescriptionValidatedSlug, "partner approval")
	if err != nil || got.Status != domain.PrescriptionValidatedSlug {
		t.Fatalf("expected advance to milestone, got %q (%v)", got.Status, err)
	}
	history := f.repo.historyFor(lead.ID)
	if len(history) != 1 || history[0].ByUserID != nil {
		t.Fatalf("expected one system entry without user, got %+v", history)
	}

	if _, err := f.svc.UpdateStatus(ctx, admin(), lead.ID, transport.UpdateLeadStatusRequest{Status: "finalizado"}); err != nil {
		t.Fatalf("move to finalizado: %v", err)
	}
	got, err = f.svc.AdvanceTo(ctx, domain.SystemActor(), lead.ID, domain.PrescriptionValidatedSlug, "")
	if err != nil || got.Status != "finalizado" {
		t.Fatalf("expected lead to stay finalizado, got %q (%v)", got.Status, err)
	}
}

func TestAssignRules(t *testing.T) {
	f := newFixture(stagesOf("novo"))
	ctx := context.Background()
	alice, bob := consultant(), consultant()
	f.dir.assignable[alice.ID] = true
	f.dir.assignable[bob.ID] = true
	lead := createLead(t, f, alice)

	self := func(a domain.Actor) transport.AssignLeadRequest {
		id := a.ID
		return transport.AssignLeadRequest{ConsultantID: transport.OptionalUUID{Value: &id, Set: true}}
	}

	if _, err := f.svc.Assign(ctx, alice, lead.ID, self(bob)); apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden when assigning someone else, got %v", err)
	}

	got, err := f.svc.Assign(ctx, alice, lead.ID, self(alice))
	if err != nil {
		t.Fatalf("self assign: %v", err)
	}
	if got.AssignedConsultantID == nil || *got.AssignedConsultantID != alice.ID {
		t.Fatalf("expected alice to own the lead")
	}

	if _, err := f.svc.Assign(ctx, alice, lead.ID, self(alice)); err != nil {
		t.Fatalf("repeat self assign should be a no-op, got %v", err)
	}

	if _, err := f.svc.Assign(ctx, bob, lead.ID, self(bob)); apperr.GetCode(err) != domain.CodeAlreadyAssigned {
		t.Fatalf("expected lead_already_assigned, got %v", err)
	}

	got, err = f.svc.Assign(ctx, admin(), lead.ID, self(bob))
	if err != nil {
		t.Fatalf("admin reassign: %v", err)
	}
	if *got.AssignedConsultantID != bob.ID {
		t.Fatalf("expected bob to own the lead")
	}
	if n := f.bus.count(events.LeadAssigned{}.EventName()); n != 2 {
		t.Fatalf("expected 2 assignment events, got %d", n)
	}

	unassign := transport.AssignLeadRequest{ConsultantID: transport.OptionalUUID{Set: true}}
	if _, err := f.svc.Assign(ctx, bob, lead.ID, unassign); apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden unassign for consultant, got %v", err)
	}
	if _, err := f.svc.Assign(ctx, admin(), lead.ID, unassign); err != nil {
		t.Fatalf("admin unassign: %v", err)
	}
}

func TestExternalVendorTakesLead(t *testing.T) {
	f := newFixture(stagesOf("novo"))
	vendor := domain.Actor{ID: uuid.New()}
	f.dir.assignable[vendor.ID] = true
	lead := createLead(t, f, admin())

	id := vendor.ID
	got, err := f.svc.Assign(context.Background(), vendor, lead.ID, transport.AssignLeadRequest{
		ConsultantID: transport.OptionalUUID{Value: &id, Set: true},
	})
	if err != nil {
		t.Fatalf("vendor self assign: %v", err)
	}
	if got.AssignedConsultantID == nil || *got.AssignedConsultantID != vendor.ID {
		t.Fatalf("expected the vendor to own the lead, got %+v", got.AssignedConsultantID)
	}
	if n := f.bus.count(events.LeadAssigned{}.EventName()); n != 1 {
		t.Fatalf("expected one assignment event, got %d", n)
	}
}

func TestAssignRejectsUnknownConsultant(t *testing.T) {
	f := newFixture(stagesOf("novo"))
	lead := createLead(t, f, consultant())
	ghost := uuid.New()

	_, err := f.svc.Assign(context.Background(), admin(), lead.ID, transport.AssignLeadRequest{
		ConsultantID: transport.OptionalUUID{Value: &ghost, Set: true},
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateIgnoresBlankFields(t *testing.T) {
	f := newFixture(stagesOf("novo"))
	lead := createLead(t, f, consultant())
	ctx := context.Background()

	company := "Clinica Verde"
	if _, err := f.svc.Update(ctx, lead.ID, transport.UpdateLeadRequest{Company: &company}); err != nil {
		t.Fatalf("update: %v", err)
	}

	blank := "  "
	got, err := f.svc.Update(ctx, lead.ID, transport.UpdateLeadRequest{Company: &blank, EstimatedValue: &blank, NextFollowUp: &blank})
	if err != nil {
		t.Fatalf("blank update: %v", err)
	}
	if got.Company == nil || *got.Company != company {
		t.Fatalf("blank company overwrote stored value: %v", got.Company)
	}
	if got.EstimatedValue != nil || got.NextFollowUp != nil {
		t.Fatalf("blank values should not be written")
	}
}

func TestUpdatePublishesFollowUp(t *testing.T) {
	f := newFixture(stagesOf("novo"))
	lead := createLead(t, f, consultant())

	date := "2026-11-02"
	got, err := f.svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{NextFollowUp: &date})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.NextFollowUp == nil || got.NextFollowUp.Format("2006-01-02") != date {
		t.Fatalf("expected follow-up %s, got %v", date, got.NextFollowUp)
	}
	if f.bus.count(events.LeadFollowUpScheduled{}.EventName()) != 1 {
		t.Fatalf("expected a follow-up event")
	}
}

func TestDeleteRemovesHistory(t *testing.T) {
	f := newFixture(stagesOf("novo", "finalizado"))
	actor := admin()
	lead := createLead(t, f, actor)
	ctx := context.Background()

	if _, err := f.svc.UpdateStatus(ctx, actor, lead.ID, transport.UpdateLeadStatusRequest{Status: "finalizado"}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := f.svc.Delete(ctx, lead.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(f.repo.historyFor(lead.ID)) != 0 {
		t.Fatalf("expected history removed")
	}
	if _, err := f.svc.GetByID(ctx, lead.ID); apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestHistoryResolvesRenamedStages(t *testing.T) {
	stages := stagesOf("novo", "finalizado")
	f := newFixture(stages)
	actor := admin()
	lead := createLead(t, f, actor)
	ctx := context.Background()

	if _, err := f.svc.UpdateStatus(ctx, actor, lead.ID, transport.UpdateLeadStatusRequest{Status: "finalizado"}); err != nil {
		t.Fatalf("move: %v", err)
	}
	stages.views[0].Name = "Novo Lead"
	stages.views = stages.views[:1]

	history, err := f.svc.History(ctx, lead.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	entry := history.Items[0]
	if *entry.PreviousStatusName != "Novo Lead" {
		t.Fatalf("expected resolved name, got %q", *entry.PreviousStatusName)
	}
	if entry.NewStatusName != "finalizado" {
		t.Fatalf("expected slug fallback for removed stage, got %q", entry.NewStatusName)
	}
}

func TestBoardGroupsLeadsByActiveStage(t *testing.T) {
	stages := stagesOf("novo", "pausado", "finalizado")
	stages.views[1].IsActive = false
	f := newFixture(stages)
	actor := admin()
	ctx := context.Background()

	first := createLead(t, f, actor)
	createLead(t, f, actor)
	if _, err := f.svc.UpdateStatus(ctx, actor, first.ID, transport.UpdateLeadStatusRequest{Status: "finalizado"}); err != nil {
		t.Fatalf("move: %v", err)
	}

	board, err := f.svc.Board(ctx)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if len(board.Columns) != 2 {
		t.Fatalf("expected 2 active columns, got %d", len(board.Columns))
	}
	if board.Columns[0].Slug != "novo" || len(board.Columns[0].Leads) != 1 {
		t.Fatalf("unexpected first column %+v", board.Columns[0])
	}
	if board.Columns[1].Slug != "finalizado" || len(board.Columns[1].Leads) != 1 {
		t.Fatalf("unexpected second column %+v", board.Columns[1])
	}
}
