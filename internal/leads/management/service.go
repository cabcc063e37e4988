// Package management handles lead CRUD, stage moves and assignment.
// Every status change goes through UpdateStatus, which is the only path
// that writes stage history.
package management

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"canna_portal_backend/internal/events"
	"canna_portal_backend/internal/leads/domain"
	"canna_portal_backend/internal/leads/ports"
	"canna_portal_backend/internal/leads/repository"
	"canna_portal_backend/internal/leads/transport"
	"canna_portal_backend/platform/apperr"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/metrics"
	"canna_portal_backend/platform/phone"
	"canna_portal_backend/platform/sanitize"
)

const (
	defaultPageSize = 20
	boardFanOut     = 4
)

// Service handles lead management operations.
type Service struct {
	repo        repository.Repository
	stages      ports.StageRegistry
	consultants ports.ConsultantDirectory
	bus         events.Bus
	log         *logger.Logger
}

// New creates a new lead management service.
func New(repo repository.Repository, stages ports.StageRegistry, consultants ports.ConsultantDirectory, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, stages: stages, consultants: consultants, bus: bus, log: log}
}

// Pipeline loads the current stage registry as a Pipeline.
func (s *Service) Pipeline(ctx context.Context) (domain.Pipeline, error) {
	pipeline, _, err := s.loadPipeline(ctx)
	return pipeline, err
}

// Create creates a lead on the first active stage, or on req.Status when
// it names an active stage.
func (s *Service) Create(ctx context.Context, actor domain.Actor, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	pipeline, _, err := s.loadPipeline(ctx)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	status, ok := pipeline.EntrySlug()
	if !ok {
		return transport.LeadResponse{}, domain.PipelineEmpty()
	}
	if requested := domain.CompactString(req.Status); requested != nil {
		if !pipeline.IsActive(*requested) {
			return transport.LeadResponse{}, domain.UnknownStage(*requested)
		}
		status = *requested
	}

	followUp, err := domain.ParseFollowUp(req.NextFollowUp)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	priority := string(req.Priority)
	if priority == "" {
		priority = string(transport.PriorityMedium)
	}

	tags := req.Tags
	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		ClientID:       req.ClientID,
		PatientName:    sanitize.Name(req.PatientName),
		PatientEmail:   strings.ToLower(strings.TrimSpace(req.PatientEmail)),
		PatientPhone:   phone.NormalizeE164(req.PatientPhone),
		ConsultantID:   actor.UserRef(),
		Status:         status,
		Priority:       priority,
		LeadScore:      req.LeadScore,
		Tags:           domain.CompactTags(&tags),
		Source:         domain.CompactString(req.Source),
		Company:        domain.CompactString(req.Company),
		JobTitle:       domain.CompactString(req.JobTitle),
		EstimatedValue: domain.CompactString(req.EstimatedValue),
		NextFollowUp:   followUp,
		Notes:          sanitize.TextPtr(domain.CompactString(req.Notes)),
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	source := ""
	if lead.Source != nil {
		source = *lead.Source
	}
	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       lead.ID,
		ClientID:     lead.ClientID,
		Status:       lead.Status,
		Source:       source,
		CreatedByID:  actor.ID,
		PatientEmail: lead.PatientEmail,
	})
	s.publishFollowUp(ctx, lead)

	return ToLeadResponse(lead, pipeline), nil
}

// GetByID retrieves a lead.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	pipeline, _, err := s.loadPipeline(ctx)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, mapRepoErr(err)
	}
	return ToLeadResponse(lead, pipeline), nil
}

// List returns a filtered page of leads.
func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	params := repository.ListParams{
		Status:   strings.TrimSpace(req.Status),
		Priority: req.Priority,
		Search:   req.Search,
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize,
	}
	if req.ConsultantID != "" {
		id, err := uuid.Parse(req.ConsultantID)
		if err != nil {
			return transport.LeadListResponse{}, apperr.Validation("consultantId must be a UUID")
		}
		params.AssignedConsultantID = &id
	}

	pipeline, _, err := s.loadPipeline(ctx)
	if err != nil {
		return transport.LeadListResponse{}, err
	}
	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	return transport.LeadListResponse{
		Items:      toLeadResponses(leads, pipeline),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// ListByStatus returns every lead on a stage.
func (s *Service) ListByStatus(ctx context.Context, status string) ([]repository.Lead, error) {
	return s.repo.ListByStatus(ctx, status)
}

// ListByIDs returns the leads among ids that exist.
func (s *Service) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]transport.LeadResponse, error) {
	pipeline, _, err := s.loadPipeline(ctx)
	if err != nil {
		return nil, err
	}
	leads, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return toLeadResponses(leads, pipeline), nil
}

// Board loads every active stage with its leads. Columns are fetched
// concurrently and returned in position order.
func (s *Service) Board(ctx context.Context) (transport.BoardResponse, error) {
	pipeline, views, err := s.loadPipeline(ctx)
	if err != nil {
		return transport.BoardResponse{}, err
	}

	columns := make([]transport.BoardColumn, 0, len(views))
	for _, v := range views {
		if !v.IsActive {
			continue
		}
		columns = append(columns, transport.BoardColumn{
			StageID:  v.ID,
			Slug:     v.Slug,
			Name:     v.Name,
			Color:    v.Color,
			Icon:     v.Icon,
			Position: v.Position,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(boardFanOut)
	for i := range columns {
		g.Go(func() error {
			leads, err := s.repo.ListByStatus(gctx, columns[i].Slug)
			if err != nil {
				return err
			}
			columns[i].Leads = toLeadResponses(leads, pipeline)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return transport.BoardResponse{}, err
	}

	return transport.BoardResponse{Columns: columns}, nil
}

// Update patches lead fields. Blank values are dropped before they reach
// the store so a form never overwrites a date or amount with "".
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	followUp, err := domain.ParseFollowUp(req.NextFollowUp)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	params := repository.UpdateLeadParams{
		ID:                    id,
		ExpectedVersion:       req.Version,
		PatientName:           sanitize.NamePtr(domain.CompactString(req.PatientName)),
		Priority:              domain.CompactString(req.Priority),
		LeadScore:             req.LeadScore,
		Tags:                  domain.CompactTags(req.Tags),
		Source:                domain.CompactString(req.Source),
		Company:               domain.CompactString(req.Company),
		JobTitle:              domain.CompactString(req.JobTitle),
		AddressStreet:         domain.CompactString(req.AddressStreet),
		AddressNumber:         domain.CompactString(req.AddressNumber),
		AddressComplement:     domain.CompactString(req.AddressComplement),
		AddressNeighborhood:   domain.CompactString(req.AddressNeighborhood),
		AddressCity:           domain.CompactString(req.AddressCity),
		AddressState:          upperPtr(domain.CompactString(req.AddressState)),
		AddressZipCode:        domain.CompactString(req.AddressZipCode),
		Website:               domain.CompactString(req.Website),
		LinkedInURL:           domain.CompactString(req.LinkedInURL),
		InstagramURL:          domain.CompactString(req.InstagramURL),
		Budget:                domain.CompactString(req.Budget),
		EstimatedValue:        domain.CompactString(req.EstimatedValue),
		ConversionProbability: req.ConversionProbability,
		NextFollowUp:          followUp,
		LostReason:            sanitize.TextPtr(domain.CompactString(req.LostReason)),
		Notes:                 sanitize.TextPtr(domain.CompactString(req.Notes)),
	}
	if email := domain.CompactString(req.PatientEmail); email != nil {
		lowered := strings.ToLower(*email)
		params.PatientEmail = &lowered
	}
	if p := domain.CompactString(req.PatientPhone); p != nil {
		normalized := phone.NormalizeE164(*p)
		params.PatientPhone = &normalized
	}

	lead, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, mapRepoErr(err)
	}

	if followUp != nil {
		s.publishFollowUp(ctx, lead)
	}

	pipeline, _, err := s.loadPipeline(ctx)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return ToLeadResponse(lead, pipeline), nil
}

// UpdateStatus moves a lead to another stage and appends exactly one
// history entry. Moving a lead to the stage it is already on writes
// nothing and returns the lead unchanged.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, req transport.UpdateLeadStatusRequest) (transport.LeadResponse, error) {
	pipeline, _, err := s.loadPipeline(ctx)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, mapRepoErr(err)
	}
	if req.Version != nil && *req.Version != current.Version {
		return transport.LeadResponse{}, domain.StaleVersion()
	}

	target := strings.TrimSpace(req.Status)
	if target == current.Status {
		return ToLeadResponse(current, pipeline), nil
	}

	if err := pipeline.CheckTransition(current.Status, target, actor.IsAdmin); err != nil {
		if apperr.GetCode(err) == domain.CodeBackwardTransitionBlocked {
			metrics.RecordBlockedTransition()
		}
		return transport.LeadResponse{}, err
	}

	return s.commitStatus(ctx, actor, current, target, req, pipeline)
}

// AdvanceTo moves a lead forward to target on behalf of actor. A lead
// already at or past target is left where it is.
func (s *Service) AdvanceTo(ctx context.Context, actor domain.Actor, id uuid.UUID, target string, notes string) (transport.LeadResponse, error) {
	pipeline, _, err := s.loadPipeline(ctx)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, mapRepoErr(err)
	}
	if !pipeline.IsActive(target) {
		return transport.LeadResponse{}, domain.UnknownStage(target)
	}
	if from := pipeline.Index(current.Status); from >= pipeline.Index(target) {
		return ToLeadResponse(current, pipeline), nil
	}

	req := transport.UpdateLeadStatusRequest{Status: target}
	if notes != "" {
		req.Notes = &notes
	}
	return s.commitStatus(ctx, actor, current, target, req, pipeline)
}

func (s *Service) commitStatus(ctx context.Context, actor domain.Actor, current repository.Lead, target string, req transport.UpdateLeadStatusRequest, pipeline domain.Pipeline) (transport.LeadResponse, error) {
	notes := sanitize.TextPtr(domain.CompactString(req.Notes))
	lead, _, err := s.repo.ChangeStatus(ctx, repository.StatusChangeParams{
		LeadID:          current.ID,
		PreviousStatus:  current.Status,
		NewStatus:       target,
		ActorID:         actor.UserRef(),
		Notes:           notes,
		EstimatedValue:  domain.CompactString(req.EstimatedValue),
		ExpectedVersion: req.Version,
	})
	if err != nil {
		return transport.LeadResponse{}, mapRepoErr(err)
	}

	metrics.RecordStageTransition(current.Status, target)
	s.log.WithContext(ctx).StageTransition(lead.ID.String(), current.Status, target, actor.ID.String())

	event := events.LeadStageChanged{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		PreviousStatus: current.Status,
		NewStatus:      target,
		ActorID:        actor.UserRef(),
	}
	if notes != nil {
		event.Notes = *notes
	}
	s.bus.Publish(ctx, event)

	return ToLeadResponse(lead, pipeline), nil
}

// Assign sets the owning consultant. Consultants may only take an
// unassigned lead for themselves; admins may reassign or unassign freely.
func (s *Service) Assign(ctx context.Context, actor domain.Actor, id uuid.UUID, req transport.AssignLeadRequest) (transport.LeadResponse, error) {
	if !req.ConsultantID.Set {
		return transport.LeadResponse{}, apperr.Validation("consultantId is required")
	}
	target := req.ConsultantID.Value

	if !actor.IsAdmin {
		if target == nil {
			return transport.LeadResponse{}, apperr.Forbidden("only admins can unassign leads")
		}
		if *target != actor.ID {
			return transport.LeadResponse{}, apperr.Forbidden("consultants can only assign leads to themselves")
		}
	}

	if target != nil {
		ok, err := s.consultants.IsAssignable(ctx, *target)
		if err != nil {
			return transport.LeadResponse{}, err
		}
		if !ok {
			return transport.LeadResponse{}, apperr.Validation("consultant not found or inactive")
		}
	}

	pipeline, _, err := s.loadPipeline(ctx)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if !actor.IsAdmin {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return transport.LeadResponse{}, mapRepoErr(err)
		}
		if current.AssignedConsultantID != nil && *current.AssignedConsultantID == actor.ID {
			return ToLeadResponse(current, pipeline), nil
		}
	}

	result, err := s.repo.Assign(ctx, repository.AssignParams{
		LeadID:           id,
		ConsultantID:     target,
		OnlyIfUnassigned: !actor.IsAdmin,
	})
	if err != nil {
		return transport.LeadResponse{}, mapRepoErr(err)
	}

	prev := result.PreviousConsultantID
	if target != nil && (prev == nil || *prev != *target) {
		s.bus.Publish(ctx, events.LeadAssigned{
			BaseEvent:    events.NewBaseEvent(),
			LeadID:       result.Lead.ID,
			ConsultantID: *target,
			PreviousID:   prev,
			AssignedByID: actor.ID,
			PatientName:  result.Lead.PatientName,
		})
	}

	return ToLeadResponse(result.Lead, pipeline), nil
}

// Delete removes a lead and its stage history.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return mapRepoErr(s.repo.Delete(ctx, id))
}

// History returns the stage transitions of a lead, oldest first.
func (s *Service) History(ctx context.Context, id uuid.UUID) (transport.HistoryResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return transport.HistoryResponse{}, mapRepoErr(err)
	}

	pipeline, _, err := s.loadPipeline(ctx)
	if err != nil {
		return transport.HistoryResponse{}, err
	}
	entries, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return transport.HistoryResponse{}, err
	}

	items := make([]transport.HistoryEntryResponse, len(entries))
	for i, entry := range entries {
		items[i] = toHistoryResponse(entry, pipeline)
	}
	return transport.HistoryResponse{Items: items}, nil
}

func (s *Service) loadPipeline(ctx context.Context) (domain.Pipeline, []ports.StageView, error) {
	views, err := s.stages.Stages(ctx)
	if err != nil {
		return domain.Pipeline{}, nil, err
	}
	return domain.NewPipeline(toStageRefs(views)), views, nil
}

func (s *Service) publishFollowUp(ctx context.Context, lead repository.Lead) {
	if lead.NextFollowUp == nil {
		return
	}
	s.bus.Publish(ctx, events.LeadFollowUpScheduled{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       lead.ID,
		ConsultantID: lead.AssignedConsultantID,
		FollowUpAt:   *lead.NextFollowUp,
	})
}

func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return domain.NotFound()
	case errors.Is(err, repository.ErrStaleVersion):
		return domain.StaleVersion()
	case errors.Is(err, repository.ErrAlreadyAssigned):
		return domain.AlreadyAssigned()
	default:
		return err
	}
}

func upperPtr(value *string) *string {
	if value == nil {
		return nil
	}
	upper := strings.ToUpper(*value)
	return &upper
}
