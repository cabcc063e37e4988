package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"canna_portal_backend/internal/events"
	"canna_portal_backend/internal/identity/repository"
	"canna_portal_backend/internal/identity/transport"
	"canna_portal_backend/platform/apperr"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/money"
	"canna_portal_backend/platform/phone"
	"canna_portal_backend/platform/sanitize"
)

const userNotFound = "user not found"

// Store is the persistence the identity service needs.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (repository.User, error)
	ListLeadOwners(ctx context.Context, includeInactive bool) ([]repository.User, error)
	CreateClient(ctx context.Context, params repository.CreateClientParams) (repository.User, error)
	SetCommissionRate(ctx context.Context, id uuid.UUID, rate string) (repository.User, error)
}

type Service struct {
	repo     Store
	eventBus events.Bus
	log      *logger.Logger
}

func New(repo Store, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log}
}

// IsAssignable reports whether userID is an active consultant, admin or
// external vendor.
func (s *Service) IsAssignable(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsActive && repository.CanOwnLeads(user), nil
}

func (s *Service) Contact(ctx context.Context, userID uuid.UUID) (string, string, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", "", apperr.NotFound(userNotFound)
	}
	if err != nil {
		return "", "", err
	}
	return user.FullName, user.Email, nil
}

// LeadOwners returns every user that can own leads, deactivated ones
// included, so closed leads keep their owner's name and rate.
func (s *Service) LeadOwners(ctx context.Context) ([]repository.User, error) {
	return s.repo.ListLeadOwners(ctx, true)
}

func (s *Service) ListConsultants(ctx context.Context) (transport.ListConsultantsResponse, error) {
	users, err := s.repo.ListLeadOwners(ctx, false)
	if err != nil {
		return transport.ListConsultantsResponse{}, err
	}

	resp := transport.ListConsultantsResponse{Consultants: make([]transport.ConsultantResponse, 0, len(users))}
	for _, u := range users {
		resp.Consultants = append(resp.Consultants, toConsultantResponse(u))
	}
	return resp, nil
}

// SetCommissionRate stores the consultant's rate as a normalized fraction.
func (s *Service) SetCommissionRate(ctx context.Context, userID uuid.UUID, raw string) (transport.ConsultantResponse, error) {
	rate, err := money.ParseRateStrict(raw)
	if err != nil {
		return transport.ConsultantResponse{}, apperr.Validation("commission rate must be a non-negative number")
	}

	user, err := s.repo.SetCommissionRate(ctx, userID, rate.String())
	if errors.Is(err, repository.ErrNotFound) {
		return transport.ConsultantResponse{}, apperr.NotFound(userNotFound)
	}
	if err != nil {
		return transport.ConsultantResponse{}, err
	}
	return toConsultantResponse(user), nil
}

// RegisterClient creates a patient record and announces it. sessionCode is
// the affiliate code carried by the visitor's session and takes precedence
// over a code in the request body.
func (s *Service) RegisterClient(ctx context.Context, req transport.RegisterClientRequest, sessionCode string) (transport.ClientResponse, error) {
	params := repository.CreateClientParams{
		FullName: sanitize.Name(req.FullName),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
	}
	if req.Phone != nil && strings.TrimSpace(*req.Phone) != "" {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	user, err := s.repo.CreateClient(ctx, params)
	if errors.Is(err, repository.ErrEmailTaken) {
		return transport.ClientResponse{}, apperr.Conflict("email already registered")
	}
	if err != nil {
		return transport.ClientResponse{}, err
	}

	code := sessionCode
	if code == "" && req.AffiliateCode != nil {
		code = strings.TrimSpace(*req.AffiliateCode)
	}

	s.eventBus.Publish(ctx, events.ClientRegistered{
		BaseEvent:     events.NewBaseEvent(),
		ClientID:      user.ID,
		Email:         user.Email,
		AffiliateCode: code,
	})
	s.log.Info("client registered", "clientId", user.ID, "affiliateCode", code)

	return transport.ClientResponse{
		ID:        user.ID.String(),
		FullName:  user.FullName,
		Email:     user.Email,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt,
	}, nil
}

func toConsultantResponse(u repository.User) transport.ConsultantResponse {
	rate := ""
	if u.CommissionRate != nil {
		rate = money.ParseRate(*u.CommissionRate).String()
	}
	return transport.ConsultantResponse{
		ID:             u.ID.String(),
		FullName:       u.FullName,
		Email:          u.Email,
		Phone:          u.Phone,
		Role:           u.Role,
		CommissionRate: rate,
	}
}
