package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"canna_portal_backend/internal/events"
	"canna_portal_backend/internal/leads/domain"
	"canna_portal_backend/internal/leads/transport"
	"canna_portal_backend/platform/apperr"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/metrics"
)

// Partner event types accepted on the webhook.
const (
	EventPrescriptionApproved = "prescription.approved"
	EventOrderPaid            = "order.paid"
)

const (
	statusProcessed = "processed"
	statusDuplicate = "duplicate"
)

// LeadAdvancer moves a lead forward in the pipeline. Satisfied by management.Service.
type LeadAdvancer interface {
	AdvanceTo(ctx context.Context, actor domain.Actor, id uuid.UUID, target string, notes string) (transport.LeadResponse, error)
}

// DeliveryLog deduplicates partner deliveries.
type DeliveryLog interface {
	Claim(ctx context.Context, deliveryID, eventType, keyRef string, payload json.RawMessage) (bool, error)
	Release(ctx context.Context, deliveryID string) error
}

// PartnerEvent is the envelope partners post.
type PartnerEvent struct {
	ID   string          `json:"id" validate:"required,max=128"`
	Type string          `json:"type" validate:"required,oneof=prescription.approved order.paid"`
	Data json.RawMessage `json:"data" validate:"required"`
}

// PrescriptionApprovedData is the payload of prescription.approved.
type PrescriptionApprovedData struct {
	LeadID     uuid.UUID `json:"leadId" validate:"required"`
	PartnerRef string    `json:"partnerRef" validate:"max=128"`
}

// OrderPaidData is the payload of order.paid.
type OrderPaidData struct {
	OrderID    uuid.UUID       `json:"orderId" validate:"required"`
	ClientID   uuid.UUID       `json:"clientId" validate:"required"`
	OrderValue decimal.Decimal `json:"orderValue"`
}

// EventResponse is returned to the partner.
type EventResponse struct {
	ID     string     `json:"id"`
	Status string     `json:"status"`
	LeadID *uuid.UUID `json:"leadId,omitempty"`
	Stage  string     `json:"stage,omitempty"`
}

// Validator checks decoded payloads.
type Validator interface {
	Struct(s interface{}) error
}

// Service applies partner events.
type Service struct {
	deliveries DeliveryLog
	leads      LeadAdvancer
	eventBus   events.Bus
	val        Validator
	log        *logger.Logger
}

// NewService creates a new webhook service.
func NewService(deliveries DeliveryLog, leads LeadAdvancer, eventBus events.Bus, val Validator, log *logger.Logger) *Service {
	return &Service{deliveries: deliveries, leads: leads, eventBus: eventBus, val: val, log: log}
}

// ProcessEvent applies a partner event once per delivery id. A failed
// delivery is released so the partner's retry is processed again.
func (s *Service) ProcessEvent(ctx context.Context, keyRef string, event PartnerEvent) (EventResponse, error) {
	fresh, err := s.deliveries.Claim(ctx, event.ID, event.Type, keyRef, event.Data)
	if err != nil {
		return EventResponse{}, err
	}
	if !fresh {
		s.log.Info("webhook: duplicate delivery ignored", "deliveryId", event.ID, "type", event.Type)
		return EventResponse{ID: event.ID, Status: statusDuplicate}, nil
	}

	resp, err := s.apply(ctx, event)
	if err != nil {
		metrics.RecordIntegrationError("partner_webhook")
		if releaseErr := s.deliveries.Release(ctx, event.ID); releaseErr != nil {
			s.log.Error("webhook: failed to release delivery", "deliveryId", event.ID, "error", releaseErr)
		}
		return EventResponse{}, err
	}
	return resp, nil
}

func (s *Service) apply(ctx context.Context, event PartnerEvent) (EventResponse, error) {
	switch event.Type {
	case EventPrescriptionApproved:
		var data PrescriptionApprovedData
		if err := s.decode(event.Data, &data); err != nil {
			return EventResponse{}, err
		}
		return s.prescriptionApproved(ctx, event.ID, data)
	case EventOrderPaid:
		var data OrderPaidData
		if err := s.decode(event.Data, &data); err != nil {
			return EventResponse{}, err
		}
		return s.orderPaid(ctx, event.ID, data)
	default:
		return EventResponse{}, apperr.Validation(fmt.Sprintf("unsupported event type %q", event.Type))
	}
}

func (s *Service) decode(raw json.RawMessage, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperr.Validation("malformed event data")
	}
	if err := s.val.Struct(dst); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

func (s *Service) prescriptionApproved(ctx context.Context, deliveryID string, data PrescriptionApprovedData) (EventResponse, error) {
	notes := "Receita aprovada pelo parceiro"
	if data.PartnerRef != "" {
		notes += " (" + data.PartnerRef + ")"
	}

	lead, err := s.leads.AdvanceTo(ctx, domain.SystemActor(), data.LeadID, domain.PrescriptionValidatedSlug, notes)
	if err != nil {
		return EventResponse{}, err
	}

	s.eventBus.Publish(ctx, events.PrescriptionApproved{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     data.LeadID,
		PartnerRef: data.PartnerRef,
	})
	s.log.Info("webhook: prescription approved", "leadId", data.LeadID, "stage", lead.Status)

	leadID := data.LeadID
	return EventResponse{ID: deliveryID, Status: statusProcessed, LeadID: &leadID, Stage: lead.Status}, nil
}

func (s *Service) orderPaid(ctx context.Context, deliveryID string, data OrderPaidData) (EventResponse, error) {
	if data.OrderValue.IsNegative() {
		return EventResponse{}, apperr.Validation("order value must not be negative")
	}

	if err := s.eventBus.PublishSync(ctx, events.OrderPaid{
		BaseEvent:  events.NewBaseEvent(),
		OrderID:    data.OrderID,
		ClientID:   data.ClientID,
		OrderValue: data.OrderValue,
	}); err != nil {
		return EventResponse{}, err
	}
	s.log.Info("webhook: order paid", "orderId", data.OrderID, "clientId", data.ClientID)

	return EventResponse{ID: deliveryID, Status: statusProcessed}, nil
}
