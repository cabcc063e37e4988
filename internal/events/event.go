// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"canna_portal_backend/platform/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a lead enters the pipeline.
type LeadCreated struct {
	BaseEvent
	LeadID       uuid.UUID  `json:"leadId"`
	ClientID     *uuid.UUID `json:"clientId,omitempty"`
	Status       string     `json:"status"`
	Source       string     `json:"source,omitempty"`
	CreatedByID  uuid.UUID  `json:"createdById"`
	PatientEmail string     `json:"patientEmail"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStageChanged is published after a status change and its history
// entry have been committed together.
type LeadStageChanged struct {
	BaseEvent
	LeadID         uuid.UUID  `json:"leadId"`
	PreviousStatus string     `json:"previousStatus"`
	NewStatus      string     `json:"newStatus"`
	ActorID        *uuid.UUID `json:"actorId,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

func (e LeadStageChanged) EventName() string { return "leads.stage.changed" }

// LeadAssigned is published when a consultant takes or receives a lead.
type LeadAssigned struct {
	BaseEvent
	LeadID       uuid.UUID  `json:"leadId"`
	ConsultantID uuid.UUID  `json:"consultantId"`
	PreviousID   *uuid.UUID `json:"previousConsultantId,omitempty"`
	AssignedByID uuid.UUID  `json:"assignedById"`
	PatientName  string     `json:"patientName"`
}

func (e LeadAssigned) EventName() string { return "leads.lead.assigned" }

// LeadFollowUpScheduled is published when a lead's next follow-up date is set.
type LeadFollowUpScheduled struct {
	BaseEvent
	LeadID       uuid.UUID  `json:"leadId"`
	ConsultantID *uuid.UUID `json:"consultantId,omitempty"`
	FollowUpAt   time.Time  `json:"followUpAt"`
}

func (e LeadFollowUpScheduled) EventName() string { return "leads.follow_up.scheduled" }

// =============================================================================
// Partner & Commerce Domain Events
// =============================================================================

// PrescriptionApproved is published when a partner clinic reports an
// approved prescription for a lead.
type PrescriptionApproved struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	PartnerRef string    `json:"partnerRef,omitempty"`
}

func (e PrescriptionApproved) EventName() string { return "partners.prescription.approved" }

// OrderPaid is published when the commerce side confirms payment.
type OrderPaid struct {
	BaseEvent
	OrderID    uuid.UUID       `json:"orderId"`
	ClientID   uuid.UUID       `json:"clientId"`
	OrderValue decimal.Decimal `json:"orderValue"`
}

func (e OrderPaid) EventName() string { return "commerce.order.paid" }

// =============================================================================
// Affiliate Domain Events
// =============================================================================

// ClientRegistered is published when a patient account is created. The
// affiliate code is the one carried by the visitor's session, if any.
type ClientRegistered struct {
	BaseEvent
	ClientID      uuid.UUID `json:"clientId"`
	Email         string    `json:"email"`
	AffiliateCode string    `json:"affiliateCode,omitempty"`
}

func (e ClientRegistered) EventName() string { return "identity.client.registered" }

// AffiliatePurchaseTracked is published after a purchase event with its
// commission snapshot has been persisted.
type AffiliatePurchaseTracked struct {
	BaseEvent
	VendorID        uuid.UUID       `json:"vendorId"`
	ClientID        uuid.UUID       `json:"clientId"`
	OrderID         uuid.UUID       `json:"orderId"`
	OrderValue      decimal.Decimal `json:"orderValue"`
	CommissionValue decimal.Decimal `json:"commissionValue"`
}

func (e AffiliatePurchaseTracked) EventName() string { return "affiliates.purchase.tracked" }
