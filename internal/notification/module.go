// Package notification turns CRM domain events into consultant e-mails and
// scheduled follow-up reminders.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"canna_portal_backend/internal/email"
	"canna_portal_backend/internal/events"
	leadtransport "canna_portal_backend/internal/leads/transport"
	"canna_portal_backend/platform/config"
	"canna_portal_backend/platform/logger"
)

// Contacts resolves a user's display name and e-mail address.
type Contacts interface {
	Contact(ctx context.Context, userID uuid.UUID) (name string, emailAddr string, err error)
}

// LeadReader loads the current state of a lead.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadtransport.LeadResponse, error)
}

// ReminderScheduler queues a follow-up reminder to run at runAt.
type ReminderScheduler interface {
	ScheduleFollowUpReminder(ctx context.Context, leadID uuid.UUID, followUpAt time.Time, runAt time.Time) error
}

// Config is what the module reads from the application config.
type Config interface {
	config.NotificationConfig
	GetFollowUpReminderLead() time.Duration
}

const followUpLayout = "02/01/2006 15:04"

// Module handles notification-related event subscriptions.
type Module struct {
	sender    email.Sender
	contacts  Contacts
	leads     LeadReader
	reminders ReminderScheduler
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// New creates the notification module. reminders may be nil, in which case
// follow-up dates are not turned into reminders.
func New(sender email.Sender, contacts Contacts, leads LeadReader, reminders ReminderScheduler, cfg Config, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{
		sender:    sender,
		contacts:  contacts,
		leads:     leads,
		reminders: reminders,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

func (m *Module) Name() string { return "notification" }

func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	events.Subscribe(bus, m, events.LeadAssigned{}, events.LeadFollowUpScheduled{})

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadAssigned:
		return m.handleLeadAssigned(ctx, e)
	case events.LeadFollowUpScheduled:
		return m.handleFollowUpScheduled(ctx, e)
	default:
		m.log.Warn("notification: unhandled event", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleLeadAssigned(ctx context.Context, e events.LeadAssigned) error {
	name, to, err := m.contacts.Contact(ctx, e.ConsultantID)
	if err != nil {
		return fmt.Errorf("resolve consultant %s: %w", e.ConsultantID, err)
	}
	if to == "" {
		return nil
	}

	stageName := ""
	if lead, err := m.leads.GetByID(ctx, e.LeadID); err == nil {
		stageName = lead.StatusName
	} else {
		m.log.WithContext(ctx).Warn("notification: lead lookup failed", "leadId", e.LeadID, "error", err)
	}

	if err := m.sender.SendLeadAssignedEmail(ctx, to, email.LeadAssignedData{
		ConsultantName: name,
		PatientName:    e.PatientName,
		StageName:      stageName,
		LeadURL:        m.leadURL(e.LeadID),
	}); err != nil {
		return fmt.Errorf("send lead assigned email: %w", err)
	}

	m.log.Info("lead assignment email sent", "leadId", e.LeadID, "consultantId", e.ConsultantID)
	return nil
}

func (m *Module) handleFollowUpScheduled(ctx context.Context, e events.LeadFollowUpScheduled) error {
	if m.reminders == nil || e.ConsultantID == nil {
		return nil
	}

	runAt := e.FollowUpAt.Add(-m.cfg.GetFollowUpReminderLead())
	if now := m.now(); runAt.Before(now) {
		if !e.FollowUpAt.After(now) {
			return nil
		}
		runAt = now
	}

	if err := m.reminders.ScheduleFollowUpReminder(ctx, e.LeadID, e.FollowUpAt, runAt); err != nil {
		return fmt.Errorf("schedule follow-up reminder: %w", err)
	}
	return nil
}

// SendFollowUpReminder e-mails the lead's consultant about a follow-up due at
// followUpAt. Reminders whose date no longer matches the lead are dropped.
func (m *Module) SendFollowUpReminder(ctx context.Context, leadID uuid.UUID, followUpAt time.Time) error {
	lead, err := m.leads.GetByID(ctx, leadID)
	if err != nil {
		return fmt.Errorf("load lead %s: %w", leadID, err)
	}
	if lead.NextFollowUp == nil || !sameMinute(*lead.NextFollowUp, followUpAt) {
		m.log.Info("stale follow-up reminder skipped", "leadId", leadID)
		return nil
	}

	consultantID := lead.AssignedConsultantID
	if consultantID == nil {
		consultantID = lead.ConsultantID
	}
	if consultantID == nil {
		return nil
	}

	name, to, err := m.contacts.Contact(ctx, *consultantID)
	if err != nil {
		return fmt.Errorf("resolve consultant %s: %w", *consultantID, err)
	}
	if to == "" {
		return nil
	}

	return m.sender.SendFollowUpReminderEmail(ctx, to, email.FollowUpReminderData{
		ConsultantName: name,
		PatientName:    lead.PatientName,
		FollowUpAt:     followUpAt.Format(followUpLayout),
		LeadURL:        m.leadURL(leadID),
	})
}

func (m *Module) leadURL(leadID uuid.UUID) string {
	base := strings.TrimRight(m.cfg.GetAppBaseURL(), "/")
	return base + "/leads/" + leadID.String()
}

// sameMinute compares follow-up dates at the precision users schedule them.
func sameMinute(a, b time.Time) bool {
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}

var _ events.Handler = (*Module)(nil)
