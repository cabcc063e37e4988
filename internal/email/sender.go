package email

import (
	"context"

	"canna_portal_backend/platform/config"
)

// Sender delivers the CRM's transactional e-mails.
type Sender interface {
	SendLeadAssignedEmail(ctx context.Context, toEmail string, data LeadAssignedData) error
	SendFollowUpReminderEmail(ctx context.Context, toEmail string, data FollowUpReminderData) error
}

// LeadAssignedData fills the assignment notice.
type LeadAssignedData struct {
	ConsultantName string
	PatientName    string
	StageName      string
	LeadURL        string
}

// FollowUpReminderData fills the follow-up reminder.
type FollowUpReminderData struct {
	ConsultantName string
	PatientName    string
	FollowUpAt     string
	LeadURL        string
}

type NoopSender struct{}

func (NoopSender) SendLeadAssignedEmail(context.Context, string, LeadAssignedData) error {
	return nil
}

func (NoopSender) SendFollowUpReminderEmail(context.Context, string, FollowUpReminderData) error {
	return nil
}

// NewSender returns an SMTP sender when e-mail is enabled, and a no-op
// sender otherwise.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

var (
	_ Sender = NoopSender{}
	_ Sender = (*SMTPSender)(nil)
)
