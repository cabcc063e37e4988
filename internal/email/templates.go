package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type leadAssignedEmailData struct {
	baseEmailData
	LeadAssignedData
}

type followUpReminderEmailData struct {
	baseEmailData
	FollowUpReminderData
}

func renderLeadAssigned(data LeadAssignedData) (string, error) {
	return renderEmailTemplate("lead_assigned.html", leadAssignedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Novo lead atribuído",
			Heading:  "Um novo lead é seu",
			CTALabel: "Abrir lead",
			CTAURL:   data.LeadURL,
		},
		LeadAssignedData: data,
	})
}

func renderFollowUpReminder(data FollowUpReminderData) (string, error) {
	return renderEmailTemplate("follow_up_reminder.html", followUpReminderEmailData{
		baseEmailData: baseEmailData{
			Title:    "Lembrete de follow-up",
			Heading:  "Hora de retomar o contato",
			CTALabel: "Abrir lead",
			CTAURL:   data.LeadURL,
		},
		FollowUpReminderData: data,
	})
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
