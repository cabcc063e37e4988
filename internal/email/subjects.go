package email

const (
	subjectLeadAssignedFmt     = "Novo lead atribuído: %s"
	subjectFollowUpReminderFmt = "Lembrete de follow-up: %s"
)
