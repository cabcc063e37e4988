package management

import (
	"canna_portal_backend/internal/leads/domain"
	"canna_portal_backend/internal/leads/ports"
	"canna_portal_backend/internal/leads/repository"
	"canna_portal_backend/internal/leads/transport"
)

// ToLeadResponse converts a repository Lead to a transport LeadResponse.
// The pipeline resolves the display name of the status.
func ToLeadResponse(lead repository.Lead, pipeline domain.Pipeline) transport.LeadResponse {
	tags := lead.Tags
	if tags == nil {
		tags = []string{}
	}

	return transport.LeadResponse{
		ID:                   lead.ID,
		ClientID:             lead.ClientID,
		PatientName:          lead.PatientName,
		PatientEmail:         lead.PatientEmail,
		PatientPhone:         lead.PatientPhone,
		ConsultantID:         lead.ConsultantID,
		AssignedConsultantID: lead.AssignedConsultantID,
		AssignedAt:           lead.AssignedAt,
		Status:               lead.Status,
		StatusName:           pipeline.Name(lead.Status),
		Priority:             transport.Priority(lead.Priority),
		LeadScore:            lead.LeadScore,
		Tags:                 tags,
		Source:               lead.Source,
		Company:              lead.Company,
		JobTitle:             lead.JobTitle,
		Address: transport.Address{
			Street:       lead.AddressStreet,
			Number:       lead.AddressNumber,
			Complement:   lead.AddressComplement,
			Neighborhood: lead.AddressNeighborhood,
			City:         lead.AddressCity,
			State:        lead.AddressState,
			ZipCode:      lead.AddressZipCode,
		},
		Website:               lead.Website,
		LinkedInURL:           lead.LinkedInURL,
		InstagramURL:          lead.InstagramURL,
		Budget:                lead.Budget,
		EstimatedValue:        lead.EstimatedValue,
		ConversionProbability: lead.ConversionProbability,
		NextFollowUp:          lead.NextFollowUp,
		LostReason:            lead.LostReason,
		Notes:                 lead.Notes,
		Version:               lead.Version,
		CreatedAt:             lead.CreatedAt,
		UpdatedAt:             lead.UpdatedAt,
	}
}

func toLeadResponses(leads []repository.Lead, pipeline domain.Pipeline) []transport.LeadResponse {
	items := make([]transport.LeadResponse, len(leads))
	for i, lead := range leads {
		items[i] = ToLeadResponse(lead, pipeline)
	}
	return items
}

func toHistoryResponse(entry repository.HistoryEntry, pipeline domain.Pipeline) transport.HistoryEntryResponse {
	resp := transport.HistoryEntryResponse{
		ID:             entry.ID,
		PreviousStatus: entry.PreviousStatus,
		NewStatus:      entry.NewStatus,
		NewStatusName:  pipeline.Name(entry.NewStatus),
		ByUserID:       entry.ByUserID,
		Notes:          entry.Notes,
		CreatedAt:      entry.CreatedAt,
	}
	if entry.PreviousStatus != nil {
		name := pipeline.Name(*entry.PreviousStatus)
		resp.PreviousStatusName = &name
	}
	return resp
}

func toStageRefs(views []ports.StageView) []domain.StageRef {
	refs := make([]domain.StageRef, len(views))
	for i, v := range views {
		refs[i] = v.StageRef
	}
	return refs
}
