package domain

import (
	"fmt"

	"canna_portal_backend/platform/apperr"
)

// Error codes returned in the details of lead errors.
const (
	CodeBackwardTransitionBlocked = "backward_transition_blocked"
	CodeUnknownStage              = "unknown_stage"
	CodeStaleVersion              = "stale_version"
	CodeAlreadyAssigned           = "lead_already_assigned"
	CodePipelineEmpty             = "pipeline_empty"
)

const msgLeadNotFound = "lead not found"

// BackwardTransitionBlocked reports a non-admin move below the
// prescription milestone.
func BackwardTransitionBlocked(from, to string) *apperr.Error {
	return apperr.Coded(apperr.KindForbidden, CodeBackwardTransitionBlocked,
		fmt.Sprintf("lead cannot move back from %q to %q after prescription validation", from, to))
}

// UnknownStage reports a status that is not an active registry stage.
func UnknownStage(slug string) *apperr.Error {
	return apperr.Coded(apperr.KindValidation, CodeUnknownStage,
		fmt.Sprintf("status %q is not an active pipeline stage", slug))
}

// StaleVersion reports a write based on an outdated copy of the lead.
func StaleVersion() *apperr.Error {
	return apperr.Coded(apperr.KindConflict, CodeStaleVersion,
		"lead was modified by someone else; reload and try again")
}

// AlreadyAssigned reports a self-assignment race lost to another consultant.
func AlreadyAssigned() *apperr.Error {
	return apperr.Coded(apperr.KindConflict, CodeAlreadyAssigned,
		"lead is already assigned to a consultant")
}

// PipelineEmpty reports that no active stage exists to place a new lead in.
func PipelineEmpty() *apperr.Error {
	return apperr.Coded(apperr.KindConflict, CodePipelineEmpty,
		"no active pipeline stage is configured")
}

// NotFound reports an unknown lead.
func NotFound() *apperr.Error {
	return apperr.NotFound(msgLeadNotFound)
}
