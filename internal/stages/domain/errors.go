// Package domain holds stage registry rules that do not depend on storage.
package domain

import (
	"fmt"

	"canna_portal_backend/platform/apperr"
)

// Error codes returned in the details of stage registry errors.
const (
	CodeDuplicateSlug = "duplicate_slug"
	CodeInvalidName   = "invalid_stage_name"
)

const msgStageNotFound = "stage not found"

// DuplicateSlug reports that another stage already owns slug.
func DuplicateSlug(slug string) *apperr.Error {
	return apperr.Coded(apperr.KindConflict, CodeDuplicateSlug,
		fmt.Sprintf("a stage with slug %q already exists", slug))
}

// InvalidName reports a name that normalizes to an empty slug.
func InvalidName(name string) *apperr.Error {
	return apperr.Coded(apperr.KindValidation, CodeInvalidName,
		fmt.Sprintf("stage name %q has no letters or digits", name))
}

// NotFound reports an unknown stage.
func NotFound() *apperr.Error {
	return apperr.NotFound(msgStageNotFound)
}
