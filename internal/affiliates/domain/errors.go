package domain

import (
	"fmt"

	"canna_portal_backend/platform/apperr"
)

// Error codes returned in the details of affiliate errors.
const (
	CodeDuplicateCustomCode = "duplicate_custom_code"
	CodeInvalidCustomCode   = "invalid_custom_code"
	CodeCodeExhausted       = "affiliate_code_exhausted"
)

// DuplicateCustomCode reports a caller-chosen code that another user
// already holds.
func DuplicateCustomCode(code string) *apperr.Error {
	return apperr.Coded(apperr.KindConflict, CodeDuplicateCustomCode,
		fmt.Sprintf("affiliate code %q is already in use", code))
}

// InvalidCustomCode reports a custom code that normalizes to too few
// characters.
func InvalidCustomCode(raw string) *apperr.Error {
	return apperr.Coded(apperr.KindValidation, CodeInvalidCustomCode,
		fmt.Sprintf("affiliate code %q must have between 4 and 32 letters or digits", raw))
}

// CodeExhausted reports that no free generated code was found.
func CodeExhausted() *apperr.Error {
	return apperr.Coded(apperr.KindConflict, CodeCodeExhausted,
		"could not generate a unique affiliate code; try again")
}

// VendorNotFound reports an unknown vendor on a direct lookup.
func VendorNotFound() *apperr.Error {
	return apperr.NotFound("vendor not found")
}
