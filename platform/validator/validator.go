// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"canna_portal_backend/platform/phone"
	"canna_portal_backend/platform/textnorm"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the platform's custom tags:
//
//	phone_br   the value parses as a valid phone number (Brazil by default)
//	slugsafe   the value produces a non-empty slug
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("phone_br", func(fl validator.FieldLevel) bool {
		return phone.IsValid(fl.Field().String())
	})
	_ = v.RegisterValidation("slugsafe", func(fl validator.FieldLevel) bool {
		return textnorm.Slugify(fl.Field().String()) != ""
	})
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
