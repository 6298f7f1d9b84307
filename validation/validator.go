package validation

import (
	"fmt"
	"strings"

	"github.com/skillsenselab/vbdiar/errors"
)

// FieldError names one invalid field and what is wrong with it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates field errors across a request so a caller gets
// every problem in one response instead of the first one hit.
type Validator struct {
	errors []FieldError
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a field error directly. Checks that span multiple
// fields (mutual exclusion, cross-field constraints) use this.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool { return len(v.errors) > 0 }

// Errors returns the accumulated field errors.
func (v *Validator) Errors() []FieldError {
	if v.errors == nil {
		return []FieldError{}
	}
	return v.errors
}

// Validate folds the accumulated errors into a single AppError, or nil
// when every check passed.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	return fold(v.errors)
}

// fold turns a field error list into one AppError whose message joins
// every failure and whose Details carry the per-field breakdown.
func fold(fieldErrors []FieldError) *errors.AppError {
	messages := make([]string, len(fieldErrors))
	for i, e := range fieldErrors {
		messages[i] = e.Field + ": " + e.Message
	}
	appErr := errors.Validation(strings.Join(messages, "; "))
	appErr.Details = map[string]any{"fields": fieldErrors}
	return appErr
}

// Required checks that a string is non-blank.
func (v *Validator) Required(field, value string) *Validator {
	return v.Custom(strings.TrimSpace(value) != "", field, "is required")
}

// MaxLength bounds a string's length.
func (v *Validator) MaxLength(field, value string, maxLen int) *Validator {
	return v.Custom(len(value) <= maxLen, field,
		fmt.Sprintf("must be %d characters or less", maxLen))
}

// Min checks that a number meets a minimum.
func (v *Validator) Min(field string, value, minVal int) *Validator {
	return v.Custom(value >= minVal, field,
		fmt.Sprintf("must be at least %d", minVal))
}

// Custom records a field error when the condition is false.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}
