package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateDependency checks a Dependency for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the dependency is valid.
// Directions are checked for membership only; they are not tied to the type.
func ValidateDependency(d *Dependency) error {
	var ve ValidationError

	if strings.TrimSpace(d.From) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "from", Message: "is required"})
	}
	if strings.TrimSpace(d.To) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "to", Message: "is required"})
	}

	if !d.Temporal.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "temporal",
			Message: fmt.Sprintf("invalid value %q", d.Temporal),
		})
	}
	if !d.TemporalDirection.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "temporal_direction",
			Message: fmt.Sprintf("invalid value %q", d.TemporalDirection),
		})
	}
	if !d.Existential.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "existential",
			Message: fmt.Sprintf("invalid value %q", d.Existential),
		})
	}
	if !d.ExistentialDirection.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "existential_direction",
			Message: fmt.Sprintf("invalid value %q", d.ExistentialDirection),
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
