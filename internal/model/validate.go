package model

import (
	"fmt"
	"math"
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

// ValidateLandInput checks a registration form before it is submitted.
// The ledger applies its own rules; this only catches input that can never
// be encoded or that is obviously incomplete.
func ValidateLandInput(in *LandInput) error {
	var ve ValidationError

	coords := strings.TrimSpace(in.Coordinates)
	if coords == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "coordinates", Message: "is required"})
	} else if len([]rune(coords)) > 200 {
		ve.Errors = append(ve.Errors, FieldError{Field: "coordinates", Message: "must be 200 characters or fewer"})
	}

	if math.IsNaN(in.Size) || math.IsInf(in.Size, 0) || in.Size <= 0 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "size",
			Message: fmt.Sprintf("must be a positive number, got %v", in.Size),
		})
	}

	if strings.TrimSpace(in.Description) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "description", Message: "is required"})
	}

	if in.Price != nil {
		if _, err := ToSubunits(*in.Price); err != nil {
			ve.Errors = append(ve.Errors, FieldError{Field: "price", Message: err.Error()})
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateLand checks the structural invariants of a record received from the
// ledger: a known status, update time not before creation time, and a
// history whose timestamps never go backwards.
func ValidateLand(l *Land) error {
	var ve ValidationError

	if !l.Status.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "status",
			Message: fmt.Sprintf("invalid value %q", l.Status),
		})
	}

	if l.UpdatedAt.Before(l.CreatedAt) {
		ve.Errors = append(ve.Errors, FieldError{Field: "updated_at", Message: "is before created_at"})
	}

	for i := 1; i < len(l.History); i++ {
		if l.History[i].Timestamp.Before(l.History[i-1].Timestamp) {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   fmt.Sprintf("history[%d].timestamp", i),
				Message: "is before the previous transfer",
			})
		}
	}

	if l.Price != nil && (*l.Price < 0 || math.IsNaN(*l.Price)) {
		ve.Errors = append(ve.Errors, FieldError{Field: "price", Message: "must be non-negative"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
