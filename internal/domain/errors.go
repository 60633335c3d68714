package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy. Cross-workspace reads are reported as ErrNotFound so
// responses never reveal that a resource exists in another tenant.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrForbidden       = errors.New("forbidden")
	ErrDuplicate       = errors.New("duplicate resource")
	ErrProtected       = errors.New("protected resource")
	ErrCrossWorkspace  = errors.New("cross-workspace reference")
	ErrExternalService = errors.New("external service failure")
)

// FieldError describes a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the full list of field violations for a
// rejected payload. Validation is all-or-nothing: one error aborts the
// write, and the caller gets every violation at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any violation was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}
