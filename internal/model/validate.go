package model

import (
	"strings"
	"unicode/utf8"
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

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Invalid returns a *ValidationError with a single field error.
func Invalid(field, message string) error {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// maxTitleLength bounds task and artifact titles.
const maxTitleLength = 500

// ValidateTask checks a Task for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the task is valid.
func ValidateTask(t *Task) error {
	var ve ValidationError

	title := strings.TrimSpace(t.Title)
	if title == "" {
		ve.Add("title", "is required")
	} else if utf8.RuneCountInString(title) > maxTitleLength {
		ve.Add("title", "must be 500 characters or fewer")
	}

	if !t.Status.IsValid() {
		ve.Add("status", "invalid value \""+string(t.Status)+"\"")
	}

	if t.ParentID != "" && t.ParentID == t.ID {
		ve.Add("parent_id", "a task cannot be its own parent")
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateArtifact checks an Artifact for constraint violations.
func ValidateArtifact(a *Artifact) error {
	var ve ValidationError

	title := strings.TrimSpace(a.Title)
	if title == "" {
		ve.Add("title", "is required")
	} else if utf8.RuneCountInString(title) > maxTitleLength {
		ve.Add("title", "must be 500 characters or fewer")
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// NormalizeConditions trims every description and drops the blank ones,
// keeping the original order.
func NormalizeConditions(descriptions []string) []string {
	out := make([]string, 0, len(descriptions))
	for _, d := range descriptions {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}
