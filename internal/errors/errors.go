// Package errors provides sentinel errors, detailed error formatting and
// exit codes for graphpack.
package errors

import (
	"sort"
	"strings"
)

// DetailError captures structured error information for user-facing output.
type DetailError struct {
	// Type is the error category (required).
	Type string

	// Message is the specific description (required).
	Message string

	// Location is the file path, optionally with a line number.
	Location string

	// Context contains additional key-value context (optional).
	Context map[string]string

	// Hint provides actionable guidance (optional).
	Hint string

	// Cause is the underlying error (optional).
	Cause error
}

// Error implements the error interface.
func (e *DetailError) Error() string {
	var b strings.Builder

	b.WriteString("Error: " + e.Type + "\n")
	if e.Location != "" {
		b.WriteString("  Location: " + e.Location + "\n")
	}
	for _, k := range e.contextKeys() {
		b.WriteString("  " + k + ": " + e.Context[k] + "\n")
	}
	b.WriteString("\n  " + e.Message + "\n")
	if e.Hint != "" {
		b.WriteString("\nHint: " + e.Hint + "\n")
	}

	return b.String()
}

// Lines renders the error for line-oriented log output: the message, then
// indented location, context and hint.
func (e *DetailError) Lines() []string {
	lines := []string{e.Message}
	if e.Location != "" {
		lines = append(lines, "  location: "+e.Location)
	}
	for _, k := range e.contextKeys() {
		lines = append(lines, "  "+strings.ToLower(k)+": "+e.Context[k])
	}
	if e.Hint != "" {
		lines = append(lines, "  hint: "+e.Hint)
	}
	return lines
}

func (e *DetailError) contextKeys() []string {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Unwrap returns the underlying error.
func (e *DetailError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a validation error with details.
func NewValidationError(message, location, hint string) error {
	return &DetailError{
		Type:     "validation failed",
		Message:  message,
		Location: location,
		Hint:     hint,
		Cause:    ErrValidation,
	}
}

// NewNotFoundError creates a not found error with details.
func NewNotFoundError(message, location, hint string) error {
	return &DetailError{
		Type:     "not found",
		Message:  message,
		Location: location,
		Hint:     hint,
		Cause:    ErrNotFound,
	}
}
