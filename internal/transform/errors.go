package transform

import (
	"fmt"

	oerrors "github.com/opmodel/graphpack/internal/errors"
)

// TransformError indicates a step failed on a module.
type TransformError struct {
	// ModuleID is the module being transformed.
	ModuleID string

	// Rule is the name of the rule holding the step.
	Rule string

	// StepIndex is the zero-based position of the step within its rule.
	StepIndex int

	// Step is the step name.
	Step string

	// Cause is the underlying error.
	Cause error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("module %q, rule %q, step %d (%s): %v",
		e.ModuleID, e.Rule, e.StepIndex, e.Step, e.Cause)
}

func (e *TransformError) Unwrap() error {
	return e.Cause
}

// Is matches the transform sentinel.
func (e *TransformError) Is(target error) bool {
	return target == oerrors.ErrTransform
}
