package errors

import "errors"

// Sentinel errors for known conditions.
var (
	// ErrValidation indicates the build configuration failed validation.
	ErrValidation = errors.New("validation error")

	// ErrResolution indicates an import could not be resolved to a module.
	ErrResolution = errors.New("resolution error")

	// ErrTransform indicates a transformation step failed.
	ErrTransform = errors.New("transform error")

	// ErrEmit indicates an artifact could not be produced or written.
	ErrEmit = errors.New("emit error")

	// ErrNotFound indicates a file, module, or config was not found.
	ErrNotFound = errors.New("not found")
)
