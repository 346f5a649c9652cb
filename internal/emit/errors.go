package emit

import (
	"errors"
	"fmt"

	oerrors "github.com/opmodel/graphpack/internal/errors"
)

// EmitError indicates an artifact could not be produced or written.
type EmitError struct {
	// Chunk is the chunk being emitted, if known.
	Chunk string

	// ModuleID is the offending module, if any.
	ModuleID string

	// Path is the file being written, if any.
	Path string

	// Cause is the underlying error.
	Cause error
}

func (e *EmitError) Error() string {
	switch {
	case e.ModuleID != "":
		return fmt.Sprintf("chunk %q, module %q: %v", e.Chunk, e.ModuleID, e.Cause)
	case e.Path != "":
		return fmt.Sprintf("writing %s: %v", e.Path, e.Cause)
	case e.Chunk == "":
		return fmt.Sprintf("emit: %v", e.Cause)
	default:
		return fmt.Sprintf("chunk %q: %v", e.Chunk, e.Cause)
	}
}

func (e *EmitError) Unwrap() error {
	return e.Cause
}

// Is matches the emit sentinel.
func (e *EmitError) Is(target error) bool {
	return target == oerrors.ErrEmit
}

// ErrNoMappings is the cause reported for a module without position data
// when source maps are requested.
var ErrNoMappings = errors.New("module has no position metadata")
