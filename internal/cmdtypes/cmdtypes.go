// Package cmdtypes provides shared types for the cmd package and its helpers.
// It is separate from internal/cmd to avoid import cycles between internal/cmd
// and internal/cmdutil.
package cmdtypes

import (
	"github.com/opmodel/graphpack/internal/config"
	oerrors "github.com/opmodel/graphpack/internal/errors"
)

// GlobalConfig holds CLI-wide configuration resolved during PersistentPreRunE.
// It is populated once at startup and passed explicitly into every sub-command
// constructor.
type GlobalConfig struct {
	// Config is the loaded configuration, nil if loading failed.
	Config *config.Config

	// ConfigErr is why Config is nil. Commands that need a config report it.
	ConfigErr error

	// ConfigPath is the resolved --config path, empty to search the
	// working directory.
	ConfigPath string

	Verbose bool
}

// Exit codes, aliases of the internal/errors constants.
const (
	ExitSuccess         = oerrors.ExitSuccess
	ExitGeneralError    = oerrors.ExitGeneralError
	ExitValidationError = oerrors.ExitValidationError
	ExitBuildError      = oerrors.ExitBuildError
	ExitNotFound        = oerrors.ExitNotFound
)

// ExitError is a type alias to internal/errors.ExitError.
type ExitError = oerrors.ExitError
