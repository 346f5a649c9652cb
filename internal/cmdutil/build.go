package cmdutil

import (
	"errors"
	"fmt"

	"github.com/opmodel/graphpack/internal/cmdtypes"
	"github.com/opmodel/graphpack/internal/config"
	oerrors "github.com/opmodel/graphpack/internal/errors"
	"github.com/opmodel/graphpack/internal/output"
)

// PrepareBuild validates the loaded configuration, resolves the mode and
// returns the finished BuildConfig.
//
// On failure it returns an *ExitError with the appropriate exit code; the
// Printed flag is set when the error was already reported.
func PrepareBuild(gc *cmdtypes.GlobalConfig, flags *BuildFlags) (*config.BuildConfig, error) {
	if gc == nil || gc.Config == nil {
		err := fmt.Errorf("configuration not loaded")
		if gc != nil && gc.ConfigErr != nil {
			err = gc.ConfigErr
		}
		return nil, &oerrors.ExitError{Code: ExitCodeFromError(err), Err: err}
	}
	cfg := gc.Config

	if err := flags.Validate(); err != nil {
		return nil, &oerrors.ExitError{Code: oerrors.ExitGeneralError, Err: err}
	}

	validator, err := config.NewValidator()
	if err != nil {
		return nil, &oerrors.ExitError{Code: oerrors.ExitGeneralError, Err: err}
	}
	if err := validator.Validate(cfg); err != nil {
		PrintBuildError("invalid configuration", err)
		return nil, &oerrors.ExitError{Code: oerrors.ExitValidationError, Err: err, Printed: true}
	}

	mode, err := config.ResolveMode(config.ResolveModeOptions{
		FlagValue:   flags.ModeFlag(),
		ConfigValue: cfg.Mode,
	})
	if err != nil {
		return nil, &oerrors.ExitError{Code: oerrors.ExitValidationError, Err: err}
	}
	config.LogResolvedValues([]config.ResolvedValue{
		{Key: "mode", Value: mode.Mode, Source: mode.Source, Shadowed: mode.Shadowed},
	})

	builder := config.NewBuilder(cfg).WithMode(mode.Mode)
	if v := flags.SourceMapsOverride(); v != nil {
		builder = builder.WithSourceMaps(*v)
	}
	if flags.OutDir != "" {
		builder = builder.WithOutputDir(flags.OutDir)
	}

	bc, err := builder.Build()
	if err != nil {
		return nil, &oerrors.ExitError{Code: oerrors.ExitValidationError, Err: err}
	}

	output.Debug("prepared build",
		"root", bc.Root,
		"mode", bc.Mode,
		"rules", len(bc.Rules),
		"out", bc.OutputDir,
		"source-maps", bc.Emit.SourceMaps,
	)
	return bc, nil
}

// ExitCodeFromError maps an error to the process exit code.
func ExitCodeFromError(err error) int {
	if err == nil {
		return oerrors.ExitSuccess
	}

	var exitErr *oerrors.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var validationErrs config.ValidationErrors
	switch {
	case errors.As(err, &validationErrs), errors.Is(err, oerrors.ErrValidation):
		return oerrors.ExitValidationError
	case errors.Is(err, oerrors.ErrResolution),
		errors.Is(err, oerrors.ErrTransform),
		errors.Is(err, oerrors.ErrEmit):
		return oerrors.ExitBuildError
	case errors.Is(err, oerrors.ErrNotFound):
		return oerrors.ExitNotFound
	default:
		return oerrors.ExitGeneralError
	}
}
