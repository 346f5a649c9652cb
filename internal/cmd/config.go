package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opmodel/graphpack/internal/cmdtypes"
	"github.com/opmodel/graphpack/internal/config"
	oerrors "github.com/opmodel/graphpack/internal/errors"
	"github.com/opmodel/graphpack/internal/output"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd(gc *cmdtypes.GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  `Configuration management for graphpack projects.`,
	}

	c.AddCommand(NewConfigInitCmd(gc))
	c.AddCommand(NewConfigVetCmd(gc))

	return c
}

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd(gc *cmdtypes.GlobalConfig) *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a default graphpack.yaml.

The file declares a single "app" entry at ./src/index.js, a source map rule,
a TypeScript rule and a vendor split for node_modules.

Examples:
  # Create graphpack.yaml in the working directory
  graphpack config init

  # Overwrite an existing file
  graphpack config init --force`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runConfigInit(gc, force)
		},
	}

	c.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return c
}

func runConfigInit(gc *cmdtypes.GlobalConfig, force bool) error {
	path := gc.ConfigPath
	if path == "" {
		path = config.ConfigFileNames[0]
	}

	if _, err := os.Stat(path); err == nil && !force {
		return &oerrors.DetailError{
			Type:     "validation failed",
			Message:  "configuration already exists",
			Location: path,
			Hint:     "Use --force to overwrite existing configuration.",
			Cause:    oerrors.ErrValidation,
		}
	}

	data, err := config.DefaultConfigYAML()
	if err != nil {
		return fmt.Errorf("rendering default configuration: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}

	output.Println("Configuration written to " + path)
	output.Println("Validate with: graphpack config vet")
	return nil
}

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd(gc *cmdtypes.GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate the configuration file",
		Long: `Validate the configuration against the schema and the build rules.

Checks:
  - field types and value ranges
  - regular expressions of rules and splits
  - step names and step options
  - unique rule and provide names

Examples:
  graphpack config vet
  graphpack config vet -c ./configs/graphpack.yaml`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runConfigVet(c, gc)
		},
	}
}

func runConfigVet(c *cobra.Command, gc *cmdtypes.GlobalConfig) error {
	validator, err := config.NewValidator()
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitGeneralError, Err: err}
	}

	path := gc.ConfigPath
	if path == "" {
		if path, err = config.FindConfigFile("."); err != nil {
			return &oerrors.ExitError{Code: oerrors.ExitNotFound, Err: err}
		}
	}

	err = validator.ValidateFile(path)
	if err == nil {
		output.Println(output.FormatCheckmark("Configuration is valid: " + path))
		return nil
	}

	code := oerrors.ExitValidationError
	if errors.Is(err, oerrors.ErrNotFound) {
		code = oerrors.ExitNotFound
	}

	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		fmt.Fprintf(c.ErrOrStderr(), "%s: %d problem(s)\n", path, len(verrs))
		for _, ve := range verrs {
			fmt.Fprintf(c.ErrOrStderr(), "  %s: %s\n", ve.Field, ve.Message)
		}
		return &oerrors.ExitError{Code: code, Err: err, Printed: true}
	}
	return &oerrors.ExitError{Code: code, Err: err}
}
