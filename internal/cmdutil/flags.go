// Package cmdutil provides shared command utilities for graphpack
// subcommands. It centralizes flag groups, build preparation, exit code
// mapping and output helpers.
package cmdutil

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opmodel/graphpack/internal/config"
	"github.com/opmodel/graphpack/internal/output"
)

// BuildFlags holds flags common to commands that run the build pipeline
// (build, graph).
type BuildFlags struct {
	Mode       string
	Production bool
	SourceMaps bool
	OutDir     string

	cmd *cobra.Command
}

// AddTo registers the build flags on the given cobra command.
func (f *BuildFlags) AddTo(cmd *cobra.Command) {
	f.cmd = cmd
	cmd.Flags().StringVar(&f.Mode, "mode", "",
		"Processing mode: development, production (env: GRAPHPACK_MODE, NODE_ENV)")
	cmd.Flags().BoolVarP(&f.Production, "production", "p", false,
		"Shorthand for --mode production")
	cmd.Flags().BoolVar(&f.SourceMaps, "source-maps", false,
		"Emit source maps (default: from config)")
	cmd.Flags().StringVar(&f.OutDir, "out", "",
		"Output directory (default: output.path from config)")
}

// Validate checks flag combinations.
func (f *BuildFlags) Validate() error {
	if f.Production && f.Mode != "" && f.Mode != string(config.ModeProduction) {
		return fmt.Errorf("--production and --mode %s are mutually exclusive", f.Mode)
	}
	if f.Mode != "" {
		if _, err := config.ParseMode(f.Mode); err != nil {
			return err
		}
	}
	return nil
}

// ModeFlag returns the mode requested on the command line, empty if none.
func (f *BuildFlags) ModeFlag() string {
	if f.Production {
		return string(config.ModeProduction)
	}
	return f.Mode
}

// SourceMapsOverride returns the --source-maps value if it was set.
func (f *BuildFlags) SourceMapsOverride() *bool {
	if f.cmd == nil || !f.cmd.Flags().Changed("source-maps") {
		return nil
	}
	v := f.SourceMaps
	return &v
}

// GraphFlags holds flags of the graph command.
type GraphFlags struct {
	Output string
}

// AddTo registers the graph flags on the given cobra command.
func (f *GraphFlags) AddTo(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Output, "output", "o", string(output.FormatTree),
		fmt.Sprintf("Output format: %v", output.ValidFormats()))
}

// Format parses the --output flag.
func (f *GraphFlags) Format() (output.OutputFormat, error) {
	format, ok := output.ParseOutputFormat(f.Output)
	if !ok {
		return "", fmt.Errorf("invalid output format %q (valid: %v)", f.Output, output.ValidFormats())
	}
	return format, nil
}
