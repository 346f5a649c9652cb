package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opmodel/graphpack/internal/build"
	"github.com/opmodel/graphpack/internal/cmdtypes"
	"github.com/opmodel/graphpack/internal/cmdutil"
	oerrors "github.com/opmodel/graphpack/internal/errors"
	"github.com/opmodel/graphpack/internal/output"
	"github.com/opmodel/graphpack/internal/publish"
)

// NewBuildCmd creates the build command.
func NewBuildCmd(gc *cmdtypes.GlobalConfig) *cobra.Command {
	var bf cmdutil.BuildFlags

	var (
		publishFlag bool
		dryRunFlag  bool
	)

	c := &cobra.Command{
		Use:   "build",
		Short: "Build all chunks",
		Long: `Build the module graph described by the configuration.

Phases run strictly in order: load the graph from the entries, apply the
transform rules, classify modules into chunks, emit one artifact per chunk
and write them to the output directory. A failed or interrupted build
writes nothing.

Examples:
  # Development build with the config in the working directory
  graphpack build

  # Production build (define NODE_ENV, minify)
  graphpack build -p

  # Source maps into a custom directory
  graphpack build --source-maps --out ./public/js

  # Build and upload to the configured bucket
  graphpack build -p --publish`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runBuild(c.Context(), gc, &bf, publishFlag, dryRunFlag)
		},
	}

	bf.AddTo(c)
	c.Flags().BoolVar(&publishFlag, "publish", false,
		"Upload artifacts to the configured bucket after writing")
	c.Flags().BoolVar(&dryRunFlag, "dry-run", false,
		"Run every phase up to emit without writing files")

	return c
}

func runBuild(ctx context.Context, gc *cmdtypes.GlobalConfig, bf *cmdutil.BuildFlags, publishFlag, dryRun bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	bc, err := cmdutil.PrepareBuild(gc, bf)
	if err != nil {
		return err
	}

	pipeline := build.NewPipeline()
	pipeline.DryRun = dryRun

	if publishFlag && !dryRun {
		if !bc.Publish.Enabled() {
			return &oerrors.ExitError{
				Code: oerrors.ExitValidationError,
				Err:  fmt.Errorf("--publish requires publish.endpoint and publish.bucket in the config"),
			}
		}
		pub, err := publish.New(bc.Publish)
		if err != nil {
			return &oerrors.ExitError{Code: oerrors.ExitValidationError, Err: err}
		}
		pipeline.Publisher = pub
	}

	var result *build.Result
	err = output.RunWithSpinner(ctx, func() error {
		var runErr error
		result, runErr = pipeline.Run(ctx, bc)
		return runErr
	}, output.WithTitle(fmt.Sprintf("Building %s (%s)...", bc.Root, bc.Mode)))
	if err != nil {
		cmdutil.PrintBuildError("build failed", err)
		return &oerrors.ExitError{Code: cmdutil.ExitCodeFromError(err), Err: err, Printed: true}
	}

	cmdutil.WriteBuildSummary(result, gc.Verbose)
	return nil
}
