// Package cmd provides CLI command implementations.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opmodel/graphpack/internal/cmdtypes"
	"github.com/opmodel/graphpack/internal/config"
	"github.com/opmodel/graphpack/internal/output"
)

// NewRootCmd creates the root command for the graphpack CLI.
func NewRootCmd() *cobra.Command {
	var (
		configFlag     string
		verboseFlag    bool
		timestampsFlag bool
	)
	gc := &cmdtypes.GlobalConfig{}

	rootCmd := &cobra.Command{
		Use:   "graphpack",
		Short: "Module graph build core",
		Long: `graphpack resolves a JavaScript/TypeScript module graph from entry points,
applies pattern-matched transformation rules, groups modules into chunks and
emits one artifact per chunk, optionally with source maps.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd, gc, configFlag, verboseFlag, timestampsFlag)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to config file (env: GRAPHPACK_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true, "Show timestamps in log output")

	rootCmd.AddCommand(NewBuildCmd(gc))
	rootCmd.AddCommand(NewGraphCmd(gc))
	rootCmd.AddCommand(NewConfigCmd(gc))
	rootCmd.AddCommand(NewVersionCmd(gc))

	return rootCmd
}

// initializeGlobals loads configuration and sets up logging. A config that
// fails to load is recorded, not fatal, so commands that need none still run.
func initializeGlobals(cmd *cobra.Command, gc *cmdtypes.GlobalConfig, configFlag string, verbose, timestamps bool) error {
	pathResult := config.ResolveConfigPath(config.ResolveConfigPathOptions{FlagValue: configFlag})

	gc.ConfigPath = pathResult.ConfigPath
	gc.Verbose = verbose
	gc.Config, gc.ConfigErr = config.NewLoader().LoadWithDefaults(pathResult.ConfigPath)

	// Resolve timestamps: flag (if explicitly set) > config > default (nil = true)
	logCfg := output.LogConfig{Verbose: verbose}
	if cmd.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(timestamps)
	} else if gc.Config != nil && gc.Config.Log.Timestamps != nil {
		logCfg.Timestamps = gc.Config.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	config.LogResolvedValues([]config.ResolvedValue{
		{Key: "config", Value: pathResult.ConfigPath, Source: pathResult.Source, Shadowed: pathResult.Shadowed},
	})
	if gc.ConfigErr != nil {
		output.Debug("config load error", "error", gc.ConfigErr)
	}

	return nil
}
