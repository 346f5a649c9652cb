package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opmodel/graphpack/internal/cmdtypes"
	"github.com/opmodel/graphpack/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd(_ *cmdtypes.GlobalConfig) *cobra.Command {
	var jsonOut bool

	c := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show graphpack version information.

Displays:
  - graphpack version, commit, and build date
  - esbuild and CUE versions compiled into the binary`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			info := version.Get()
			if jsonOut {
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(c.OutOrStdout(), string(data))
				return err
			}
			_, err := fmt.Fprintln(c.OutOrStdout(), info.String())
			return err
		},
	}

	c.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")

	return c
}
