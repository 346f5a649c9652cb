package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/opmodel/graphpack/internal/build"
	"github.com/opmodel/graphpack/internal/chunk"
	"github.com/opmodel/graphpack/internal/cmdtypes"
	"github.com/opmodel/graphpack/internal/cmdutil"
	oerrors "github.com/opmodel/graphpack/internal/errors"
	"github.com/opmodel/graphpack/internal/output"
)

// NewGraphCmd creates the graph command.
func NewGraphCmd(gc *cmdtypes.GlobalConfig) *cobra.Command {
	var (
		bf cmdutil.BuildFlags
		gf cmdutil.GraphFlags
	)

	c := &cobra.Command{
		Use:   "graph",
		Short: "Show the module graph and chunk assignment",
		Long: `Load the module graph and classify it into chunks without transforming,
emitting or writing anything.

Examples:
  # Dependency tree per entry, annotated with the chunk of each module
  graphpack graph

  # Machine readable
  graphpack graph -o json`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return runGraph(c.Context(), c.OutOrStdout(), gc, &bf, &gf)
		},
	}

	bf.AddTo(c)
	gf.AddTo(c)

	return c
}

// graphReport is the yaml/json form of an analysis.
type graphReport struct {
	Entries map[string]string `json:"entries" yaml:"entries"`
	Chunks  []reportChunk     `json:"chunks" yaml:"chunks"`
	Modules []reportModule    `json:"modules" yaml:"modules"`
	Stats   build.GraphStats  `json:"stats" yaml:"stats"`
}

type reportChunk struct {
	Name    string   `json:"name" yaml:"name"`
	Modules []string `json:"modules" yaml:"modules"`
}

type reportModule struct {
	ID    string   `json:"id" yaml:"id"`
	Chunk string   `json:"chunk" yaml:"chunk"`
	Deps  []string `json:"deps,omitempty" yaml:"deps,omitempty"`
}

func newGraphReport(a *build.Analysis) graphReport {
	r := graphReport{
		Entries: a.Graph.Entries,
		Stats:   a.Stats,
	}
	for _, c := range chunk.Sorted(a.Chunks) {
		r.Chunks = append(r.Chunks, reportChunk{Name: c.Name, Modules: c.Modules})
	}
	of := chunk.Of(a.Chunks)
	for _, id := range a.Graph.IDs() {
		r.Modules = append(r.Modules, reportModule{
			ID:    id,
			Chunk: of[id],
			Deps:  a.Graph.Modules[id].DepIDs(),
		})
	}
	return r
}

func runGraph(ctx context.Context, w io.Writer, gc *cmdtypes.GlobalConfig, bf *cmdutil.BuildFlags, gf *cmdutil.GraphFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := gf.Format()
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitGeneralError, Err: err}
	}

	bc, err := cmdutil.PrepareBuild(gc, bf)
	if err != nil {
		return err
	}

	analysis, err := build.NewPipeline().Analyze(ctx, bc)
	if err != nil {
		cmdutil.PrintBuildError("graph failed", err)
		return &oerrors.ExitError{Code: cmdutil.ExitCodeFromError(err), Err: err, Printed: true}
	}

	switch format {
	case output.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(newGraphReport(analysis))
	case output.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(newGraphReport(analysis))
		if err == nil {
			err = enc.Close()
		}
	default:
		err = writeTrees(w, analysis)
	}
	if err != nil {
		return &oerrors.ExitError{Code: oerrors.ExitGeneralError, Err: fmt.Errorf("writing graph: %w", err)}
	}
	return nil
}

// writeTrees prints one dependency tree per entry.
func writeTrees(w io.Writer, a *build.Analysis) error {
	of := chunk.Of(a.Chunks)
	deps := func(id string) []string {
		m, ok := a.Graph.Modules[id]
		if !ok {
			return nil
		}
		return m.DepIDs()
	}
	describe := func(id string) string {
		return "[" + of[id] + "]"
	}

	for _, name := range a.Graph.EntryNames() {
		if _, err := fmt.Fprintf(w, "%s:\n%s\n", name, output.RenderDependencyTree(a.Graph.Entries[name], deps, describe)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d modules, %d edges, %d chunks\n", a.Stats.Modules, a.Stats.Edges, len(a.Chunks))
	return err
}
