package cmdutil

import (
	"errors"
	"fmt"

	"github.com/opmodel/graphpack/internal/build"
	"github.com/opmodel/graphpack/internal/config"
	"github.com/opmodel/graphpack/internal/emit"
	oerrors "github.com/opmodel/graphpack/internal/errors"
	"github.com/opmodel/graphpack/internal/graph"
	"github.com/opmodel/graphpack/internal/output"
	"github.com/opmodel/graphpack/internal/transform"
	"github.com/opmodel/graphpack/internal/transform/steps"
)

// ErrorLines renders a build error as the lines PrintBuildError logs, most
// specific first.
func ErrorLines(err error) []string {
	var (
		resErr       *graph.ResolutionError
		transformErr *transform.TransformError
		emitErr      *emit.EmitError
		validation   config.ValidationErrors
		detail       *oerrors.DetailError
	)

	switch {
	case errors.As(err, &resErr):
		lines := []string{fmt.Sprintf("%s: cannot resolve %q", resErr.Importer, resErr.Specifier)}
		if hint := resErr.Hint(); hint != "" {
			lines = append(lines, "  "+hint)
		}
		return lines

	case errors.As(err, &transformErr):
		lines := []string{fmt.Sprintf("%s: rule %q failed at step %d (%s)",
			transformErr.ModuleID, transformErr.Rule, transformErr.StepIndex, transformErr.Step)}
		var msgs *steps.MessagesError
		if errors.As(transformErr.Cause, &msgs) {
			for _, m := range msgs.Messages {
				if loc := m.Location; loc != nil {
					lines = append(lines, fmt.Sprintf("  %s:%d:%d: %s", loc.File, loc.Line, loc.Column, m.Text))
					continue
				}
				lines = append(lines, "  "+m.Text)
			}
			return lines
		}
		return append(lines, fmt.Sprintf("  %v", transformErr.Cause))

	case errors.As(err, &emitErr):
		return []string{emitErr.Error()}

	case errors.As(err, &validation):
		lines := make([]string, 0, len(validation))
		for _, v := range validation {
			lines = append(lines, fmt.Sprintf("%s: %s", v.Field, v.Message))
		}
		return lines

	case errors.As(err, &detail):
		return detail.Lines()

	default:
		return []string{err.Error()}
	}
}

// PrintBuildError logs err under msg in a user-friendly format.
func PrintBuildError(msg string, err error) {
	output.Error(msg)
	for _, line := range ErrorLines(err) {
		output.Error(line)
	}
}

// WriteBuildSummary logs one line per artifact and a completion line. With
// verbose it also prints the chunk table, the written file tree and the
// phase timing table.
func WriteBuildSummary(res *build.Result, verbose bool) {
	status := output.StatusWritten
	switch {
	case len(res.Published) > 0:
		status = output.StatusPublished
	case len(res.Files) == 0:
		status = output.StatusEmitted
	}

	for _, a := range res.Output.Artifacts() {
		output.ChunkLogger(a.Chunk).Info(output.FormatArtifactLine(a.Chunk, a.Filename, len(a.Content), status))
		if verbose && a.HasMap() {
			output.ChunkLogger(a.Chunk).Info(output.FormatArtifactLine(a.Chunk, a.MapFilename, len(a.Map), status))
		}
	}

	if verbose {
		output.Println(output.RenderChunkTable(ChunkRows(res.Output)))
		if len(res.Files) > 0 {
			output.Println(output.RenderFileTree(res.OutputDir, FileDescriptions(res.Output)))
		}
		output.Println(output.RenderPhaseTable(build.Rows(res.Phases)))
	}

	output.Println(output.FormatCheckmark(fmt.Sprintf("%d chunks from %d modules", res.Output.Len(), res.Stats.Modules)))
}

// FileDescriptions maps every file of out to a description for
// output.RenderFileTree.
func FileDescriptions(out *emit.Output) map[string]string {
	files := make(map[string]string)
	for _, a := range out.Artifacts() {
		files[a.Filename] = "chunk " + a.Chunk
		if a.HasMap() {
			files[a.MapFilename] = "source map"
		}
	}
	return files
}

// ChunkRows converts an emitted output for output.RenderChunkTable.
func ChunkRows(out *emit.Output) []output.ChunkRow {
	rows := make([]output.ChunkRow, 0, out.Len())
	for _, a := range out.Artifacts() {
		rows = append(rows, output.ChunkRow{
			Name:    a.Chunk,
			File:    a.Filename,
			Modules: len(a.Modules),
			Size:    len(a.Content),
		})
	}
	return rows
}
