// Package build runs the graphpack pipeline: Load, Transform, Classify,
// Emit, Write and optionally Publish, strictly in that order.
package build

import (
	"time"

	"github.com/opmodel/graphpack/internal/emit"
	"github.com/opmodel/graphpack/internal/graph"
	"github.com/opmodel/graphpack/internal/output"
	"github.com/opmodel/graphpack/internal/transform"
)

// Phase names, in execution order.
const (
	PhaseLoad      = "load"
	PhaseTransform = "transform"
	PhaseClassify  = "classify"
	PhaseEmit      = "emit"
	PhaseWrite     = "write"
	PhasePublish   = "publish"
)

// PhaseStep represents a timed sub-step within a phase.
type PhaseStep struct {
	Name     string
	Duration time.Duration
}

// PhaseRecord captures timing for an entire pipeline phase.
type PhaseRecord struct {
	Name     string
	Duration time.Duration
	Steps    []PhaseStep
	Details  string // e.g. "12 modules from 1 entries"
}

// Rows converts phase records for output.RenderPhaseTable.
func Rows(phases []PhaseRecord) []output.PhaseRow {
	rows := make([]output.PhaseRow, 0, len(phases))
	for _, p := range phases {
		rows = append(rows, output.PhaseRow{Name: p.Name, Duration: p.Duration, Details: p.Details})
	}
	return rows
}

// GraphStats summarizes a loaded graph.
type GraphStats struct {
	Modules int `json:"modules" yaml:"modules"`
	Entries int `json:"entries" yaml:"entries"`
	Edges   int `json:"edges" yaml:"edges"`
}

// StatsOf counts the modules, entries and resolved imports of g.
func StatsOf(g *graph.Graph) GraphStats {
	s := GraphStats{Modules: g.Len(), Entries: len(g.Entries)}
	for _, m := range g.Modules {
		s.Edges += len(m.Imports)
	}
	return s
}

// Result is the outcome of a successful build.
type Result struct {
	// Output holds the emitted artifacts.
	Output *emit.Output

	// Graph is the transformed module graph.
	Graph *graph.Graph

	// Chunks maps chunk name to its sorted module IDs.
	Chunks map[string][]string

	// Files lists the paths written, empty for a dry run.
	Files []string

	// OutputDir is the directory Files were written under.
	OutputDir string

	// Published lists the object keys uploaded, if publishing ran.
	Published []string

	Stats     GraphStats
	Transform transform.Stats
	Phases    []PhaseRecord
}

// Analysis is the outcome of loading and classifying without emitting.
type Analysis struct {
	Graph  *graph.Graph
	Chunks map[string][]string
	Stats  GraphStats
	Phases []PhaseRecord
}
