package transform

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opmodel/graphpack/internal/graph"
	"github.com/opmodel/graphpack/internal/output"
)

// Pipeline transforms every module of a graph.
type Pipeline struct {
	Rules []Rule

	// Workers bounds concurrent transformations. Zero means 8.
	Workers int
}

// NewPipeline creates a pipeline over rules.
func NewPipeline(rules []Rule, workers int) *Pipeline {
	return &Pipeline{Rules: rules, Workers: workers}
}

// Stats summarizes a pipeline run.
type Stats struct {
	Modules     int
	Transformed int
	Slowest     string
	MaxDuration time.Duration
}

func (s Stats) String() string {
	line := fmt.Sprintf("%d of %d modules transformed", s.Transformed, s.Modules)
	if s.Slowest != "" {
		line += fmt.Sprintf(", slowest %s (%s)", s.Slowest, s.MaxDuration.Round(time.Microsecond))
	}
	return line
}

// Run applies the rules to every module of g and returns a new graph. g is
// not modified. The first failing module aborts the run.
func (p *Pipeline) Run(ctx context.Context, g *graph.Graph) (*graph.Graph, Stats, error) {
	ids := g.IDs()
	stats := Stats{Modules: len(ids)}

	type slot struct {
		module   *graph.Module
		duration time.Duration
	}
	slots := make([]slot, len(ids))

	workers := p.Workers
	if workers <= 0 {
		workers = 8
	}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, id := range ids {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			start := time.Now()
			m, err := Apply(g.Modules[id], p.Rules)
			if err != nil {
				return err
			}
			slots[i] = slot{module: m, duration: time.Since(start)}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}

	out := &graph.Graph{
		Modules: make(map[string]*graph.Module, len(ids)),
		Entries: make(map[string]string, len(g.Entries)),
	}
	for name, id := range g.Entries {
		out.Entries[name] = id
	}
	for i, id := range ids {
		s := slots[i]
		out.Modules[id] = s.module
		if s.module != g.Modules[id] {
			stats.Transformed++
			output.Debug("transformed module", "module", id, "applied", s.module.Applied, "duration", s.duration)
		}
		if s.duration > stats.MaxDuration {
			stats.MaxDuration = s.duration
			stats.Slowest = id
		}
	}
	return out, stats, nil
}
