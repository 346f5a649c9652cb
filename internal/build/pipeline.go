package build

import (
	"context"
	"fmt"
	"time"

	"github.com/opmodel/graphpack/internal/chunk"
	"github.com/opmodel/graphpack/internal/config"
	"github.com/opmodel/graphpack/internal/emit"
	"github.com/opmodel/graphpack/internal/graph"
	"github.com/opmodel/graphpack/internal/output"
	"github.com/opmodel/graphpack/internal/transform"
)

// Publisher uploads a written build.
type Publisher interface {
	Publish(ctx context.Context, out *emit.Output) ([]string, error)
}

// Pipeline runs builds. The zero value writes artifacts and does not
// publish.
type Pipeline struct {
	// DryRun skips the write and publish phases.
	DryRun bool

	// Publisher, when set, runs after a successful write.
	Publisher Publisher
}

// NewPipeline creates a pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Run executes the build described by bc.
//
// The phases follow each other strictly:
//
//	load:      entries -> module graph (graph.Loader)
//	transform: matching rules applied to every module (transform.Pipeline)
//	classify:  module -> chunk (chunk.Classify)
//	emit:      one artifact per chunk (emit.Emit)
//	write:     artifacts to the output directory, all or nothing
//	publish:   artifacts to object storage, when configured
//
// Cancellation is checked between modules inside each phase and between
// phases. A failed or cancelled build writes nothing.
func (p *Pipeline) Run(ctx context.Context, bc *config.BuildConfig) (*Result, error) {
	var phases []PhaseRecord

	g, record, err := loadGraph(ctx, bc)
	if err != nil {
		return nil, err
	}
	phases = append(phases, record)

	start := time.Now()
	tg, stats, err := transform.NewPipeline(bc.Rules, bc.Concurrency).Run(ctx, g)
	if err != nil {
		return nil, err
	}
	phases = append(phases, PhaseRecord{
		Name:     PhaseTransform,
		Duration: time.Since(start),
		Details:  stats.String(),
	})
	output.Debug("phase complete", "phase", PhaseTransform, "duration", time.Since(start))

	chunks, record, err := classify(ctx, bc, tg)
	if err != nil {
		return nil, err
	}
	phases = append(phases, record)

	start = time.Now()
	out, err := emit.Emit(ctx, chunks, tg, bc.Emit)
	if err != nil {
		return nil, err
	}
	phases = append(phases, PhaseRecord{
		Name:     PhaseEmit,
		Duration: time.Since(start),
		Details:  fmt.Sprintf("%d artifacts", out.Len()),
	})
	output.Debug("phase complete", "phase", PhaseEmit, "artifacts", out.Len())

	result := &Result{
		Output:    out,
		Graph:     tg,
		Chunks:    chunks,
		Stats:     StatsOf(tg),
		Transform: stats,
		OutputDir: bc.OutputDir,
	}

	if p.DryRun {
		result.Phases = phases
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	writer := emit.NewWriter(bc.OutputFS, bc.OutputDir)
	writer.Manifest = bc.Manifest
	files, err := writer.Write(ctx, out)
	if err != nil {
		return nil, err
	}
	result.Files = files
	phases = append(phases, PhaseRecord{
		Name:     PhaseWrite,
		Duration: time.Since(start),
		Details:  fmt.Sprintf("%d files to %s", len(files), bc.OutputDir),
	})
	output.Debug("phase complete", "phase", PhaseWrite, "files", len(files))

	if p.Publisher != nil {
		start = time.Now()
		keys, err := p.Publisher.Publish(ctx, out)
		if err != nil {
			return nil, fmt.Errorf("publishing: %w", err)
		}
		result.Published = keys
		phases = append(phases, PhaseRecord{
			Name:     PhasePublish,
			Duration: time.Since(start),
			Details:  fmt.Sprintf("%d objects", len(keys)),
		})
	}

	result.Phases = phases
	return result, nil
}

// Analyze loads and classifies without transforming or emitting.
func (p *Pipeline) Analyze(ctx context.Context, bc *config.BuildConfig) (*Analysis, error) {
	g, loadRecord, err := loadGraph(ctx, bc)
	if err != nil {
		return nil, err
	}
	chunks, classifyRecord, err := classify(ctx, bc, g)
	if err != nil {
		return nil, err
	}
	return &Analysis{
		Graph:  g,
		Chunks: chunks,
		Stats:  StatsOf(g),
		Phases: []PhaseRecord{loadRecord, classifyRecord},
	}, nil
}

func loadGraph(ctx context.Context, bc *config.BuildConfig) (*graph.Graph, PhaseRecord, error) {
	var steps []PhaseStep
	start := time.Now()

	loader, err := graph.NewLoader(bc.SourceFS, bc.Graph)
	if err != nil {
		return nil, PhaseRecord{}, err
	}
	steps = append(steps, PhaseStep{Name: "NewLoader", Duration: time.Since(start)})

	loadStart := time.Now()
	g, err := loader.Load(ctx, bc.Entries)
	if err != nil {
		return nil, PhaseRecord{}, err
	}
	steps = append(steps, PhaseStep{Name: "Load", Duration: time.Since(loadStart)})

	record := PhaseRecord{
		Name:     PhaseLoad,
		Duration: time.Since(start),
		Steps:    steps,
		Details:  fmt.Sprintf("%d modules from %d entries", g.Len(), len(g.Entries)),
	}
	output.Debug("phase complete", "phase", PhaseLoad, "modules", g.Len())
	return g, record, nil
}

func classify(ctx context.Context, bc *config.BuildConfig, g *graph.Graph) (map[string][]string, PhaseRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, PhaseRecord{}, err
	}
	start := time.Now()
	chunks := chunk.Classify(g, bc.Classify, bc.DefaultChunk)
	record := PhaseRecord{
		Name:     PhaseClassify,
		Duration: time.Since(start),
		Details:  fmt.Sprintf("%d chunks", len(chunks)),
	}
	output.Debug("phase complete", "phase", PhaseClassify, "chunks", len(chunks))
	return chunks, record, nil
}
