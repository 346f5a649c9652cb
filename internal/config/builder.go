package config

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"

	"github.com/opmodel/graphpack/internal/chunk"
	"github.com/opmodel/graphpack/internal/emit"
	"github.com/opmodel/graphpack/internal/graph"
	"github.com/opmodel/graphpack/internal/transform"
	"github.com/opmodel/graphpack/internal/transform/steps"
)

// ProductionRule is the rule production mode appends after all others.
const ProductionRule = "production"

// productionTest matches every module whose output is JavaScript.
var productionTest = regexp.MustCompile(`\.(js|jsx|ts|tsx|mjs|cjs)$`)

// BuildConfig is the finished, read-only input of one build.
type BuildConfig struct {
	// Root is the build root on disk.
	Root string

	// Entries maps entry names to entry paths relative to Root.
	Entries map[string]string

	// OutputDir is where artifacts are written.
	OutputDir string

	// Manifest also writes manifest.json.
	Manifest bool

	Mode    Mode
	Graph   graph.Options
	Rules   []transform.Rule
	Emit    emit.Options
	Publish PublishConfig

	// Classify decides chunks; unclaimed modules go to DefaultChunk.
	Classify     chunk.Func
	DefaultChunk string

	// Concurrency bounds per-module work in every phase.
	Concurrency int

	// SourceFS reads modules, rooted at Root.
	SourceFS afero.Fs

	// OutputFS receives artifacts.
	OutputFS afero.Fs
}

// Builder assembles a BuildConfig from a Config and command-line overrides.
// Build copies everything it reads, so later changes to the Config do not
// leak into a finished BuildConfig.
type Builder struct {
	cfg        *Config
	mode       Mode
	sourceMaps *bool
	outputDir  string
	sourceFS   afero.Fs
	outputFS   afero.Fs
}

// NewBuilder returns a Builder over cfg with defaults applied.
func NewBuilder(cfg *Config) *Builder {
	return &Builder{cfg: cfg.WithDefaults(), mode: ModeDevelopment}
}

// WithMode sets the processing mode.
func (b *Builder) WithMode(m Mode) *Builder {
	b.mode = m
	return b
}

// WithSourceMaps overrides the sourceMaps setting.
func (b *Builder) WithSourceMaps(enabled bool) *Builder {
	b.sourceMaps = &enabled
	return b
}

// WithOutputDir overrides the output directory.
func (b *Builder) WithOutputDir(dir string) *Builder {
	b.outputDir = dir
	return b
}

// WithSourceFS reads modules from fs instead of the root directory on disk.
func (b *Builder) WithSourceFS(fs afero.Fs) *Builder {
	b.sourceFS = fs
	return b
}

// WithOutputFS writes artifacts to fs instead of the OS filesystem.
func (b *Builder) WithOutputFS(fs afero.Fs) *Builder {
	b.outputFS = fs
	return b
}

// Build compiles rules and chunk predicates and returns the BuildConfig.
func (b *Builder) Build() (*BuildConfig, error) {
	cfg := b.cfg

	if len(cfg.Entry) == 0 {
		return nil, fmt.Errorf("no entries configured")
	}

	sourceFS := b.sourceFS
	if sourceFS == nil {
		sourceFS = afero.NewBasePathFs(afero.NewOsFs(), cfg.Root)
	}
	outputFS := b.outputFS
	if outputFS == nil {
		outputFS = afero.NewOsFs()
	}

	outputDir := b.outputDir
	if outputDir == "" {
		outputDir = cfg.Output.Path
		if !filepath.IsAbs(outputDir) {
			outputDir = filepath.Join(cfg.Root, outputDir)
		}
	}

	sourceMaps := cfg.SourceMaps
	if b.sourceMaps != nil {
		sourceMaps = *b.sourceMaps
	}

	rules, err := b.rules(sourceFS)
	if err != nil {
		return nil, err
	}

	splits := make([]chunk.Rule, 0, len(cfg.Chunks.Split))
	for _, s := range cfg.Chunks.Split {
		splits = append(splits, chunk.Rule{Name: s.Name, Test: s.Test})
	}
	classify, err := chunk.FromRules(splits)
	if err != nil {
		return nil, fmt.Errorf("chunks: %w", err)
	}

	entries := make(map[string]string, len(cfg.Entry))
	for name, p := range cfg.Entry {
		entries[name] = p
	}

	provide := make(map[string]string, len(cfg.Provide))
	for _, p := range cfg.Provide {
		provide[p.Name] = p.Module
	}

	return &BuildConfig{
		Root:      cfg.Root,
		Entries:   entries,
		OutputDir: outputDir,
		Manifest:  cfg.Output.Manifest,
		Mode:      b.mode,
		Graph: graph.Options{
			Extensions:  append([]string(nil), cfg.Resolve.Extensions...),
			Provide:     provide,
			Concurrency: cfg.Concurrency,
			CacheSize:   cfg.Resolve.CacheSize,
		},
		Rules: rules,
		Emit: emit.Options{
			SourceMaps:   sourceMaps,
			Filename:     cfg.Output.Filename,
			RuntimeChunk: cfg.Chunks.Runtime,
		},
		Publish:      cfg.Publish,
		Classify:     classify,
		DefaultChunk: cfg.Chunks.Default,
		Concurrency:  cfg.Concurrency,
		SourceFS:     sourceFS,
		OutputFS:     outputFS,
	}, nil
}

// rules compiles the configured rules, "pre" rules first, and appends the
// production rule in production mode.
func (b *Builder) rules(fs afero.Fs) ([]transform.Rule, error) {
	cfg := b.cfg

	define := make(map[string]string, len(cfg.Define))
	for _, d := range cfg.Define {
		define[d.Name] = d.Value
	}

	ordered := make([]RuleConfig, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		if r.Enforce == EnforcePre {
			ordered = append(ordered, r)
		}
	}
	for _, r := range cfg.Rules {
		if r.Enforce != EnforcePre {
			ordered = append(ordered, r)
		}
	}

	rules := make([]transform.Rule, 0, len(ordered)+1)
	for _, rc := range ordered {
		target := rc.Options.Target
		if target == "" {
			target = cfg.Target
		}
		opts := steps.Options{
			Target: target,
			Define: define,
			Banner: rc.Options.Banner,
			FS:     fs,
		}
		rule, err := compileRule(rc, opts)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if b.mode == ModeProduction {
		prodDefine := map[string]string{"process.env.NODE_ENV": `"production"`}
		for k, v := range define {
			prodDefine[k] = v
		}
		opts := steps.Options{Target: cfg.Target, Define: prodDefine, FS: fs}
		rule, err := compileRule(RuleConfig{Name: ProductionRule, Use: []string{"define", "minify"}}, opts)
		if err != nil {
			return nil, err
		}
		rule.Test = productionTest
		rules = append(rules, rule)
	}

	return rules, nil
}

func compileRule(rc RuleConfig, opts steps.Options) (transform.Rule, error) {
	rule := transform.Rule{Name: rc.Name}

	if rc.Test != "" {
		re, err := regexp.Compile(rc.Test)
		if err != nil {
			return rule, fmt.Errorf("rule %q: test: %w", rc.Name, err)
		}
		rule.Test = re
	}
	if rc.Exclude != "" {
		re, err := regexp.Compile(rc.Exclude)
		if err != nil {
			return rule, fmt.Errorf("rule %q: exclude: %w", rc.Name, err)
		}
		rule.Exclude = re
	}

	for _, name := range rc.Use {
		step, err := steps.New(name, opts)
		if err != nil {
			return rule, fmt.Errorf("rule %q: %w", rc.Name, err)
		}
		rule.Steps = append(rule.Steps, step)
	}
	return rule, nil
}
