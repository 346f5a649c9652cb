package graph

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/opmodel/graphpack/internal/output"
	"github.com/opmodel/graphpack/internal/sourcemap"
)

// Options configures a Loader.
type Options struct {
	// Extensions is the resolution suffix priority list.
	Extensions []string

	// Provide maps a global identifier to the specifier that supplies it.
	// Modules referencing the identifier get an implicit import.
	Provide map[string]string

	// Concurrency bounds parallel module reads. Zero means 8.
	Concurrency int

	// CacheSize bounds the resolution cache.
	CacheSize int
}

// Loader discovers module graphs.
type Loader struct {
	fs       afero.Fs
	opts     Options
	resolver *Resolver
	watch    []string
}

// NewLoader creates a Loader reading through fs, whose root is the build root.
func NewLoader(fs afero.Fs, opts Options) (*Loader, error) {
	resolver, err := NewResolver(fs, opts.Extensions, opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating resolver: %w", err)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	watch := make([]string, 0, len(opts.Provide))
	for name := range opts.Provide {
		watch = append(watch, name)
	}
	sort.Strings(watch)
	return &Loader{fs: fs, opts: opts, resolver: resolver, watch: watch}, nil
}

// discovered is the write-once result slot of one module load.
type discovered struct {
	module *Module
	next   []string
}

// Load discovers the graph reachable from entries, a map of entry name to
// entry path. It fails with *ResolutionError if any import or entry does not
// resolve.
func (l *Loader) Load(ctx context.Context, entries map[string]string) (*Graph, error) {
	g := &Graph{
		Modules: make(map[string]*Module),
		Entries: make(map[string]string, len(entries)),
	}

	var visited sync.Map
	var level []string

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		id, tried, ok := l.resolver.ResolveEntry(entries[name])
		if !ok {
			return nil, &ResolutionError{Importer: "entry:" + name, Specifier: entries[name], Tried: tried}
		}
		g.Entries[name] = id
		if _, seen := visited.LoadOrStore(id, struct{}{}); !seen {
			level = append(level, id)
		}
	}

	depth := 0
	for len(level) > 0 {
		output.Debug("loading modules", "depth", depth, "count", len(level))

		slots := make([]discovered, len(level))
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(l.opts.Concurrency)
		for i, id := range level {
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				m, err := l.loadModule(id)
				if err != nil {
					return err
				}
				var next []string
				for _, dep := range m.DepIDs() {
					if _, seen := visited.LoadOrStore(dep, struct{}{}); !seen {
						next = append(next, dep)
					}
				}
				slots[i] = discovered{module: m, next: next}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		level = level[:0:0]
		for _, slot := range slots {
			g.Modules[slot.module.ID] = slot.module
			level = append(level, slot.next...)
		}
		depth++
	}

	return g, nil
}

func (l *Loader) loadModule(id string) (*Module, error) {
	data, err := afero.ReadFile(l.fs, filepath.FromSlash(id))
	if err != nil {
		return nil, fmt.Errorf("reading module %q: %w", id, err)
	}
	src := string(data)

	m := &Module{
		ID:       id,
		Source:   src,
		Original: src,
		Deps:     map[string]string{},
		Sources:  []sourcemap.Source{{Name: id, Content: src}},
		Mappings: sourcemap.Identity(src),
	}
	if m.IsJSON() {
		return m, nil
	}

	scan := Scan(src, l.watch)
	dir := path.Dir(id)
	for _, spec := range scan.Imports {
		dep, tried, ok := l.resolver.Resolve(dir, spec)
		if !ok {
			return nil, &ResolutionError{Importer: id, Specifier: spec, Tried: tried}
		}
		m.Imports = append(m.Imports, spec)
		m.Deps[spec] = dep
	}

	for _, name := range scan.Globals {
		spec := l.opts.Provide[name]
		dep, tried, ok := l.resolver.Resolve(dir, spec)
		if !ok {
			return nil, &ResolutionError{Importer: id, Specifier: spec, Tried: tried}
		}
		if dep == id {
			continue
		}
		if m.Provided == nil {
			m.Provided = make(map[string]string)
		}
		m.Provided[name] = spec
		if _, exists := m.Deps[spec]; !exists {
			m.Imports = append(m.Imports, spec)
			m.Deps[spec] = dep
		}
	}

	return m, nil
}
