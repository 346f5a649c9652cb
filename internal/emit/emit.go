// Package emit serializes classified chunks into output artifacts.
package emit

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/opmodel/graphpack/internal/graph"
	"github.com/opmodel/graphpack/internal/output"
	"github.com/opmodel/graphpack/internal/sourcemap"
)

// DefaultFilename is the artifact name pattern used when none is set.
const DefaultFilename = "[name].js"

// Options configures Emit.
type Options struct {
	// SourceMaps produces a companion map for every artifact.
	SourceMaps bool

	// Filename is the artifact path pattern relative to the output
	// directory. "[name]" is replaced by the chunk name and "[hash]" by a
	// content hash.
	Filename string

	// RuntimeChunk names the chunk carrying the runtime shim. A name no
	// module was classified into yields a runtime-only artifact. Empty
	// embeds the runtime into every chunk holding an entry.
	RuntimeChunk string
}

// Artifact is one emitted chunk.
type Artifact struct {
	Chunk       string
	Filename    string
	Content     []byte
	MapFilename string
	Map         []byte
	Modules     []string
	Entries     []string
	Runtime     bool
}

// HasMap reports whether the artifact has a companion source map.
func (a Artifact) HasMap() bool {
	return a.Map != nil
}

func (a Artifact) clone() Artifact {
	c := a
	c.Content = bytes.Clone(a.Content)
	c.Map = bytes.Clone(a.Map)
	c.Modules = append([]string(nil), a.Modules...)
	c.Entries = append([]string(nil), a.Entries...)
	return c
}

// Output is the result of one build. It is not modified after Emit returns.
type Output struct {
	artifacts map[string]Artifact
	loadOrder []string
}

// Chunks returns the chunk names, sorted.
func (o *Output) Chunks() []string {
	names := make([]string, 0, len(o.artifacts))
	for name := range o.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Artifact returns a copy of the named chunk's artifact.
func (o *Output) Artifact(chunk string) (Artifact, bool) {
	a, ok := o.artifacts[chunk]
	if !ok {
		return Artifact{}, false
	}
	return a.clone(), true
}

// Artifacts returns copies of all artifacts in load order.
func (o *Output) Artifacts() []Artifact {
	out := make([]Artifact, 0, len(o.loadOrder))
	for _, name := range o.loadOrder {
		out = append(out, o.artifacts[name].clone())
	}
	return out
}

// LoadOrder returns chunk names in the order their artifacts must be
// loaded: the runtime chunk, then chunks without entries, then chunks
// with entries, each group by name.
func (o *Output) LoadOrder() []string {
	return append([]string(nil), o.loadOrder...)
}

// Len returns the number of artifacts.
func (o *Output) Len() int {
	return len(o.artifacts)
}

// Files returns every file the output consists of, maps included, in load
// order.
func (o *Output) Files() []string {
	var files []string
	for _, name := range o.loadOrder {
		a := o.artifacts[name]
		files = append(files, a.Filename)
		if a.HasMap() {
			files = append(files, a.MapFilename)
		}
	}
	return files
}

// Emit renders one artifact per chunk. chunks must partition modules of g.
// The context is checked between chunks.
func Emit(ctx context.Context, chunks map[string][]string, g *graph.Graph, opts Options) (*Output, error) {
	if opts.Filename == "" {
		opts.Filename = DefaultFilename
	}
	if err := g.Validate(); err != nil {
		return nil, &EmitError{Cause: err}
	}

	names := make([]string, 0, len(chunks)+1)
	for name, ids := range chunks {
		for _, id := range ids {
			if _, ok := g.Modules[id]; !ok {
				return nil, &EmitError{Chunk: name, ModuleID: id, Cause: fmt.Errorf("not in graph")}
			}
		}
		names = append(names, name)
	}
	if opts.RuntimeChunk != "" {
		if _, ok := chunks[opts.RuntimeChunk]; !ok {
			names = append(names, opts.RuntimeChunk)
		}
	}
	sort.Strings(names)

	if len(names) > 1 && !strings.Contains(opts.Filename, "[name]") && !strings.Contains(opts.Filename, "[hash]") {
		return nil, &EmitError{Cause: fmt.Errorf("filename %q must contain [name] for %d chunks", opts.Filename, len(names))}
	}

	entryOrder := entryModules(g)

	out := &Output{artifacts: make(map[string]Artifact, len(names))}
	files := make(map[string]string, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ordered := moduleOrder(chunks[name], g)
		var entries []string
		for _, id := range entryOrder {
			if contains(ordered, id) {
				entries = append(entries, id)
			}
		}
		runtime := name == opts.RuntimeChunk || (opts.RuntimeChunk == "" && len(entries) > 0)

		a, err := render(name, ordered, entries, runtime, g, opts)
		if err != nil {
			return nil, err
		}
		if other, dup := files[a.Filename]; dup {
			return nil, &EmitError{Chunk: name, Cause: fmt.Errorf("filename %q already used by chunk %q", a.Filename, other)}
		}
		files[a.Filename] = name
		out.artifacts[name] = a

		output.Debug("emitted chunk", "chunk", name, "file", a.Filename, "modules", len(a.Modules), "bytes", len(a.Content))
	}

	out.loadOrder = loadOrder(out.artifacts, opts.RuntimeChunk)
	return out, nil
}

// entryModules returns entry module IDs ordered by entry name, without
// duplicates.
func entryModules(g *graph.Graph) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, name := range g.EntryNames() {
		id := g.Entries[name]
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func loadOrder(artifacts map[string]Artifact, runtimeChunk string) []string {
	var runtime, plain, withEntries []string
	for name, a := range artifacts {
		switch {
		case name == runtimeChunk:
			runtime = append(runtime, name)
		case len(a.Entries) == 0:
			plain = append(plain, name)
		default:
			withEntries = append(withEntries, name)
		}
	}
	sort.Strings(plain)
	sort.Strings(withEntries)
	return append(append(runtime, plain...), withEntries...)
}

// chunkText accumulates artifact content while tracking the line count.
type chunkText struct {
	buf  strings.Builder
	line int
}

func (t *chunkText) write(s string) {
	t.buf.WriteString(s)
	t.line += strings.Count(s, "\n")
}

type placement struct {
	line   int
	module *graph.Module
}

func render(name string, ids, entries []string, runtime bool, g *graph.Graph, opts Options) (Artifact, error) {
	var text chunkText
	var placements []placement

	if runtime {
		text.write(runtimeShim)
	}
	if len(ids) > 0 {
		text.write(chunkHeader)
		for _, id := range ids {
			m := g.Modules[id]
			if opts.SourceMaps && m.Mappings == nil {
				return Artifact{}, &EmitError{Chunk: name, ModuleID: id, Cause: ErrNoMappings}
			}
			head, err := moduleHead(m)
			if err != nil {
				return Artifact{}, &EmitError{Chunk: name, ModuleID: id, Cause: err}
			}
			text.write(head)
			if isData(m) {
				text.write("module.exports =\n")
			}
			placements = append(placements, placement{line: text.line, module: m})
			text.write(moduleBody(m))
			text.write("}};\n")
		}
		if len(entries) > 0 {
			list, err := json.Marshal(entries)
			if err != nil {
				return Artifact{}, &EmitError{Chunk: name, Cause: err}
			}
			text.write("root.__graphpack_start__(" + string(list) + ");\n")
		}
		text.write(chunkFooter)
	}

	content := text.buf.String()
	sum := sha256.Sum256([]byte(content))
	filename := strings.NewReplacer(
		"[name]", name,
		"[hash]", hex.EncodeToString(sum[:])[:8],
	).Replace(opts.Filename)

	a := Artifact{
		Chunk:    name,
		Filename: filename,
		Modules:  ids,
		Entries:  entries,
		Runtime:  runtime,
	}

	if opts.SourceMaps {
		a.MapFilename = filename + ".map"
		b := sourcemap.NewBuilder(path.Base(filename))
		for _, p := range placements {
			index := make([]int, len(p.module.Sources))
			for i, src := range p.module.Sources {
				index[i] = b.AddSource(src)
			}
			b.Place(p.line, p.module.Mappings, index)
		}
		data, err := b.Bytes()
		if err != nil {
			return Artifact{}, &EmitError{Chunk: name, Cause: fmt.Errorf("encoding source map: %w", err)}
		}
		a.Map = data
		content += "//# sourceMappingURL=" + path.Base(a.MapFilename) + "\n"
	}
	a.Content = []byte(content)
	return a, nil
}

// moduleHead opens a registry definition and binds provided globals. The
// body starts on the line after it.
func moduleHead(m *graph.Module) (string, error) {
	deps, err := json.Marshal(m.Deps)
	if err != nil {
		return "", err
	}
	id, err := json.Marshal(m.ID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "modules[%s] = {deps: %s, factory: function (module, exports, require) {\n", id, deps)

	names := make([]string, 0, len(m.Provided))
	for name := range m.Provided {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		spec, err := json.Marshal(m.Provided[name])
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "var %s = require(%s);\n", name, spec)
	}
	return sb.String(), nil
}

// isData reports whether m is an untransformed JSON document, emitted as the
// module's exports.
func isData(m *graph.Module) bool {
	return m.IsJSON() && len(m.Applied) == 0
}

// moduleBody returns the module source terminated by a newline.
func moduleBody(m *graph.Module) string {
	body := m.Source
	if isData(m) {
		return strings.TrimRight(body, "\n") + "\n;\n"
	}
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return body
}
