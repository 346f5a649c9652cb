// Package graph discovers the module dependency graph of a build.
//
// A Loader reads modules through an afero.Fs rooted at the build root,
// scans them for imports and resolves each import to another module,
// breadth-first from the entry points.
package graph

import (
	"fmt"
	"path"
	"sort"
	"strings"

	oerrors "github.com/opmodel/graphpack/internal/errors"
	"github.com/opmodel/graphpack/internal/sourcemap"
)

// Module is one unit of source code in the graph.
type Module struct {
	// ID is the resolved slash-separated path relative to the build root.
	ID string

	// Source is the current text. Only the transform pipeline rewrites it,
	// and only on a copy.
	Source string

	// Original is the text as read from storage.
	Original string

	// Imports lists specifiers in the order the module references them.
	Imports []string

	// Deps maps every specifier in Imports to the resolved module ID.
	Deps map[string]string

	// Provided maps an injected global identifier to its specifier.
	Provided map[string]string

	// Applied lists transformations applied so far, as "rule/step".
	Applied []string

	// Sources are the originals that Mappings point into.
	Sources []sourcemap.Source

	// Mappings is the position metadata of Source. Nil means none.
	Mappings sourcemap.Mappings
}

// Clone returns a deep copy of m.
func (m *Module) Clone() *Module {
	c := *m
	c.Imports = append([]string(nil), m.Imports...)
	c.Applied = append([]string(nil), m.Applied...)
	c.Sources = append([]sourcemap.Source(nil), m.Sources...)
	c.Mappings = m.Mappings.Clone()
	c.Deps = make(map[string]string, len(m.Deps))
	for k, v := range m.Deps {
		c.Deps[k] = v
	}
	if m.Provided != nil {
		c.Provided = make(map[string]string, len(m.Provided))
		for k, v := range m.Provided {
			c.Provided[k] = v
		}
	}
	return &c
}

// IsJSON reports whether the module is a JSON document.
func (m *Module) IsJSON() bool {
	return path.Ext(m.ID) == ".json"
}

// DepIDs returns the resolved IDs of m's imports in import order.
func (m *Module) DepIDs() []string {
	ids := make([]string, 0, len(m.Imports))
	for _, spec := range m.Imports {
		ids = append(ids, m.Deps[spec])
	}
	return ids
}

// Graph is the set of modules reachable from the entries.
type Graph struct {
	// Modules maps module ID to module.
	Modules map[string]*Module

	// Entries maps entry name to module ID.
	Entries map[string]string
}

// IDs returns all module IDs in sorted order.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.Modules))
	for id := range g.Modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsEntry reports whether id is an entry module.
func (g *Graph) IsEntry(id string) bool {
	for _, e := range g.Entries {
		if e == id {
			return true
		}
	}
	return false
}

// EntryNames returns the entry names in sorted order.
func (g *Graph) EntryNames() []string {
	names := make([]string, 0, len(g.Entries))
	for name := range g.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of modules.
func (g *Graph) Len() int {
	return len(g.Modules)
}

// Validate checks that every import resolves to a module of the graph.
func (g *Graph) Validate() error {
	for _, id := range g.IDs() {
		m := g.Modules[id]
		for _, spec := range m.Imports {
			dep, ok := m.Deps[spec]
			if !ok {
				return &ResolutionError{Importer: id, Specifier: spec}
			}
			if _, ok := g.Modules[dep]; !ok {
				return &ResolutionError{Importer: id, Specifier: spec}
			}
		}
	}
	for name, id := range g.Entries {
		if _, ok := g.Modules[id]; !ok {
			return &ResolutionError{Importer: "entry:" + name, Specifier: id}
		}
	}
	return nil
}

// ResolutionError reports an import that resolves to no module.
type ResolutionError struct {
	// Importer is the module containing the import, or "entry:<name>".
	Importer string

	// Specifier is the import as written.
	Specifier string

	// Tried lists the candidate paths that were checked.
	Tried []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("module %q: cannot resolve %q", e.Importer, e.Specifier)
}

// Is matches the resolution sentinel.
func (e *ResolutionError) Is(target error) bool {
	return target == oerrors.ErrResolution
}

// Hint describes where resolution looked.
func (e *ResolutionError) Hint() string {
	if len(e.Tried) == 0 {
		return ""
	}
	return "tried: " + strings.Join(e.Tried, ", ")
}
