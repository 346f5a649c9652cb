package sourcemap

import (
	"encoding/json"
	"fmt"
)

// Source is one original file referenced by mappings.
type Source struct {
	Name    string
	Content string
}

// Map is the JSON form of a revision 3 source map.
type Map struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	SourceRoot     string   `json:"sourceRoot,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// Parse decodes a JSON source map and its mappings.
func Parse(data []byte) (*Map, Mappings, error) {
	var sm Map
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, nil, fmt.Errorf("parsing source map: %w", err)
	}
	if sm.Version != 3 {
		return nil, nil, fmt.Errorf("unsupported source map version %d", sm.Version)
	}
	m, err := Decode(sm.Mappings)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding mappings: %w", err)
	}
	return &sm, m, nil
}

// SourceList pairs each source name with its embedded content, if any.
func (sm *Map) SourceList() []Source {
	out := make([]Source, len(sm.Sources))
	for i, name := range sm.Sources {
		out[i].Name = name
		if i < len(sm.SourcesContent) {
			out[i].Content = sm.SourcesContent[i]
		}
	}
	return out
}

// Builder assembles one output map from per-module mappings placed at
// generated line offsets.
type Builder struct {
	file     string
	sources  []string
	contents []string
	index    map[string]int
	lines    Mappings
}

// NewBuilder returns a Builder for the generated file name.
func NewBuilder(file string) *Builder {
	return &Builder{file: file, index: make(map[string]int)}
}

// AddSource registers a source and returns its index. Registering the same
// name twice returns the first index.
func (b *Builder) AddSource(src Source) int {
	if i, ok := b.index[src.Name]; ok {
		return i
	}
	i := len(b.sources)
	b.index[src.Name] = i
	b.sources = append(b.sources, src.Name)
	b.contents = append(b.contents, src.Content)
	return i
}

// Place copies m into the output starting at generated line offset. Source
// indices in m are translated through sourceIndex.
func (b *Builder) Place(offset int, m Mappings, sourceIndex []int) {
	for i, segs := range m {
		if len(segs) == 0 {
			continue
		}
		line := offset + i
		for len(b.lines) <= line {
			b.lines = append(b.lines, nil)
		}
		for _, seg := range segs {
			if seg.Source < 0 || seg.Source >= len(sourceIndex) {
				continue
			}
			seg.Source = sourceIndex[seg.Source]
			b.lines[line] = append(b.lines[line], seg)
		}
	}
}

// Map returns the finished source map.
func (b *Builder) Map() *Map {
	sources := b.sources
	if sources == nil {
		sources = []string{}
	}
	return &Map{
		Version:        3,
		File:           b.file,
		Sources:        sources,
		SourcesContent: b.contents,
		Names:          []string{},
		Mappings:       Encode(b.lines),
	}
}

// Bytes returns the JSON encoding of the finished map.
func (b *Builder) Bytes() ([]byte, error) {
	return json.Marshal(b.Map())
}
