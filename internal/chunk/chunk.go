// Package chunk partitions the modules of a graph into named output groups.
package chunk

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/opmodel/graphpack/internal/graph"
)

// Func decides the chunk of a module ID. ok=false means no decision.
type Func func(id string) (name string, ok bool)

// Rule assigns modules whose ID matches Test to the chunk Name.
type Rule struct {
	Name string

	// Test is a substring of the module ID, or a regular expression when
	// prefixed with "re:".
	Test string
}

// RegexpPrefix marks a Rule test as a regular expression.
const RegexpPrefix = "re:"

// Compile turns the rule into a Func.
func (r Rule) Compile() (Func, error) {
	if r.Name == "" {
		return nil, fmt.Errorf("chunk rule has no name")
	}
	if pattern, ok := strings.CutPrefix(r.Test, RegexpPrefix); ok {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("chunk %q: %w", r.Name, err)
		}
		return Matching(r.Name, re.MatchString), nil
	}
	if r.Test == "" {
		return nil, fmt.Errorf("chunk %q: empty test", r.Name)
	}
	test := r.Test
	return Matching(r.Name, func(id string) bool { return strings.Contains(id, test) }), nil
}

// Matching returns a Func naming chunk name for every ID pred accepts.
func Matching(name string, pred func(id string) bool) Func {
	return func(id string) (string, bool) {
		if pred(id) {
			return name, true
		}
		return "", false
	}
}

// FirstMatch combines fns; the first one that decides wins.
func FirstMatch(fns ...Func) Func {
	return func(id string) (string, bool) {
		for _, fn := range fns {
			if name, ok := fn(id); ok {
				return name, true
			}
		}
		return "", false
	}
}

// FromRules compiles rules in order into a first-match Func.
func FromRules(rules []Rule) (Func, error) {
	fns := make([]Func, 0, len(rules))
	for _, r := range rules {
		fn, err := r.Compile()
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return FirstMatch(fns...), nil
}

// Classify assigns every module of g to exactly one chunk: the one fn
// decides, else defaultChunk. Module IDs within each chunk are sorted. A nil
// fn sends everything to defaultChunk.
func Classify(g *graph.Graph, fn Func, defaultChunk string) map[string][]string {
	out := make(map[string][]string)
	for _, id := range g.IDs() {
		name := defaultChunk
		if fn != nil {
			if decided, ok := fn(id); ok {
				name = decided
			}
		}
		out[name] = append(out[name], id)
	}
	return out
}

// Chunk is one named group of modules.
type Chunk struct {
	Name    string
	Modules []string
}

// Sorted returns the chunks of a classification ordered by name.
func Sorted(chunks map[string][]string) []Chunk {
	names := make([]string, 0, len(chunks))
	for name := range chunks {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Chunk, len(names))
	for i, name := range names {
		out[i] = Chunk{Name: name, Modules: chunks[name]}
	}
	return out
}

// Of returns the chunk name of every module ID.
func Of(chunks map[string][]string) map[string]string {
	out := make(map[string]string)
	for name, ids := range chunks {
		for _, id := range ids {
			out[id] = name
		}
	}
	return out
}
