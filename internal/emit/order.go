package emit

import "github.com/opmodel/graphpack/internal/graph"

// moduleOrder returns ids with dependencies before their importers, walking
// intra-chunk edges depth-first in import order from the sorted ids. Entry
// modules are moved last, keeping their relative order. Cycles are cut
// where the walk meets a module already visited.
func moduleOrder(ids []string, g *graph.Graph) []string {
	inChunk := make(map[string]bool, len(ids))
	for _, id := range ids {
		inChunk[id] = true
	}

	visited := make(map[string]bool, len(ids))
	ordered := make([]string, 0, len(ids))
	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dep := range g.Modules[id].DepIDs() {
			if inChunk[dep] {
				visit(dep)
			}
		}
		ordered = append(ordered, id)
	}
	for _, id := range ids {
		visit(id)
	}

	out := make([]string, 0, len(ordered))
	var entries []string
	for _, id := range ordered {
		if g.IsEntry(id) {
			entries = append(entries, id)
			continue
		}
		out = append(out, id)
	}
	return append(out, entries...)
}
