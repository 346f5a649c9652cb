package chunk

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/graphpack/internal/graph"
)

func graphOf(ids ...string) *graph.Graph {
	g := &graph.Graph{Modules: map[string]*graph.Module{}, Entries: map[string]string{}}
	for _, id := range ids {
		g.Modules[id] = &graph.Module{ID: id, Deps: map[string]string{}}
	}
	return g
}

func vendorSplit(id string) (string, bool) {
	if strings.Contains(id, "vendor") {
		return "vendor", true
	}
	return "", false
}

func TestClassify_VendorSplit(t *testing.T) {
	g := graphOf("src/index.js", "src/utils.js", "node_modules/vendor-lib/index.js")

	got := Classify(g, vendorSplit, "app")
	assert.Equal(t, map[string][]string{
		"app":    {"src/index.js", "src/utils.js"},
		"vendor": {"node_modules/vendor-lib/index.js"},
	}, got)
}

func TestClassify_NilFuncUsesDefault(t *testing.T) {
	g := graphOf("b.js", "a.js")
	assert.Equal(t, map[string][]string{"main": {"a.js", "b.js"}}, Classify(g, nil, "main"))
}

func TestClassify_Partition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	prefixes := []string{"src/", "node_modules/", "lib/vendor/", "test/"}

	for round := 0; round < 25; round++ {
		n := 1 + rng.Intn(40)
		ids := make([]string, 0, n)
		for i := 0; i < n; i++ {
			ids = append(ids, fmt.Sprintf("%sm%d.js", prefixes[rng.Intn(len(prefixes))], i))
		}
		g := graphOf(ids...)
		fn := FirstMatch(
			Matching("vendor", func(id string) bool { return strings.Contains(id, "vendor") }),
			Matching("deps", func(id string) bool { return strings.HasPrefix(id, "node_modules/") }),
		)

		got := Classify(g, fn, "app")

		seen := map[string]int{}
		for _, members := range got {
			for _, id := range members {
				seen[id]++
			}
		}
		assert.Len(t, seen, g.Len(), "union covers every module")
		for id, n := range seen {
			assert.Equal(t, 1, n, "module %s in exactly one chunk", id)
		}
		assert.Equal(t, got, Classify(g, fn, "app"), "classification is deterministic")
	}
}

func TestFirstMatch(t *testing.T) {
	fn := FirstMatch(
		Matching("first", func(id string) bool { return strings.HasSuffix(id, ".js") }),
		Matching("second", func(id string) bool { return strings.HasPrefix(id, "lib/") }),
	)

	tests := []struct {
		id     string
		want   string
		wantOK bool
	}{
		{"lib/a.js", "first", true},
		{"lib/a.ts", "second", true},
		{"src/a.ts", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := fn(tt.id)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromRules(t *testing.T) {
	fn, err := FromRules([]Rule{
		{Name: "react", Test: `re:node_modules/react(-dom)?/`},
		{Name: "vendor", Test: "node_modules"},
	})
	require.NoError(t, err)

	name, ok := fn("node_modules/react-dom/index.js")
	assert.True(t, ok)
	assert.Equal(t, "react", name)

	name, ok = fn("node_modules/lodash/index.js")
	assert.True(t, ok)
	assert.Equal(t, "vendor", name)

	_, ok = fn("src/index.js")
	assert.False(t, ok)
}

func TestFromRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"no name", Rule{Test: "x"}},
		{"empty test", Rule{Name: "x"}},
		{"bad regexp", Rule{Name: "x", Test: "re:("}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRules([]Rule{tt.rule})
			assert.Error(t, err)
		})
	}
}

func TestSortedAndOf(t *testing.T) {
	chunks := map[string][]string{
		"vendor": {"v.js"},
		"app":    {"a.js", "b.js"},
	}
	assert.Equal(t, []Chunk{
		{Name: "app", Modules: []string{"a.js", "b.js"}},
		{Name: "vendor", Modules: []string{"v.js"}},
	}, Sorted(chunks))
	assert.Equal(t, map[string]string{"a.js": "app", "b.js": "app", "v.js": "vendor"}, Of(chunks))
}
