package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderFileTree(t *testing.T) {
	out := RenderFileTree("dist", map[string]string{
		"js/app.js":     "app",
		"js/app.js.map": "",
		"manifest.json": "manifest",
	})

	want := []string{
		"dist/",
		"├── js/",
		"│   ├── app.js",
		"│   └── app.js.map",
		"└── manifest.json",
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, len(want))
	for i, prefix := range want {
		assert.True(t, strings.HasPrefix(lines[i], prefix), "line %d: %q", i, lines[i])
	}
	assert.Contains(t, lines[2], "app")
	assert.Contains(t, lines[4], "manifest")
}

func TestRenderFileTree_Empty(t *testing.T) {
	assert.Empty(t, RenderFileTree("dist", nil))
}

func TestRenderDependencyTree_Cycle(t *testing.T) {
	edges := map[string][]string{
		"a.js": {"b.js", "c.js"},
		"b.js": {"a.js"},
		"c.js": {"b.js"},
	}
	out := RenderDependencyTree("a.js", func(id string) []string { return edges[id] }, nil)

	// "(seen)" is aligned to the description column.
	pad := strings.Repeat(" ", descriptionColumn-len([]rune("│   └── a.js")))
	want := "a.js\n" +
		"├── b.js\n" +
		"│   └── a.js" + pad + "(seen)\n" +
		"└── c.js\n" +
		"    └── b.js" + pad + "(seen)\n"
	assert.Equal(t, want, out)
}
