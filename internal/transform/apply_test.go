package transform

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/opmodel/graphpack/internal/errors"
	"github.com/opmodel/graphpack/internal/graph"
	"github.com/opmodel/graphpack/internal/sourcemap"
)

func testModule(id, src string) *graph.Module {
	return &graph.Module{
		ID:       id,
		Source:   src,
		Original: src,
		Deps:     map[string]string{},
		Sources:  []sourcemap.Source{{Name: id, Content: src}},
		Mappings: sourcemap.Identity(src),
	}
}

func upper() Step {
	return Step{Name: "upper", Run: func(in Input) (Output, error) {
		return Output{Source: strings.ToUpper(in.Source), Mappings: in.Mappings}, nil
	}}
}

func suffix(s string) Step {
	return Step{Name: "suffix", Run: func(in Input) (Output, error) {
		return Output{Source: in.Source + s, Mappings: in.Mappings}, nil
	}}
}

func prefixLine(s string) Step {
	return Step{Name: "prefix", Run: func(in Input) (Output, error) {
		return Output{Source: s + "\n" + in.Source, Mappings: in.Mappings.Shift(1)}, nil
	}}
}

func failing(msg string) Step {
	return Step{Name: "fail", Run: func(Input) (Output, error) {
		return Output{}, errors.New(msg)
	}}
}

func TestApply_NoMatchingRules(t *testing.T) {
	m := testModule("src/a.css", "body {}")
	rules := []Rule{
		{Name: "js", Test: regexp.MustCompile(`\.js$`), Steps: []Step{upper()}},
	}

	got, err := Apply(m, rules)
	require.NoError(t, err)
	assert.Same(t, m, got)
	assert.Equal(t, "body {}", got.Source)
	assert.Empty(t, got.Applied)
}

func TestApply_AllMatchingRulesInOrder(t *testing.T) {
	m := testModule("src/a.js", "a")
	rules := []Rule{
		{Name: "first", Test: regexp.MustCompile(`\.js$`), Steps: []Step{suffix("b"), upper()}},
		{Name: "skip", Test: regexp.MustCompile(`\.ts$`), Steps: []Step{suffix("x")}},
		{Name: "second", Steps: []Step{suffix("c")}},
	}

	got, err := Apply(m, rules)
	require.NoError(t, err)
	assert.Equal(t, "ABc", got.Source)
	assert.Equal(t, []string{"first/suffix", "first/upper", "second/suffix"}, got.Applied)
}

func TestApply_CopyOnWrite(t *testing.T) {
	m := testModule("src/a.js", "a\nb")
	before := m.Clone()

	got, err := Apply(m, []Rule{{Name: "p", Steps: []Step{prefixLine("//x")}}})
	require.NoError(t, err)
	assert.NotSame(t, m, got)
	assert.Equal(t, before, m, "input module must not change")
	assert.Equal(t, "//x\na\nb", got.Source)
	assert.Len(t, got.Mappings, 3)
	assert.Empty(t, got.Mappings[0])
}

func TestApply_Associative(t *testing.T) {
	r1 := Rule{Name: "r1", Test: regexp.MustCompile(`\.js$`), Steps: []Step{suffix("1"), prefixLine("//one")}}
	r2 := Rule{Name: "r2", Steps: []Step{upper(), suffix("2")}}

	m := testModule("lib/x.js", "x")

	both, err := Apply(m, []Rule{r1, r2})
	require.NoError(t, err)

	first, err := Apply(m, []Rule{r1})
	require.NoError(t, err)
	chained, err := Apply(first, []Rule{r2})
	require.NoError(t, err)

	assert.Equal(t, both, chained)
}

func TestApply_StepFailure(t *testing.T) {
	m := testModule("src/a.js", "a")
	before := m.Clone()
	rules := []Rule{
		{Name: "ok", Steps: []Step{suffix("b")}},
		{Name: "broken", Steps: []Step{upper(), failing("boom")}},
	}

	got, err := Apply(m, rules)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, before, m)

	var tErr *TransformError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "src/a.js", tErr.ModuleID)
	assert.Equal(t, "broken", tErr.Rule)
	assert.Equal(t, 1, tErr.StepIndex)
	assert.Equal(t, "fail", tErr.Step)
	assert.EqualError(t, tErr.Cause, "boom")
	assert.True(t, errors.Is(err, oerrors.ErrTransform))
	assert.Contains(t, err.Error(), "step 1")
}

func TestApply_StepSourcesReplaceInput(t *testing.T) {
	m := testModule("a.js", "a")
	adopt := Step{Name: "adopt", Run: func(in Input) (Output, error) {
		return Output{
			Source:   in.Source,
			Mappings: in.Mappings,
			Sources:  []sourcemap.Source{{Name: "a.ts", Content: "a"}},
		}, nil
	}}

	got, err := Apply(m, []Rule{{Name: "r", Steps: []Step{adopt}}})
	require.NoError(t, err)
	assert.Equal(t, "a.ts", got.Sources[0].Name)
	assert.Equal(t, "a.js", m.Sources[0].Name)
}

func TestRule_Matches(t *testing.T) {
	r := Rule{
		Test:    regexp.MustCompile(`\.js$`),
		Exclude: regexp.MustCompile(`node_modules`),
	}
	assert.True(t, r.Matches("src/a.js"))
	assert.False(t, r.Matches("src/a.ts"))
	assert.False(t, r.Matches("node_modules/x/index.js"))
	assert.True(t, Rule{}.Matches("anything"))
}

func TestPipeline_Run(t *testing.T) {
	g := &graph.Graph{
		Modules: map[string]*graph.Module{},
		Entries: map[string]string{"main": "m0.js"},
	}
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("m%d.js", i)
		g.Modules[id] = testModule(id, id)
	}
	g.Modules["style.css"] = testModule("style.css", "css")

	p := NewPipeline([]Rule{{Name: "js", Test: regexp.MustCompile(`\.js$`), Steps: []Step{upper()}}}, 4)
	out, stats, err := p.Run(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, 21, stats.Modules)
	assert.Equal(t, 20, stats.Transformed)
	assert.Equal(t, g.Entries, out.Entries)
	assert.Equal(t, "M7.JS", out.Modules["m7.js"].Source)
	assert.Equal(t, "m7.js", g.Modules["m7.js"].Source, "input graph must not change")
	assert.Same(t, g.Modules["style.css"], out.Modules["style.css"])
	if stats.Slowest != "" {
		assert.Contains(t, g.Modules, stats.Slowest)
		assert.Contains(t, stats.String(), "slowest "+stats.Slowest)
	}
}

func TestStats_String(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  string
	}{
		{"nothing timed", Stats{Modules: 3}, "0 of 3 modules transformed"},
		{
			"with slowest module",
			Stats{Modules: 3, Transformed: 2, Slowest: "src/app.ts", MaxDuration: 1500 * time.Microsecond},
			"2 of 3 modules transformed, slowest src/app.ts (1.5ms)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stats.String())
		})
	}
}

func TestPipeline_FailureReturnsNoGraph(t *testing.T) {
	g := &graph.Graph{
		Modules: map[string]*graph.Module{
			"a.js": testModule("a.js", "a"),
			"b.ts": testModule("b.ts", "b"),
		},
		Entries: map[string]string{"main": "a.js"},
	}
	p := NewPipeline([]Rule{{Name: "ts", Test: regexp.MustCompile(`\.ts$`), Steps: []Step{failing("bad syntax")}}}, 0)

	out, _, err := p.Run(context.Background(), g)
	assert.Nil(t, out)
	var tErr *TransformError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "b.ts", tErr.ModuleID)
	assert.Equal(t, 0, tErr.StepIndex)
}

func TestPipeline_Canceled(t *testing.T) {
	g := &graph.Graph{
		Modules: map[string]*graph.Module{"a.js": testModule("a.js", "a")},
		Entries: map[string]string{"main": "a.js"},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, _, err := NewPipeline(nil, 1).Run(ctx, g)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, context.Canceled)
}
