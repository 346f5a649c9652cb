package steps

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/opmodel/graphpack/internal/sourcemap"
	"github.com/opmodel/graphpack/internal/transform"
)

var targets = map[string]api.Target{
	"es5":    api.ES5,
	"es6":    api.ES2015,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// Targets lists the accepted target names.
func Targets() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseTarget(s string) (api.Target, error) {
	if s == "" {
		return api.ES2015, nil
	}
	t, ok := targets[strings.ToLower(s)]
	if !ok {
		return api.DefaultTarget, fmt.Errorf("unknown target %q", s)
	}
	return t, nil
}

func loaderFor(id string) api.Loader {
	switch path.Ext(id) {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	case ".json":
		return api.LoaderJSON
	default:
		return api.LoaderJS
	}
}

// esbuildStep runs one esbuild transform. Every esbuild step emits CommonJS,
// the module format the emitted runtime understands.
func esbuildStep(name string, opts Options, configure func(*api.TransformOptions, string)) (transform.Step, error) {
	target, err := parseTarget(opts.Target)
	if err != nil {
		return transform.Step{}, err
	}

	run := func(in transform.Input) (transform.Output, error) {
		topts := api.TransformOptions{
			Loader:         loaderFor(in.ModuleID),
			Target:         target,
			Format:         api.FormatCommonJS,
			Sourcefile:     in.ModuleID,
			Sourcemap:      api.SourceMapExternal,
			SourcesContent: api.SourcesContentExclude,
			LegalComments:  api.LegalCommentsNone,
			LogLevel:       api.LogLevelSilent,
		}
		if configure != nil {
			configure(&topts, in.ModuleID)
		}

		res := api.Transform(in.Source, topts)
		if len(res.Errors) > 0 {
			return transform.Output{}, &MessagesError{Messages: res.Errors}
		}

		out := transform.Output{Source: string(res.Code)}
		if in.Mappings != nil && len(res.Map) > 0 {
			_, m, err := sourcemap.Parse(res.Map)
			if err != nil {
				return transform.Output{}, fmt.Errorf("reading generated source map: %w", err)
			}
			out.Mappings = sourcemap.Compose(m, in.Mappings)
		}
		return out, nil
	}
	return transform.Step{Name: name, Run: run}, nil
}

// MessagesError carries esbuild diagnostics.
type MessagesError struct {
	Messages []api.Message
}

func (e *MessagesError) Error() string {
	lines := make([]string, 0, len(e.Messages))
	for _, msg := range e.Messages {
		if loc := msg.Location; loc != nil {
			lines = append(lines, fmt.Sprintf("%s:%d:%d: %s", loc.File, loc.Line, loc.Column, msg.Text))
			continue
		}
		lines = append(lines, msg.Text)
	}
	return strings.Join(lines, "; ")
}

func newTypeScript(opts Options) (transform.Step, error) {
	return esbuildStep("typescript", opts, nil)
}

func newJSX(opts Options) (transform.Step, error) {
	return esbuildStep("jsx", opts, func(o *api.TransformOptions, id string) {
		switch path.Ext(id) {
		case ".ts", ".tsx":
			o.Loader = api.LoaderTSX
		default:
			o.Loader = api.LoaderJSX
		}
	})
}

func newCommonJS(opts Options) (transform.Step, error) {
	return esbuildStep("commonjs", opts, nil)
}

func newDefine(opts Options) (transform.Step, error) {
	if len(opts.Define) == 0 {
		return transform.Step{}, fmt.Errorf("no definitions")
	}
	define := make(map[string]string, len(opts.Define))
	for k, v := range opts.Define {
		define[k] = v
	}
	return esbuildStep("define", opts, func(o *api.TransformOptions, _ string) {
		o.Define = define
	})
}

// newMinify drops whitespace and simplifies syntax. Identifiers are kept so
// cross-module names stay stable.
func newMinify(opts Options) (transform.Step, error) {
	return esbuildStep("minify", opts, func(o *api.TransformOptions, _ string) {
		o.MinifyWhitespace = true
		o.MinifySyntax = true
		o.MinifyIdentifiers = false
	})
}
