// Package steps provides the built-in transformation steps, looked up by
// name from configuration.
package steps

import (
	"fmt"
	"sort"

	"github.com/spf13/afero"

	"github.com/opmodel/graphpack/internal/transform"
)

// Options parameterizes the built-in steps.
type Options struct {
	// Target is the output language level, e.g. "es2015".
	Target string

	// Define maps expressions to the JavaScript expressions replacing them.
	Define map[string]string

	// Banner is the line the banner step prepends.
	Banner string

	// FS reads adjacent source maps, rooted at the build root.
	FS afero.Fs
}

// Factory builds a step from options.
type Factory func(Options) (transform.Step, error)

var registry = map[string]Factory{
	"typescript": newTypeScript,
	"jsx":        newJSX,
	"commonjs":   newCommonJS,
	"define":     newDefine,
	"minify":     newMinify,
	"source-map": newSourceMap,
	"banner":     newBanner,
}

// Names returns the registered step names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name is a registered step.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// New builds the named step.
func New(name string, opts Options) (transform.Step, error) {
	factory, ok := registry[name]
	if !ok {
		return transform.Step{}, fmt.Errorf("unknown step %q (available: %v)", name, Names())
	}
	step, err := factory(opts)
	if err != nil {
		return transform.Step{}, fmt.Errorf("step %q: %w", name, err)
	}
	return step, nil
}
