// Package transform applies ordered source-to-source rewriting rules to
// modules of a graph.
package transform

import (
	"regexp"

	"github.com/opmodel/graphpack/internal/sourcemap"
)

// Input is what a step receives.
type Input struct {
	ModuleID string
	Source   string
	Mappings sourcemap.Mappings
	Sources  []sourcemap.Source
}

// Output is what a step produces.
//
// Mappings is nil when the step cannot describe positions. A nil Sources
// keeps the input's sources.
type Output struct {
	Source   string
	Mappings sourcemap.Mappings
	Sources  []sourcemap.Source
}

// Step is one pure rewriting function.
type Step struct {
	Name string
	Run  func(Input) (Output, error)
}

// Rule selects modules by ID and lists the steps applied to them.
type Rule struct {
	// Name identifies the rule in errors and in Module.Applied.
	Name string

	// Test selects module IDs. Nil matches every module.
	Test *regexp.Regexp

	// Exclude removes module IDs that Test selected. Optional.
	Exclude *regexp.Regexp

	Steps []Step
}

// Matches reports whether the rule applies to the module ID.
func (r Rule) Matches(id string) bool {
	if r.Test != nil && !r.Test.MatchString(id) {
		return false
	}
	if r.Exclude != nil && r.Exclude.MatchString(id) {
		return false
	}
	return true
}

// StepNames lists the rule's step names in order.
func (r Rule) StepNames() []string {
	names := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		names[i] = s.Name
	}
	return names
}
