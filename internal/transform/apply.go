package transform

import "github.com/opmodel/graphpack/internal/graph"

// Apply runs the steps of every rule matching m, in rule order then step
// order, each step consuming the previous output.
//
// m is never modified. When no rule matches, m itself is returned. On
// failure the partially transformed copy is discarded.
func Apply(m *graph.Module, rules []Rule) (*graph.Module, error) {
	var out *graph.Module
	for _, rule := range rules {
		if !rule.Matches(m.ID) {
			continue
		}
		if out == nil {
			out = m.Clone()
		}
		for i, step := range rule.Steps {
			res, err := step.Run(Input{
				ModuleID: out.ID,
				Source:   out.Source,
				Mappings: out.Mappings,
				Sources:  out.Sources,
			})
			if err != nil {
				return nil, &TransformError{
					ModuleID:  m.ID,
					Rule:      rule.Name,
					StepIndex: i,
					Step:      step.Name,
					Cause:     err,
				}
			}
			out.Source = res.Source
			out.Mappings = res.Mappings
			if res.Sources != nil {
				out.Sources = res.Sources
			}
			out.Applied = append(out.Applied, rule.Name+"/"+step.Name)
		}
	}
	if out == nil {
		return m, nil
	}
	return out, nil
}
