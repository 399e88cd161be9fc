package params

import (
	"sort"

	"github.com/flowsmith/flowsmith/internal/catalog"
)

// Source records where a parameter value came from.
type Source string

const (
	SourceRequest Source = "request" // literal stated in the request text
	SourceContext Source = "context" // context-variable reference
	SourceDefault Source = "default" // schema default for an optional param
	SourceModel   Source = "model"   // model-assisted inference
)

// Value is one resolved parameter with its provenance.
type Value struct {
	Value  any    `json:"value"`
	Source Source `json:"source"`
}

// ParameterSet is the mutable working set threaded through the
// generate→validate→repair cycles. Repair cycles only touch entries named
// in Unresolved or Errors; everything else must be left untouched.
type ParameterSet struct {
	Values     map[string]Value
	Unresolved map[string]bool
	Errors     map[string]string
}

func NewParameterSet() *ParameterSet {
	return &ParameterSet{
		Values:     make(map[string]Value),
		Unresolved: make(map[string]bool),
		Errors:     make(map[string]string),
	}
}

// Complete reports whether every required parameter has a non-error value
// and nothing remains unresolved.
func (ps *ParameterSet) Complete(action *catalog.IntegrationAction) bool {
	if len(ps.Unresolved) > 0 || len(ps.Errors) > 0 {
		return false
	}
	for _, name := range action.RequiredParams() {
		if _, ok := ps.Values[name]; !ok {
			return false
		}
	}
	return true
}

// FailingNames returns the union of unresolved and erroring parameter
// names, sorted for deterministic repair passes.
func (ps *ParameterSet) FailingNames() []string {
	seen := make(map[string]bool)
	var names []string
	for name := range ps.Unresolved {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range ps.Errors {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
