package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/flowsmith/flowsmith/internal/catalog"
	"github.com/flowsmith/flowsmith/internal/params"
	"github.com/flowsmith/flowsmith/internal/transform"
)

const (
	stepJSONDecoder = "json_decoder"
	stepDataMapper  = "data_mapper"
	stepCoercer     = "type_coercer"
)

// reviewThreshold is the generation confidence below which the report
// suggests a manual review of the mappings.
const reviewThreshold = 0.8

// Assemble turns a completed parameter set into a workflow definition.
// Validation has already passed; being called with an incomplete set is a
// programming error, reported as such rather than a user-facing failure.
func Assemble(action *catalog.IntegrationAction, ps *params.ParameterSet, snap *catalog.Snapshot, confidence float64) (*Definition, *Report, error) {
	if !ps.Complete(action) {
		return nil, nil, fmt.Errorf("assembler called with incomplete parameter set (failing: %v)", ps.FailingNames())
	}

	analysis := analyze(action, ps, snap)

	def := &Definition{
		ActionID:   action.ID,
		Parameters: make(map[string]any, len(ps.Values)),
	}

	if len(analysis.jsonParams) > 0 {
		src := transform.JSONDecodeSnippet(analysis.jsonParams)
		if err := transform.Check(src); err != nil {
			return nil, nil, fmt.Errorf("generated %s step: %w", stepJSONDecoder, err)
		}
		def.TransformSteps = append(def.TransformSteps, Step{
			Name:   stepJSONDecoder,
			Type:   "transform",
			Config: map[string]any{"function": src, "params": analysis.jsonParams},
		})
	}
	if len(analysis.mappings) > 0 {
		src := transform.MappingSnippet(analysis.mappings)
		if err := transform.Check(src); err != nil {
			return nil, nil, fmt.Errorf("generated %s step: %w", stepDataMapper, err)
		}
		def.TransformSteps = append(def.TransformSteps, Step{
			Name:   stepDataMapper,
			Type:   "transform",
			Config: map[string]any{"function": src, "params": sortedKeys(analysis.mappings)},
		})
	}
	if len(analysis.coercions) > 0 {
		src := transform.CoerceSnippet(analysis.coercions)
		if err := transform.Check(src); err != nil {
			return nil, nil, fmt.Errorf("generated %s step: %w", stepCoercer, err)
		}
		def.TransformSteps = append(def.TransformSteps, Step{
			Name:   stepCoercer,
			Type:   "transform",
			Config: map[string]any{"function": src, "params": sortedKeys(analysis.coercions)},
		})
	}

	for name, v := range ps.Values {
		if step, transformed := analysis.rewrites[name]; transformed {
			def.Parameters[name] = fmt.Sprintf("{{%s.output.%s}}", step, name)
			continue
		}
		def.Parameters[name] = v.Value
	}

	def.InputSchema = buildInputSchema(action, ps)

	report := &Report{
		Explanation: explain(action, ps, def),
		Suggestions: suggest(action, ps, confidence),
	}
	return def, report, nil
}

// stepAnalysis records which parameters need which transform, and which
// step's output each rewritten parameter should reference.
type stepAnalysis struct {
	jsonParams []string
	mappings   map[string]string // param -> dotted context path
	coercions  map[string]string // param -> tostring | tonumber
	rewrites   map[string]string // param -> step name
}

func analyze(action *catalog.IntegrationAction, ps *params.ParameterSet, snap *catalog.Snapshot) stepAnalysis {
	a := stepAnalysis{
		mappings:  make(map[string]string),
		coercions: make(map[string]string),
		rewrites:  make(map[string]string),
	}

	for _, spec := range action.Params {
		v, ok := ps.Values[spec.Name]
		if !ok {
			continue
		}

		if path, isRef := params.ParseContextRef(v.Value); isRef {
			if strings.Contains(path, ".") {
				a.mappings[spec.Name] = path
				a.rewrites[spec.Name] = stepDataMapper
				continue
			}
			if cv, known := snap.Variable(path); known {
				if fn := coercionFor(spec.Type, cv.Type); fn != "" {
					a.coercions[spec.Name] = fn
					a.rewrites[spec.Name] = stepCoercer
				}
			}
			continue
		}

		if strings.EqualFold(spec.Type, "json") && v.Source != params.SourceRequest {
			if _, isStr := v.Value.(string); isStr {
				a.jsonParams = append(a.jsonParams, spec.Name)
				a.rewrites[spec.Name] = stepJSONDecoder
			}
		}
	}

	sort.Strings(a.jsonParams)
	return a
}

// coercionFor returns the Lua coercion bridging a context variable's
// native type to the parameter's declared type, or "" when none is
// needed.
func coercionFor(paramType, varType string) string {
	pt := strings.ToLower(paramType)
	vt := strings.ToLower(varType)
	textual := pt == "short_text" || pt == "long_text"
	numericVar := vt == "number" || vt == "int" || vt == "integer" || vt == "float"
	if textual && numericVar {
		return "tostring"
	}
	if pt == "number" && (vt == "string" || vt == "short_text") {
		return "tonumber"
	}
	return ""
}

// buildInputSchema lists the authentication input plus one input per
// request-sourced parameter, so the installed workflow can be re-run with
// different literals.
func buildInputSchema(action *catalog.IntegrationAction, ps *params.ParameterSet) []Input {
	inputs := []Input{{
		Name:     action.Platform + "_integration",
		Type:     "integration",
		Label:    titleCase(action.Platform) + " Integration",
		GroupID:  "authentication",
		Required: true,
	}}

	for _, spec := range action.Params {
		v, ok := ps.Values[spec.Name]
		if !ok || v.Source != params.SourceRequest {
			continue
		}
		label := spec.Label
		if label == "" {
			label = spec.Name
		}
		inputs = append(inputs, Input{
			Name:      spec.Name,
			Type:      spec.Type,
			Label:     label,
			GroupID:   "parameters",
			Required:  spec.Required,
			TestValue: v.Value,
			Options:   spec.Options,
		})
	}
	return inputs
}

func explain(action *catalog.IntegrationAction, ps *params.ParameterSet, def *Definition) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Workflow for %s — %s:\n\nParameter mappings:\n", action.Platform, action.Operation)

	for _, spec := range action.Params {
		v, ok := ps.Values[spec.Name]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "  - %s: %v (from %s)\n", spec.Name, v.Value, v.Source)
	}

	if len(def.TransformSteps) > 0 {
		sb.WriteString("\nSteps:\n")
		for i, step := range def.TransformSteps {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, step.Name)
		}
		fmt.Fprintf(&sb, "  %d. invoke %s\n", len(def.TransformSteps)+1, action.ID)
	} else {
		fmt.Fprintf(&sb, "\nSteps:\n  1. invoke %s\n", action.ID)
	}
	return sb.String()
}

func suggest(action *catalog.IntegrationAction, ps *params.ParameterSet, confidence float64) []string {
	var out []string
	if confidence < reviewThreshold {
		out = append(out, "review the parameter mappings for accuracy")
	}
	var unused []string
	for _, spec := range action.Params {
		if spec.Required {
			continue
		}
		if _, ok := ps.Values[spec.Name]; !ok {
			unused = append(unused, spec.Name)
		}
	}
	if len(unused) > 0 {
		out = append(out, "optional parameters available: "+strings.Join(unused, ", "))
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
