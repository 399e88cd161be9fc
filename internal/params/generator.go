package params

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/flowsmith/flowsmith/internal/catalog"
	"github.com/flowsmith/flowsmith/internal/parse"
	"github.com/flowsmith/flowsmith/internal/provider"
)

// Generator maps literals, context variables, and (optionally)
// model-inferred values onto an action's parameter schema.
type Generator struct {
	llm            provider.Client
	allowInference bool
}

func NewGenerator(llm provider.Client, allowInference bool) *Generator {
	return &Generator{llm: llm, allowInference: allowInference}
}

// Generate resolves values for exactly the parameters named in target, or
// the full schema when target is nil. Parameters outside the target set
// are never touched; that isolation is what keeps repair cycles cheap.
//
// Resolution priority per parameter: literal stated in the request, then
// the best-matching context variable (as a {{name}} reference), then
// model inference when permitted, then the schema default for optional
// parameters, else unresolved.
func (g *Generator) Generate(
	ctx context.Context,
	action *catalog.IntegrationAction,
	req *parse.ParsedRequest,
	snap *catalog.Snapshot,
	ps *ParameterSet,
	target map[string]bool,
) {
	for _, spec := range action.Params {
		if target != nil && !target[spec.Name] {
			continue
		}
		delete(ps.Unresolved, spec.Name)
		delete(ps.Errors, spec.Name)

		if lit, ok := req.LiteralParams[spec.Name]; ok {
			ps.Values[spec.Name] = Value{Value: lit, Source: SourceRequest}
			continue
		}

		if v := matchContextVariable(spec, snap); v != nil {
			ps.Values[spec.Name] = Value{Value: ContextRef(v.Name), Source: SourceContext}
			continue
		}

		if g.allowInference && g.llm != nil {
			if inferred, ok := g.infer(ctx, spec, req); ok {
				ps.Values[spec.Name] = Value{Value: inferred, Source: SourceModel}
				continue
			}
		}

		if !spec.Required {
			if spec.Default != nil {
				ps.Values[spec.Name] = Value{Value: spec.Default, Source: SourceDefault}
			}
			continue
		}

		delete(ps.Values, spec.Name)
		ps.Unresolved[spec.Name] = true
	}
}

// Confidence is the fraction of required parameters with a value, the
// generation-quality signal surfaced on the final result.
func Confidence(action *catalog.IntegrationAction, ps *ParameterSet) float64 {
	required := action.RequiredParams()
	if len(required) == 0 {
		return 1.0
	}
	covered := 0
	for _, name := range required {
		if _, ok := ps.Values[name]; ok {
			covered++
		}
	}
	return float64(covered) / float64(len(required))
}

// infer asks the model for one parameter value from the request text. A
// failed or unusable call marks the parameter unresolved rather than
// failing the run; inference is best-effort by contract.
func (g *Generator) infer(ctx context.Context, spec catalog.ParameterSpec, req *parse.ParsedRequest) (any, bool) {
	prompt := fmt.Sprintf(
		"REQUEST: %s\n\nExtract a value for the parameter %q (type %s) from the request."+
			"\nRespond with a single JSON object {\"value\": ...} or {\"value\": null} if the request does not state one.",
		req.RawText, spec.Name, spec.Type)

	resp, err := g.llm.Complete(ctx, &provider.Request{Prompt: prompt})
	if err != nil {
		log.Printf("params: inference for %q: %v", spec.Name, err)
		return nil, false
	}
	start := strings.Index(resp.Content, "{")
	end := strings.LastIndex(resp.Content, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	var out struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal([]byte(resp.Content[start:end+1]), &out); err != nil || out.Value == nil {
		return nil, false
	}
	return out.Value, true
}

// ContextRef renders the liquid-style reference for a context variable.
func ContextRef(name string) string {
	return "{{" + name + "}}"
}

// ParseContextRef returns the variable path inside a {{...}} reference.
func ParseContextRef(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{{") || !strings.HasSuffix(s, "}}") {
		return "", false
	}
	return strings.TrimSpace(s[2 : len(s)-2]), true
}
