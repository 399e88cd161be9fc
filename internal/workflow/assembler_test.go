package workflow

import (
	"strings"
	"testing"

	"github.com/flowsmith/flowsmith/internal/catalog"
	"github.com/flowsmith/flowsmith/internal/params"
)

func snapshot(t *testing.T, vars []catalog.ContextVariable) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.NewSnapshot(nil, vars)
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func slackNotify() *catalog.IntegrationAction {
	return &catalog.IntegrationAction{
		ID:        "slack.notify",
		Platform:  "slack",
		Operation: "send",
		Params: []catalog.ParameterSpec{
			{Name: "channel", Type: "short_text", Required: true},
			{Name: "message", Type: "long_text", Required: true},
			{Name: "icon", Type: "short_text"},
		},
	}
}

func TestAssembleRejectsIncompleteSet(t *testing.T) {
	ps := params.NewParameterSet()
	ps.Values["channel"] = params.Value{Value: "#general", Source: params.SourceRequest}
	ps.Unresolved["message"] = true

	_, _, err := Assemble(slackNotify(), ps, snapshot(t, nil), 1.0)
	if err == nil {
		t.Fatal("expected error for incomplete parameter set")
	}
}

func TestAssemblePlainLiterals(t *testing.T) {
	ps := params.NewParameterSet()
	ps.Values["channel"] = params.Value{Value: "#general", Source: params.SourceRequest}
	ps.Values["message"] = params.Value{Value: "the build passed", Source: params.SourceRequest}

	def, report, err := Assemble(slackNotify(), ps, snapshot(t, nil), 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if def.ActionID != "slack.notify" {
		t.Errorf("action id = %q", def.ActionID)
	}
	if len(def.TransformSteps) != 0 {
		t.Errorf("transform steps = %v, want none for plain literals", def.TransformSteps)
	}
	if def.Parameters["channel"] != "#general" || def.Parameters["message"] != "the build passed" {
		t.Errorf("parameters = %v", def.Parameters)
	}
	if !strings.Contains(report.Explanation, "invoke slack.notify") {
		t.Errorf("explanation missing invocation:\n%s", report.Explanation)
	}
}

func TestAssembleMappingStepForDottedRef(t *testing.T) {
	snap := snapshot(t, []catalog.ContextVariable{{Name: "build", Type: "object"}})
	ps := params.NewParameterSet()
	ps.Values["channel"] = params.Value{Value: "#general", Source: params.SourceRequest}
	ps.Values["message"] = params.Value{Value: "{{build.status}}", Source: params.SourceContext}

	def, _, err := Assemble(slackNotify(), ps, snap, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(def.TransformSteps) != 1 || def.TransformSteps[0].Name != "data_mapper" {
		t.Fatalf("steps = %v, want one data_mapper", def.TransformSteps)
	}
	if def.Parameters["message"] != "{{data_mapper.output.message}}" {
		t.Errorf("message = %v, want rewritten to step output", def.Parameters["message"])
	}
	if def.Parameters["channel"] != "#general" {
		t.Errorf("channel = %v, must stay a literal", def.Parameters["channel"])
	}
}

func TestAssembleCoercionStepForTypeBridge(t *testing.T) {
	snap := snapshot(t, []catalog.ContextVariable{{Name: "item_count", Type: "number"}})
	action := &catalog.IntegrationAction{
		ID:       "sheet.append",
		Platform: "sheets",
		Params: []catalog.ParameterSpec{
			{Name: "note", Type: "short_text", Required: true},
		},
	}
	ps := params.NewParameterSet()
	ps.Values["note"] = params.Value{Value: "{{item_count}}", Source: params.SourceContext}

	def, _, err := Assemble(action, ps, snap, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(def.TransformSteps) != 1 || def.TransformSteps[0].Name != "type_coercer" {
		t.Fatalf("steps = %v, want one type_coercer", def.TransformSteps)
	}
	src, _ := def.TransformSteps[0].Config["function"].(string)
	if !strings.Contains(src, "tostring") {
		t.Errorf("coercer missing tostring:\n%s", src)
	}
}

func TestAssembleJSONDecodeStep(t *testing.T) {
	snap := snapshot(t, nil)
	action := &catalog.IntegrationAction{
		ID:       "webflow.create_item",
		Platform: "webflow",
		Params: []catalog.ParameterSpec{
			{Name: "fields", Type: "json", Required: true},
		},
	}
	ps := params.NewParameterSet()
	ps.Values["fields"] = params.Value{Value: `{"name": "Launch"}`, Source: params.SourceModel}

	def, _, err := Assemble(action, ps, snap, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(def.TransformSteps) != 1 || def.TransformSteps[0].Name != "json_decoder" {
		t.Fatalf("steps = %v, want one json_decoder", def.TransformSteps)
	}
	if def.Parameters["fields"] != "{{json_decoder.output.fields}}" {
		t.Errorf("fields = %v", def.Parameters["fields"])
	}
}

func TestInputSchemaCarriesAuthAndRequestParams(t *testing.T) {
	ps := params.NewParameterSet()
	ps.Values["channel"] = params.Value{Value: "#general", Source: params.SourceRequest}
	ps.Values["message"] = params.Value{Value: "{{build_status}}", Source: params.SourceContext}

	snap := snapshot(t, []catalog.ContextVariable{{Name: "build_status", Type: "string"}})
	def, _, err := Assemble(slackNotify(), ps, snap, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	if len(def.InputSchema) != 2 {
		t.Fatalf("input schema = %+v, want auth input plus channel", def.InputSchema)
	}
	auth := def.InputSchema[0]
	if auth.Name != "slack_integration" || auth.Type != "integration" || auth.GroupID != "authentication" || !auth.Required {
		t.Errorf("auth input = %+v", auth)
	}
	param := def.InputSchema[1]
	if param.Name != "channel" || param.TestValue != "#general" || param.GroupID != "parameters" {
		t.Errorf("param input = %+v", param)
	}
}

func TestSuggestionsOnLowConfidenceAndUnusedOptionals(t *testing.T) {
	ps := params.NewParameterSet()
	ps.Values["channel"] = params.Value{Value: "#general", Source: params.SourceRequest}
	ps.Values["message"] = params.Value{Value: "hi", Source: params.SourceRequest}

	_, report, err := Assemble(slackNotify(), ps, snapshot(t, nil), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	var review, optionals bool
	for _, s := range report.Suggestions {
		if strings.Contains(s, "review") {
			review = true
		}
		if strings.Contains(s, "icon") {
			optionals = true
		}
	}
	if !review {
		t.Errorf("low confidence should suggest a review: %v", report.Suggestions)
	}
	if !optionals {
		t.Errorf("unused optional icon should be suggested: %v", report.Suggestions)
	}
}
