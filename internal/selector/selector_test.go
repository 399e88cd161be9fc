package selector

import (
	"testing"

	"github.com/flowsmith/flowsmith/internal/catalog"
	"github.com/flowsmith/flowsmith/internal/config"
	"github.com/flowsmith/flowsmith/internal/parse"
)

func testConfig() config.SelectorConfig {
	return config.SelectorConfig{
		IntentWeight:    0.4,
		EntityWeight:    0.4,
		CoverageWeight:  0.2,
		ConfidenceFloor: 0.5,
		ClarifyMargin:   0.3,
		MaxAlternatives: 2,
	}
}

func snapshot(t *testing.T, actions []catalog.IntegrationAction, vars []catalog.ContextVariable) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.NewSnapshot(actions, vars)
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestSelectExplicitPlatformAndOperation(t *testing.T) {
	snap := snapshot(t, []catalog.IntegrationAction{
		{ID: "slack.notify", Platform: "slack", Operation: "send", EntityType: "message",
			Params: []catalog.ParameterSpec{
				{Name: "channel", Type: "short_text", Required: true},
				{Name: "message", Type: "long_text", Required: true},
			}},
		{ID: "webflow.create_item", Platform: "webflow", Operation: "create", EntityType: "item",
			Params: []catalog.ParameterSpec{{Name: "collection_id", Type: "short_text", Required: true}}},
	}, nil)

	req := &parse.ParsedRequest{
		PlatformHint:   "slack",
		OperationHint:  "send",
		EntityTypeHint: "message",
		LiteralParams:  map[string]any{"channel": "#general", "message": "the build passed"},
	}

	res := New(testConfig()).Select(req, snap)
	if res.NeedsClarification {
		t.Fatalf("unexpected clarification: %s", res.Reason)
	}
	if res.Selected.ID != "slack.notify" {
		t.Fatalf("selected %s, want slack.notify", res.Selected.ID)
	}
	// operation + entity + full coverage
	if res.Confidence < 0.99 {
		t.Errorf("confidence = %v, want 1.0", res.Confidence)
	}
}

func TestSelectPlatformHintFiltersOtherPlatforms(t *testing.T) {
	snap := snapshot(t, []catalog.IntegrationAction{
		{ID: "webflow.update_item", Platform: "webflow", Operation: "update", EntityType: "item"},
		{ID: "wordpress.update_post", Platform: "wordpress", Operation: "update", EntityType: "post"},
	}, nil)

	req := &parse.ParsedRequest{PlatformHint: "wordpress", OperationHint: "update", EntityTypeHint: "post"}
	res := New(testConfig()).Select(req, snap)
	if res.NeedsClarification {
		t.Fatalf("unexpected clarification: %s", res.Reason)
	}
	if res.Selected.ID != "wordpress.update_post" {
		t.Errorf("selected %s, want wordpress.update_post", res.Selected.ID)
	}
}

func TestSelectAmbiguousWithinMargin(t *testing.T) {
	snap := snapshot(t, []catalog.IntegrationAction{
		{ID: "webflow.update_item", Platform: "webflow", Operation: "update", EntityType: "item"},
		{ID: "wordpress.update_post", Platform: "wordpress", Operation: "update", EntityType: "post"},
	}, nil)

	// "update the record": operation matches both, no platform, no entity.
	req := &parse.ParsedRequest{OperationHint: "update", EntityTypeHint: "record", LiteralParams: map[string]any{}}
	res := New(testConfig()).Select(req, snap)
	if !res.NeedsClarification {
		t.Fatalf("expected clarification, selected %s", res.Selected.ID)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(res.Candidates))
	}
	ids := map[string]bool{
		res.Candidates[0].Action.ID: true,
		res.Candidates[1].Action.ID: true,
	}
	if !ids["webflow.update_item"] || !ids["wordpress.update_post"] {
		t.Errorf("candidates = %v", ids)
	}
}

func TestSelectBelowConfidenceFloor(t *testing.T) {
	snap := snapshot(t, []catalog.IntegrationAction{
		{ID: "slack.notify", Platform: "slack", Operation: "send", EntityType: "message",
			Params: []catalog.ParameterSpec{{Name: "channel", Type: "short_text", Required: true}}},
	}, nil)

	req := &parse.ParsedRequest{OperationHint: "archive", EntityTypeHint: "invoice", LiteralParams: map[string]any{}}
	res := New(testConfig()).Select(req, snap)
	if !res.NeedsClarification {
		t.Fatal("expected clarification below confidence floor")
	}
}

func TestSelectEmptyCatalog(t *testing.T) {
	snap := snapshot(t, nil, nil)
	res := New(testConfig()).Select(&parse.ParsedRequest{OperationHint: "send"}, snap)
	if !res.NeedsClarification {
		t.Fatal("expected clarification on empty catalog")
	}
}

func TestRankPrefersFewerUncoveredRequired(t *testing.T) {
	// Equal scores (same coverage fraction): the action with fewer uncovered
	// required parameters ranks first.
	actions := []catalog.IntegrationAction{
		{ID: "b.send", Platform: "b", Operation: "send", EntityType: "message",
			Params: []catalog.ParameterSpec{
				{Name: "to", Type: "short_text", Required: true},
				{Name: "cc", Type: "short_text", Required: true},
				{Name: "subject", Type: "short_text", Required: true},
				{Name: "body", Type: "long_text", Required: true},
			}},
		{ID: "a.send", Platform: "a", Operation: "send", EntityType: "message",
			Params: []catalog.ParameterSpec{
				{Name: "to", Type: "short_text", Required: true},
				{Name: "body", Type: "long_text", Required: true},
			}},
	}
	snap := snapshot(t, actions, nil)
	req := &parse.ParsedRequest{OperationHint: "send", EntityTypeHint: "message",
		LiteralParams: map[string]any{"body": "hi", "cc": "ops"}}

	ranked := New(testConfig()).rank(req, snap)
	if ranked[0].Action.ID != "a.send" {
		t.Fatalf("top = %s, want a.send (1 uncovered vs 2)", ranked[0].Action.ID)
	}
}

func TestRankFullTieFallsBackToDeclarationOrder(t *testing.T) {
	actions := []catalog.IntegrationAction{
		{ID: "first.send", Platform: "a", Operation: "send", EntityType: "message"},
		{ID: "second.send", Platform: "b", Operation: "send", EntityType: "message"},
	}
	snap := snapshot(t, actions, nil)
	req := &parse.ParsedRequest{OperationHint: "send", EntityTypeHint: "message",
		LiteralParams: map[string]any{}}

	sel := New(testConfig())
	first := sel.rank(req, snap)
	if first[0].Action.ID != "first.send" {
		t.Fatalf("top = %s, want first.send by declaration order", first[0].Action.ID)
	}
	for i := 0; i < 10; i++ {
		again := sel.rank(req, snap)
		for j := range again {
			if again[j].Action.ID != first[j].Action.ID {
				t.Fatalf("ranking not stable at %d: %s vs %s", j, again[j].Action.ID, first[j].Action.ID)
			}
		}
	}
}

func TestTopAlternativesHonorsLimit(t *testing.T) {
	snap := snapshot(t, []catalog.IntegrationAction{
		{ID: "a.send", Platform: "a", Operation: "send"},
		{ID: "b.send", Platform: "b", Operation: "send"},
		{ID: "c.send", Platform: "c", Operation: "send"},
	}, nil)
	req := &parse.ParsedRequest{OperationHint: "send", LiteralParams: map[string]any{}}

	res := New(testConfig()).Select(req, snap)
	if !res.NeedsClarification {
		t.Fatal("expected clarification")
	}
	if len(res.Candidates) != 2 {
		t.Errorf("candidates = %d, want MaxAlternatives (2)", len(res.Candidates))
	}
}
