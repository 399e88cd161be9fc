package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewSnapshotRejectsDuplicates(t *testing.T) {
	_, err := NewSnapshot([]IntegrationAction{
		{ID: "slack.notify", Platform: "slack"},
		{ID: "slack.notify", Platform: "slack"},
	}, nil)
	if err == nil {
		t.Fatal("expected error for duplicate action id")
	}

	_, err = NewSnapshot(nil, []ContextVariable{
		{Name: "build_status", Type: "string"},
		{Name: "build_status", Type: "number"},
	})
	if err == nil {
		t.Fatal("expected error for duplicate context variable")
	}
}

func TestSnapshotLookups(t *testing.T) {
	snap, err := NewSnapshot([]IntegrationAction{
		{ID: "slack.notify", Platform: "Slack", Operation: "send"},
		{ID: "webflow.create_item", Platform: "Webflow", Operation: "create"},
		{ID: "webflow.update_item", Platform: "Webflow", Operation: "update"},
	}, []ContextVariable{{Name: "build_status", Type: "string"}})
	if err != nil {
		t.Fatal(err)
	}

	if a, ok := snap.Action("webflow.update_item"); !ok || a.Operation != "update" {
		t.Errorf("Action lookup = %v, %v", a, ok)
	}
	if _, ok := snap.Action("nope"); ok {
		t.Error("unknown action id must miss")
	}
	if v, ok := snap.Variable("build_status"); !ok || v.Type != "string" {
		t.Errorf("Variable lookup = %v, %v", v, ok)
	}

	platforms := snap.Platforms()
	if len(platforms) != 2 || platforms[0] != "Slack" || platforms[1] != "Webflow" {
		t.Errorf("Platforms() = %v", platforms)
	}
}

func TestFingerprintTracksContent(t *testing.T) {
	a, _ := NewSnapshot([]IntegrationAction{{ID: "slack.notify", Platform: "slack"}}, nil)
	b, _ := NewSnapshot([]IntegrationAction{{ID: "slack.notify", Platform: "slack"}}, nil)
	c, _ := NewSnapshot([]IntegrationAction{{ID: "slack.notify", Platform: "slack", Operation: "send"}}, nil)

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical catalogs must share a fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("changed catalog must change the fingerprint")
	}
}

func TestRequiredParams(t *testing.T) {
	a := IntegrationAction{
		ID: "slack.notify",
		Params: []ParameterSpec{
			{Name: "channel", Required: true},
			{Name: "icon"},
			{Name: "message", Required: true},
		},
	}
	got := a.RequiredParams()
	if len(got) != 2 || got[0] != "channel" || got[1] != "message" {
		t.Errorf("RequiredParams() = %v", got)
	}
}

const actionsYAML = `actions:
  - id: slack.notify
    platform: Slack
    operation: send
    entity_type: message
    params:
      - name: channel
        type: short_text
        required: true
      - name: message
        type: long_text
        required: true
  - id: webflow.create_item
    platform: Webflow
    operation: create
    entity_type: item
    params:
      - name: status
        type: single_select
        options: [draft, live]
        default: draft
`

const contextYAML = `variables:
  - name: build_status
    type: string
    example: passed
  - name: item_count
    type: number
`

func writeCatalogs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	actions := filepath.Join(dir, "actions.yaml")
	ctx := filepath.Join(dir, "context.yaml")
	if err := os.WriteFile(actions, []byte(actionsYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ctx, []byte(contextYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return actions, ctx
}

func TestLoad(t *testing.T) {
	actions, ctx := writeCatalogs(t)
	snap, err := Load(actions, ctx)
	if err != nil {
		t.Fatal(err)
	}

	a, ok := snap.Action("slack.notify")
	if !ok {
		t.Fatal("slack.notify not loaded")
	}
	if p, ok := a.Param("channel"); !ok || !p.Required || p.Type != "short_text" {
		t.Errorf("channel spec = %+v, %v", p, ok)
	}

	b, _ := snap.Action("webflow.create_item")
	if p, ok := b.Param("status"); !ok || len(p.Options) != 2 || p.Default != "draft" {
		t.Errorf("status spec = %+v, %v", p, ok)
	}

	if v, ok := snap.Variable("item_count"); !ok || v.Type != "number" {
		t.Errorf("item_count = %v, %v", v, ok)
	}
}

func TestLoadWithoutContextCatalog(t *testing.T) {
	actions, _ := writeCatalogs(t)
	snap, err := Load(actions, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Variables()) != 0 {
		t.Errorf("variables = %v, want none", snap.Variables())
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "actions.yaml")
	if err := os.WriteFile(bad, []byte("actions: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad, ""); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestWatcherReload(t *testing.T) {
	actions, ctx := writeCatalogs(t)
	w, err := NewWatcher(actions, ctx)
	if err != nil {
		t.Fatal(err)
	}

	before := w.Current().Fingerprint()

	updated := actionsYAML + `  - id: slack.invite
    platform: Slack
    operation: create
    entity_type: contact
`
	if err := os.WriteFile(actions, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Reload(); err != nil {
		t.Fatal(err)
	}

	snap := w.Current()
	if snap.Fingerprint() == before {
		t.Error("fingerprint unchanged after reload")
	}
	if _, ok := snap.Action("slack.invite"); !ok {
		t.Error("reloaded snapshot missing new action")
	}
}

func TestWatcherOnChangeFires(t *testing.T) {
	actions, ctx := writeCatalogs(t)
	w, err := NewWatcher(actions, ctx)
	if err != nil {
		t.Fatal(err)
	}

	var fired int
	w.OnChange(func(*Snapshot) { fired++ })
	if _, err := w.Reload(); err != nil {
		t.Fatal(err)
	}
	if fired != 1 {
		t.Errorf("callback fired %d times, want 1", fired)
	}
}

func TestNewRefresherRejectsBadSchedule(t *testing.T) {
	actions, ctx := writeCatalogs(t)
	w, err := NewWatcher(actions, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewRefresher(w, "not a cron spec"); err == nil {
		t.Fatal("expected error for malformed schedule")
	}
	r, err := NewRefresher(w, "@every 1h")
	if err != nil {
		t.Fatal(err)
	}
	r.Start()
	r.Stop()
}

func TestWatcherKeepsLastGoodSnapshotOnBadReload(t *testing.T) {
	actions, ctx := writeCatalogs(t)
	w, err := NewWatcher(actions, ctx)
	if err != nil {
		t.Fatal(err)
	}
	before := w.Current().Fingerprint()

	if err := os.WriteFile(actions, []byte("actions: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Reload(); err == nil {
		t.Fatal("expected reload error for malformed catalog")
	}
	if w.Current().Fingerprint() != before {
		t.Error("bad reload must not replace the serving snapshot")
	}
}
