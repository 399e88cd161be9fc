package workflow

// Input is one entry of the assembled workflow's input schema: a value
// the workflow asks its operator for at install time.
type Input struct {
	Name      string   `json:"name" yaml:"name"`
	Type      string   `json:"type" yaml:"type"`
	Label     string   `json:"label" yaml:"label"`
	GroupID   string   `json:"group_id" yaml:"group_id"`
	Required  bool     `json:"required" yaml:"required"`
	TestValue any      `json:"test_value,omitempty" yaml:"test_value,omitempty"`
	Options   []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Step is one data-transform step inserted ahead of the action
// invocation. Config carries the Lua body under "function" and the
// parameter names it rewrites under "params".
type Step struct {
	Name   string         `json:"name" yaml:"name"`
	Type   string         `json:"type" yaml:"type"`
	Config map[string]any `json:"config" yaml:"config"`
}

// Definition is the compiled, executable artifact: one action id, its
// resolved parameters, and any transform steps that must run first.
// Immutable after assembly.
type Definition struct {
	ActionID       string         `json:"action_id" yaml:"action_id"`
	Parameters     map[string]any `json:"parameters" yaml:"parameters"`
	TransformSteps []Step         `json:"transform_steps,omitempty" yaml:"transform_steps,omitempty"`
	InputSchema    []Input        `json:"input_schema,omitempty" yaml:"input_schema,omitempty"`
}

// Report carries the human-facing assembly output alongside the
// definition: what was mapped from where, and what the requester may
// want to revisit.
type Report struct {
	Explanation string   `json:"explanation"`
	Suggestions []string `json:"suggestions,omitempty"`
}
