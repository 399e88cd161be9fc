package catalog

// ParameterSpec describes one parameter of an integration action.
// Type is the interface type the action expects: short_text, long_text,
// number, json, single_select, or email.
type ParameterSpec struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`
	Label    string   `yaml:"label,omitempty" json:"label,omitempty"`
	Required bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Options  []string `yaml:"options,omitempty" json:"options,omitempty"`
	Pattern  string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Min      *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max      *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Default  any      `yaml:"default,omitempty" json:"default,omitempty"`
}

// IntegrationAction is one catalog entry: a named operation on a platform
// with an ordered parameter schema. Immutable once loaded.
type IntegrationAction struct {
	ID         string          `yaml:"id" json:"id"`
	Platform   string          `yaml:"platform" json:"platform"`
	Operation  string          `yaml:"operation" json:"operation"`
	EntityType string          `yaml:"entity_type,omitempty" json:"entity_type,omitempty"`
	Params     []ParameterSpec `yaml:"params" json:"params"`
}

// Param returns the parameter spec with the given name, if present.
func (a *IntegrationAction) Param(name string) (ParameterSpec, bool) {
	for _, p := range a.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// RequiredParams returns the names of required parameters in schema order.
func (a *IntegrationAction) RequiredParams() []string {
	var names []string
	for _, p := range a.Params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// ContextVariable is a named value available to the requester for
// substitution into action parameters.
type ContextVariable struct {
	Name    string `yaml:"name" json:"name"`
	Type    string `yaml:"type" json:"type"`
	Example any    `yaml:"example,omitempty" json:"example,omitempty"`
}
