package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// actionsFile is the on-disk shape of the action catalog. YAML and JSON
// are both accepted (yaml.v3 parses JSON).
type actionsFile struct {
	Actions []IntegrationAction `yaml:"actions"`
}

type contextFile struct {
	Variables []ContextVariable `yaml:"variables"`
}

// LoadActions reads the action catalog file.
func LoadActions(path string) ([]IntegrationAction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading action catalog %s: %w", path, err)
	}
	var f actionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing action catalog %s: %w", path, err)
	}
	return f.Actions, nil
}

// LoadContext reads the context-variable catalog file.
func LoadContext(path string) ([]ContextVariable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading context catalog %s: %w", path, err)
	}
	var f contextFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing context catalog %s: %w", path, err)
	}
	return f.Variables, nil
}

// Load reads both catalog files and builds a snapshot. An empty
// contextPath yields a snapshot with no context variables.
func Load(actionsPath, contextPath string) (*Snapshot, error) {
	actions, err := LoadActions(actionsPath)
	if err != nil {
		return nil, err
	}
	var variables []ContextVariable
	if contextPath != "" {
		variables, err = LoadContext(contextPath)
		if err != nil {
			return nil, err
		}
	}
	return NewSnapshot(actions, variables)
}
