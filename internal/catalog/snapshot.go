package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Snapshot is an immutable, queryable view of both catalogs. Concurrent
// runs read a snapshot without locking; reloads build a new one.
type Snapshot struct {
	actions   []IntegrationAction
	variables []ContextVariable
	byID      map[string]*IntegrationAction
	byName    map[string]*ContextVariable
	fp        string
}

// NewSnapshot builds a snapshot, preserving catalog declaration order.
// Duplicate action ids or variable names are rejected.
func NewSnapshot(actions []IntegrationAction, variables []ContextVariable) (*Snapshot, error) {
	s := &Snapshot{
		actions:   actions,
		variables: variables,
		byID:      make(map[string]*IntegrationAction, len(actions)),
		byName:    make(map[string]*ContextVariable, len(variables)),
	}
	for i := range actions {
		a := &s.actions[i]
		if a.ID == "" {
			return nil, fmt.Errorf("catalog: action %d has no id", i)
		}
		if _, dup := s.byID[a.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate action id %q", a.ID)
		}
		s.byID[a.ID] = a
	}
	for i := range variables {
		v := &s.variables[i]
		if v.Name == "" {
			return nil, fmt.Errorf("catalog: context variable %d has no name", i)
		}
		if _, dup := s.byName[v.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate context variable %q", v.Name)
		}
		s.byName[v.Name] = v
	}
	s.fp = fingerprint(actions, variables)
	return s, nil
}

// Actions returns all actions in declaration order.
func (s *Snapshot) Actions() []IntegrationAction { return s.actions }

// Variables returns all context variables in declaration order.
func (s *Snapshot) Variables() []ContextVariable { return s.variables }

// Action looks up an action by id.
func (s *Snapshot) Action(id string) (*IntegrationAction, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Variable looks up a context variable by name.
func (s *Snapshot) Variable(name string) (*ContextVariable, bool) {
	v, ok := s.byName[name]
	return v, ok
}

// Platforms returns the distinct platform names, sorted.
func (s *Snapshot) Platforms() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range s.actions {
		key := strings.ToLower(a.Platform)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a.Platform)
	}
	sort.Strings(out)
	return out
}

// Fingerprint is a stable digest of the catalog content, used to key
// compiled-workflow cache entries.
func (s *Snapshot) Fingerprint() string { return s.fp }

func fingerprint(actions []IntegrationAction, variables []ContextVariable) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(actions)
	_ = enc.Encode(variables)
	return hex.EncodeToString(h.Sum(nil))
}
