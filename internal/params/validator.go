package params

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/flowsmith/flowsmith/internal/catalog"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate checks the current values against the schema and replaces
// ps.Errors with the result. Pure in effect: it reads Values, writes only
// Errors, and is fully deterministic, so it can loop with repair safely.
//
// Context references ({{var}}) are checked against the referenced
// variable's declared type; their runtime value is unknowable here, so
// value-level constraints (enum membership, range, pattern) are deferred
// to execution for those.
func Validate(action *catalog.IntegrationAction, ps *ParameterSet, snap *catalog.Snapshot) {
	ps.Errors = make(map[string]string)
	validate(action, ps, snap, nil)
}

// ValidateSubset re-checks only the parameters named in target, leaving
// every other entry's error state untouched. The repair loop uses this so
// already-passing parameters are never re-validated.
func ValidateSubset(action *catalog.IntegrationAction, ps *ParameterSet, snap *catalog.Snapshot, target map[string]bool) {
	validate(action, ps, snap, target)
}

func validate(action *catalog.IntegrationAction, ps *ParameterSet, snap *catalog.Snapshot, target map[string]bool) {
	for _, spec := range action.Params {
		if target != nil {
			if !target[spec.Name] {
				continue
			}
			delete(ps.Errors, spec.Name)
		}
		v, present := ps.Values[spec.Name]
		if !present {
			if spec.Required {
				ps.Errors[spec.Name] = "missing"
			}
			continue
		}

		if path, isRef := ParseContextRef(v.Value); isRef {
			if reason := checkContextRef(spec, path, snap); reason != "" {
				ps.Errors[spec.Name] = reason
			}
			continue
		}

		if reason := checkValue(spec, v.Value); reason != "" {
			ps.Errors[spec.Name] = reason
		}
	}
}

func checkContextRef(spec catalog.ParameterSpec, path string, snap *catalog.Snapshot) string {
	root := path
	if dot := strings.Index(path, "."); dot > 0 {
		root = path[:dot]
	}
	v, ok := snap.Variable(root)
	if !ok {
		return fmt.Sprintf("references unknown context variable %q", root)
	}
	// A dotted path drills into a structured variable; the leaf type is
	// unknown, so only the root's existence is checkable.
	if root != path {
		return ""
	}
	if !typesCompatible(spec.Type, v.Type) {
		return fmt.Sprintf("context variable %q has type %s, parameter expects %s", v.Name, v.Type, spec.Type)
	}
	return ""
}

func checkValue(spec catalog.ParameterSpec, value any) string {
	switch strings.ToLower(spec.Type) {
	case "number":
		n, ok := asNumber(value)
		if !ok {
			return fmt.Sprintf("expected a number, got %v", value)
		}
		if spec.Min != nil && n < *spec.Min {
			return fmt.Sprintf("%v is below the minimum %v", n, *spec.Min)
		}
		if spec.Max != nil && n > *spec.Max {
			return fmt.Sprintf("%v is above the maximum %v", n, *spec.Max)
		}
	case "json":
		if !isValidJSON(value) {
			return fmt.Sprintf("expected valid JSON, got %v", value)
		}
	case "single_select":
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected one of %v, got %v", spec.Options, value)
		}
		if len(spec.Options) > 0 && !contains(spec.Options, s) {
			return fmt.Sprintf("%q is not one of the allowed options %v", s, spec.Options)
		}
	case "email":
		s, ok := value.(string)
		if !ok || !emailPattern.MatchString(s) {
			return fmt.Sprintf("malformed email address %v", value)
		}
	default: // short_text, long_text
		if !isScalar(value) {
			return fmt.Sprintf("expected text, got %T", value)
		}
	}

	if spec.Pattern != "" {
		s := fmt.Sprintf("%v", value)
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return fmt.Sprintf("schema pattern %q does not compile: %v", spec.Pattern, err)
		}
		if !re.MatchString(s) {
			return fmt.Sprintf("%q does not match required pattern %s", s, spec.Pattern)
		}
	}

	return ""
}

func asNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func isValidJSON(value any) bool {
	switch v := value.(type) {
	case map[string]any, []any:
		return true
	case string:
		return json.Valid([]byte(v))
	default:
		return false
	}
}

func isScalar(value any) bool {
	switch value.(type) {
	case string, bool, int, int64, float32, float64, json.Number:
		return true
	default:
		return false
	}
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
