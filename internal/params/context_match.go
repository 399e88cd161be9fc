package params

import (
	"strings"

	"github.com/flowsmith/flowsmith/internal/catalog"
)

// Context-variable matching is a scoring function, not ad hoc string
// checks, so its tie-break policy is testable. Weights:
//
//	exact name match          1.0
//	substring name match      0.6
//	compatible declared type  +0.2
//
// The best candidate above matchThreshold wins; ties go to catalog
// declaration order.
const matchThreshold = 0.5

// matchContextVariable finds the context variable best matching the
// parameter, or nil.
func matchContextVariable(p catalog.ParameterSpec, snap *catalog.Snapshot) *catalog.ContextVariable {
	var best *catalog.ContextVariable
	bestScore := 0.0

	paramName := strings.ToLower(p.Name)
	vars := snap.Variables()
	for i := range vars {
		v := &vars[i]
		score := 0.0
		varName := strings.ToLower(v.Name)
		switch {
		case varName == paramName:
			score = 1.0
		case strings.Contains(varName, paramName) || strings.Contains(paramName, varName):
			score = 0.6
		}
		if score == 0 {
			continue
		}
		if typesCompatible(p.Type, v.Type) {
			score += 0.2
		}
		if score > bestScore {
			best = v
			bestScore = score
		}
	}

	if bestScore < matchThreshold {
		return nil
	}
	return best
}

// typesCompatible reports whether a context variable of declared type vt
// can feed a parameter of interface type pt without losing meaning. Text
// interfaces accept anything stringable; structured interfaces are
// stricter.
func typesCompatible(pt, vt string) bool {
	pt = strings.ToLower(pt)
	vt = strings.ToLower(vt)
	switch pt {
	case "number":
		return vt == "number" || vt == "int" || vt == "integer" || vt == "float"
	case "json":
		return vt == "json" || vt == "object" || vt == "list" || vt == "array" || vt == "map"
	case "email":
		return vt == "email" || vt == "string" || vt == "short_text"
	case "single_select":
		return vt == "string" || vt == "short_text" || vt == "single_select"
	default: // short_text, long_text, unknown
		return true
	}
}
