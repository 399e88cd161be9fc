// Package transform generates the Lua bodies of data-transform steps and
// syntax-checks them before they enter a workflow definition. The
// snippets run in the workflow engine's Lua sandbox at execution time;
// compiling them here turns a bad generation into an assembly-time error.
package transform

import (
	"fmt"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// JSONDecodeSnippet returns a Lua transform(params) function that decodes
// the named string parameters as JSON in place. Names are sorted so the
// output is byte-stable for identical inputs.
func JSONDecodeSnippet(paramNames []string) string {
	names := append([]string(nil), paramNames...)
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("function transform(params)\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "  local ok, decoded = pcall(json.decode, params[%q])\n", name)
		fmt.Fprintf(&sb, "  if ok then params[%q] = decoded end\n", name)
	}
	sb.WriteString("  return params\nend\n")
	return sb.String()
}

// MappingSnippet returns a Lua transform(ctx, params) function that walks
// each dotted context path and assigns the leaf to the parameter.
func MappingSnippet(mappings map[string]string) string {
	names := make([]string, 0, len(mappings))
	for name := range mappings {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("function transform(ctx, params)\n")
	for _, name := range names {
		path := strings.Split(mappings[name], ".")
		sb.WriteString("  do\n    local v = ctx\n")
		for _, part := range path {
			fmt.Fprintf(&sb, "    if type(v) == \"table\" then v = v[%q] else v = nil end\n", part)
		}
		fmt.Fprintf(&sb, "    params[%q] = v\n  end\n", name)
	}
	sb.WriteString("  return params\nend\n")
	return sb.String()
}

// CoerceSnippet returns a Lua transform(params) function applying the
// given coercions, parameter name → "tostring" or "tonumber".
func CoerceSnippet(coercions map[string]string) string {
	names := make([]string, 0, len(coercions))
	for name := range coercions {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("function transform(params)\n")
	for _, name := range names {
		fn := coercions[name]
		if fn != "tostring" && fn != "tonumber" {
			continue
		}
		fmt.Fprintf(&sb, "  params[%q] = %s(params[%q])\n", name, fn, name)
	}
	sb.WriteString("  return params\nend\n")
	return sb.String()
}

// Check compiles src without running it. A non-nil error means the
// snippet would be rejected by the execution sandbox.
func Check(src string) error {
	ls := lua.NewState()
	defer ls.Close()
	if _, err := ls.LoadString(src); err != nil {
		return fmt.Errorf("transform snippet: %w", err)
	}
	return nil
}
