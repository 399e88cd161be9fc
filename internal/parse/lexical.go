package parse

import (
	"regexp"
	"strings"

	"github.com/flowsmith/flowsmith/internal/catalog"
)

var quotedPattern = regexp.MustCompile(`"([^"]*)"`)

// operationKeywords maps request verbs to canonical operation hints, in
// priority order.
var operationKeywords = []struct {
	keyword   string
	operation string
}{
	{"create", "create"},
	{"add", "create"},
	{"send", "send"},
	{"notify", "send"},
	{"post", "create"},
	{"update", "update"},
	{"edit", "update"},
	{"delete", "delete"},
	{"remove", "delete"},
	{"list", "list"},
	{"get", "get"},
	{"fetch", "get"},
}

var entityKeywords = []string{
	"collection", "item", "record", "post", "page", "message",
	"issue", "ticket", "contact", "lead", "row", "document",
}

// lexicalScan extracts whatever intent can be read off the raw text
// without a model: a platform named verbatim, an operation verb, an
// entity noun, and quoted strings as literal candidates. It is the
// deterministic backstop merged under the model's extraction.
func lexicalScan(text string, snap *catalog.Snapshot) *ParsedRequest {
	lower := strings.ToLower(text)
	out := &ParsedRequest{RawText: text, LiteralParams: map[string]any{}}

	for _, platform := range snap.Platforms() {
		if strings.Contains(lower, strings.ToLower(platform)) {
			out.PlatformHint = platform
			break
		}
	}

	for _, kw := range operationKeywords {
		if containsWord(lower, kw.keyword) {
			out.OperationHint = kw.operation
			break
		}
	}

	for _, noun := range entityKeywords {
		if containsWord(lower, noun) {
			out.EntityTypeHint = noun
			break
		}
	}

	quoted := quotedPattern.FindAllStringSubmatch(text, -1)
	if len(quoted) > 0 {
		for _, name := range []string{"title", "name", "message"} {
			if containsWord(lower, name) {
				out.LiteralParams[name] = quoted[0][1]
				break
			}
		}
	}

	return out
}

// platformInCatalog reports whether name matches a catalog platform,
// returning the catalog's casing.
func platformInCatalog(name string, snap *catalog.Snapshot) (string, bool) {
	for _, p := range snap.Platforms() {
		if strings.EqualFold(p, name) {
			return p, true
		}
	}
	return "", false
}

func containsWord(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		before := start == 0 || !isWordChar(haystack[start-1])
		after := end == len(haystack) || !isWordChar(haystack[end])
		if before && after {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
