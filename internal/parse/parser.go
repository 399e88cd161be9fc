package parse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flowsmith/flowsmith/internal/catalog"
	"github.com/flowsmith/flowsmith/internal/provider"
)

const parserSystemPrompt = `You extract structured intent from workflow-automation requests.
Respond with a single JSON object and nothing else:
{"platform": string|null, "operation": string|null, "entity_type": string|null,
 "literal_params": {name: value}, "ambiguities": [string]}
Only report a platform, operation, or entity type the request states or clearly
implies; use null when unsure. literal_params holds only values written out in
the request itself.`

// Parser turns free text into a ParsedRequest using the model capability,
// merged over a deterministic lexical scan. The model call is the only
// suspending operation; its failure is fatal for the run (no retry here).
type Parser struct {
	llm provider.Client
}

func NewParser(llm provider.Client) *Parser {
	return &Parser{llm: llm}
}

// modelExtraction is the JSON shape requested from the model.
type modelExtraction struct {
	Platform    *string        `json:"platform"`
	Operation   *string        `json:"operation"`
	EntityType  *string        `json:"entity_type"`
	Literals    map[string]any `json:"literal_params"`
	Ambiguities []string       `json:"ambiguities"`
}

// Parse extracts intent from rawText. Hints the model does not supply are
// backfilled from the lexical scan; a platform the catalog does not know
// and the text does not contain is dropped rather than guessed.
func (p *Parser) Parse(ctx context.Context, rawText string, snap *catalog.Snapshot) (*ParsedRequest, error) {
	lexical := lexicalScan(rawText, snap)

	resp, err := p.llm.Complete(ctx, &provider.Request{
		System: parserSystemPrompt,
		Prompt: p.buildPrompt(rawText, snap),
	})
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}

	var ext modelExtraction
	body, ok := extractJSONObject(resp.Content)
	if !ok {
		return nil, fmt.Errorf("model response has no JSON object: %.80q", resp.Content)
	}
	if err := json.Unmarshal([]byte(body), &ext); err != nil {
		return nil, fmt.Errorf("malformed model response: %w", err)
	}

	req := &ParsedRequest{
		RawText:        rawText,
		PlatformHint:   deref(ext.Platform),
		OperationHint:  deref(ext.Operation),
		EntityTypeHint: deref(ext.EntityType),
		LiteralParams:  ext.Literals,
		AmbiguityFlags: ext.Ambiguities,
	}
	if req.LiteralParams == nil {
		req.LiteralParams = map[string]any{}
	}

	// Never fabricate a platform: keep it only if the catalog knows it,
	// normalized to catalog casing, else fall back to the lexical find.
	if req.PlatformHint != "" {
		if canonical, known := platformInCatalog(req.PlatformHint, snap); known {
			req.PlatformHint = canonical
		} else {
			req.PlatformHint = ""
		}
	}
	if req.PlatformHint == "" {
		req.PlatformHint = lexical.PlatformHint
	}
	if req.OperationHint == "" {
		req.OperationHint = lexical.OperationHint
	}
	if req.EntityTypeHint == "" {
		req.EntityTypeHint = lexical.EntityTypeHint
	}
	for name, value := range lexical.LiteralParams {
		if _, present := req.LiteralParams[name]; !present {
			req.LiteralParams[name] = value
		}
	}

	return req, nil
}

func (p *Parser) buildPrompt(rawText string, snap *catalog.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("REQUEST: ")
	sb.WriteString(rawText)
	sb.WriteString("\n\nKNOWN PLATFORMS: ")
	sb.WriteString(strings.Join(snap.Platforms(), ", "))
	sb.WriteString("\nAVAILABLE CONTEXT VARIABLES: ")
	names := make([]string, 0, len(snap.Variables()))
	for _, v := range snap.Variables() {
		names = append(names, v.Name)
	}
	sb.WriteString(strings.Join(names, ", "))
	return sb.String()
}

// extractJSONObject returns the outermost {...} block in s. Models often
// wrap JSON in prose or code fences.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
