package parse

// ParsedRequest is the structured intent extracted from one request.
// Produced once per run and never mutated afterward; any hint may be
// empty, meaning the request did not state or imply it.
type ParsedRequest struct {
	RawText        string         `json:"raw_text"`
	PlatformHint   string         `json:"platform,omitempty"`
	OperationHint  string         `json:"operation,omitempty"`
	EntityTypeHint string         `json:"entity_type,omitempty"`
	LiteralParams  map[string]any `json:"literal_params,omitempty"`
	AmbiguityFlags []string       `json:"ambiguities,omitempty"`
}
