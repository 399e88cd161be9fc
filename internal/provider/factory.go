package provider

import (
	"fmt"
	"time"
)

// New builds a Client for the named provider kind ("anthropic" or
// "openai"). timeout <= 0 keeps the provider default.
func New(kind, baseURL, apiKey, model string, timeout time.Duration) (Client, error) {
	switch kind {
	case "anthropic":
		var opts []AnthropicOption
		if timeout > 0 {
			opts = append(opts, WithAnthropicTimeout(timeout))
		}
		return NewAnthropicClient(baseURL, apiKey, model, opts...), nil
	case "openai":
		var opts []OpenAIOption
		if timeout > 0 {
			opts = append(opts, WithOpenAITimeout(timeout))
		}
		return NewOpenAIClient(baseURL, apiKey, model, opts...), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", kind)
	}
}
