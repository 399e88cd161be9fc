package provider

import (
	"context"
	"time"
)

// Request is a single-turn completion request. The compiler treats the
// model as an opaque text-completion capability: one prompt in, text out.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
	// Timeout bounds the call; zero means the client's default.
	Timeout time.Duration
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type Response struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Client is the opaque language-model capability. Implementations must not
// be assumed deterministic; identical prompts may yield different text.
// Retry policy, if any, lives behind this interface, never in the caller.
type Client interface {
	ID() string
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// withTimeout applies req.Timeout if set, else fallback.
func withTimeout(ctx context.Context, req *Request, fallback time.Duration) (context.Context, context.CancelFunc) {
	d := req.Timeout
	if d <= 0 {
		d = fallback
	}
	return context.WithTimeout(ctx, d)
}
