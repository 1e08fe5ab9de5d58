// Package llm abstracts text generation across local and hosted model
// providers behind one interface, with a retrying decorator that every
// concrete provider can be wrapped in.
package llm

import "context"

// Request is one generation call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Provider generates text from a Request.
type Provider interface {
	// Generate returns the complete response text.
	Generate(ctx context.Context, req Request) (string, error)

	// GenerateStream streams response tokens on the returned channel; the
	// error channel carries at most one error and is closed after the
	// token channel is closed.
	GenerateStream(ctx context.Context, req Request) (<-chan string, <-chan error)

	// Name identifies the provider for logging.
	Name() string
}
