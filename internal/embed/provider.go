// Package embed turns text into vectors. Provider abstracts over a local
// daemon process, a hosted HTTPS API, and a deterministic mock for tests;
// Batched (with its EmbedWithProgress method) adds batching and progress
// reporting on top of any Provider.
package embed

import "context"

// Provider converts text into vectors.
type Provider interface {
	// Embed returns one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the length of every vector Embed returns.
	Dimensions() int

	// Name identifies the provider for logging and cache keys.
	Name() string

	// Close releases resources (a local daemon process, an HTTP client).
	Close() error
}
