package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces chat completions from a language model.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate produces a complete response for the given messages.
	// Returns an error if generation fails or the model returns no choices.
	Generate(ctx context.Context, messages []Message, opts GenerationOptions) (*GenerationResult, error)

	// GenerateStream produces a response incrementally, calling onDelta for
	// each token fragment as it arrives. The returned result carries the
	// accumulated content and usage totals. If onDelta returns an error,
	// generation stops and that error is returned.
	GenerateStream(ctx context.Context, messages []Message, opts GenerationOptions, onDelta StreamFunc) (*GenerationResult, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Name identifies the provider in logs and status reports.
	Name() string

	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the chat completion service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Healthy probes the provider's backing service.
	// Returns nil when the service can accept requests.
	Healthy(ctx context.Context) error

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
