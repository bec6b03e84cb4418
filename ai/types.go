package ai

import "context"

// Message roles understood by chat completion APIs.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn of a chat completion request.
type Message struct {
	Role    string
	Content string
}

// GenerationOptions tunes a single completion request.
type GenerationOptions struct {
	// Temperature controls sampling randomness (0.0 = deterministic).
	Temperature float64

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int

	// JSONMode asks the model for a JSON object response.
	JSONMode bool
}

// GenerationResult is a completed response with usage accounting.
type GenerationResult struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// Usage reports token counts for a completion, when the provider supplies them.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StreamFunc receives response fragments during streaming generation.
// Returning an error stops the stream.
type StreamFunc func(ctx context.Context, delta string) error
