package mock

import (
	"context"
	"strings"

	"github.com/poiesic/docent/ai"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, uses default canned response behavior.
	GenerateFunc func(ctx context.Context, messages []ai.Message, opts ai.GenerationOptions) (*ai.GenerationResult, error)

	// GenerateStreamFunc is called by GenerateStream if set.
	// If nil, streams the default response word by word.
	GenerateStreamFunc func(ctx context.Context, messages []ai.Message, opts ai.GenerationOptions, onDelta ai.StreamFunc) (*ai.GenerationResult, error)

	// Response overrides the default canned content when set.
	Response string

	callCount int
}

// NewMockGenerator creates a mock generator with default canned behavior.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns a canned response echoing the last user message.
func (m *MockGenerator) Generate(ctx context.Context, messages []ai.Message, opts ai.GenerationOptions) (*ai.GenerationResult, error) {
	m.callCount++

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, messages, opts)
	}

	content := m.cannedContent(messages)
	return &ai.GenerationResult{
		Content:      content,
		FinishReason: "stop",
		Usage:        cannedUsage(messages, content),
	}, nil
}

// GenerateStream streams the canned response word by word through onDelta.
func (m *MockGenerator) GenerateStream(ctx context.Context, messages []ai.Message, opts ai.GenerationOptions, onDelta ai.StreamFunc) (*ai.GenerationResult, error) {
	m.callCount++

	if m.GenerateStreamFunc != nil {
		return m.GenerateStreamFunc(ctx, messages, opts, onDelta)
	}

	content := m.cannedContent(messages)
	words := strings.SplitAfter(content, " ")
	for _, word := range words {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if err := onDelta(ctx, word); err != nil {
			return nil, err
		}
	}

	return &ai.GenerationResult{
		Content:      content,
		FinishReason: "stop",
		Usage:        cannedUsage(messages, content),
	}, nil
}

// CallCount returns the number of times any method was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.GenerateFunc = nil
	m.GenerateStreamFunc = nil
	m.Response = ""
}

// cannedContent builds the default response from the last user message.
func (m *MockGenerator) cannedContent(messages []ai.Message) string {
	if m.Response != "" {
		return m.Response
	}

	lastUser := ""
	for _, msg := range messages {
		if msg.Role == ai.RoleUser {
			lastUser = msg.Content
		}
	}
	if lastUser == "" {
		return "Mock response."
	}
	return "Mock response to: " + lastUser
}

// cannedUsage estimates token counts by word count.
func cannedUsage(messages []ai.Message, content string) ai.Usage {
	prompt := 0
	for _, msg := range messages {
		prompt += len(strings.Fields(msg.Content))
	}
	completion := len(strings.Fields(content))
	return ai.Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}
