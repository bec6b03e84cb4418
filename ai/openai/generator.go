// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/docent/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat completions
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		logger: slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate produces a complete response for the given messages.
func (g *Generator) Generate(ctx context.Context, messages []ai.Message, opts ai.GenerationOptions) (*ai.GenerationResult, error) {
	response, err := g.client.GenerateContent(ctx, toContent(messages), callOptions(opts)...)
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return nil, err
	}
	return toResult(response)
}

// GenerateStream produces a response incrementally, forwarding each token
// fragment to onDelta as it arrives. The returned result carries the full
// accumulated content.
func (g *Generator) GenerateStream(ctx context.Context, messages []ai.Message, opts ai.GenerationOptions, onDelta ai.StreamFunc) (*ai.GenerationResult, error) {
	callOpts := append(callOptions(opts), llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		return onDelta(ctx, string(chunk))
	}))

	response, err := g.client.GenerateContent(ctx, toContent(messages), callOpts...)
	if err != nil {
		g.logger.Error("failed to stream content", "err", err)
		return nil, err
	}
	return toResult(response)
}

// callOptions converts generation options into langchaingo call options.
func callOptions(opts ai.GenerationOptions) []llms.CallOption {
	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.JSONMode {
		callOpts = append(callOpts, llms.WithJSONMode())
	}
	return callOpts
}

// toContent converts messages into langchaingo message content.
func toContent(messages []ai.Message) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		role := llms.ChatMessageTypeHuman
		switch msg.Role {
		case ai.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case ai.RoleAssistant:
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		})
	}
	return content
}

// toResult extracts the first choice and usage accounting from a response.
func toResult(response *llms.ContentResponse) (*ai.GenerationResult, error) {
	if response == nil || len(response.Choices) < 1 {
		return nil, ai.ErrEmptyResponse
	}

	choice := response.Choices[0]
	return &ai.GenerationResult{
		Content:      choice.Content,
		FinishReason: choice.StopReason,
		Usage: ai.Usage{
			PromptTokens:     infoInt(choice.GenerationInfo, "PromptTokens"),
			CompletionTokens: infoInt(choice.GenerationInfo, "CompletionTokens"),
			TotalTokens:      infoInt(choice.GenerationInfo, "TotalTokens"),
		},
	}, nil
}

// infoInt reads an integer from generation info, which providers populate
// with varying numeric types.
func infoInt(info map[string]any, key string) int {
	if info == nil {
		return 0
	}
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
