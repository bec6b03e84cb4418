package rag

import (
	"strings"

	"github.com/poiesic/docent/prompt"
)

// Request defaults and bounds.
const (
	defaultRetrievedChunks     = 5
	defaultSimilarityThreshold = 0.6
	defaultMaxContextLength    = 4000
	defaultMaxHistoryMessages  = 10
	defaultTemperature         = 0.7
	defaultMaxTokens           = 1000

	minRetrievedChunks = 1
	maxRetrievedChunks = 20
	minContextLength   = 500
	maxContextLength   = 8000
	maxHistoryMessages = 50
	maxTemperature     = 2.0
	minTokens          = 50
	maxTokens          = 4000
)

// ChatRequest describes one chat turn.
type ChatRequest struct {
	Message        string
	ConversationId string // empty starts a new conversation

	// Retrieval
	EnableRetrieval     bool
	MaxRetrievedChunks  int
	SimilarityThreshold float64

	// Context assembly
	ContextStrategy    prompt.Strategy
	MaxContextLength   int
	IncludeChatHistory bool
	MaxHistoryMessages int

	// Generation
	Temperature float64
	MaxTokens   int
}

// NewChatRequest returns a request for the message with service defaults:
// retrieval and history on, ranked context, moderate temperature.
func NewChatRequest(message string) *ChatRequest {
	return &ChatRequest{
		Message:             message,
		EnableRetrieval:     true,
		MaxRetrievedChunks:  defaultRetrievedChunks,
		SimilarityThreshold: defaultSimilarityThreshold,
		ContextStrategy:     prompt.StrategyRanked,
		MaxContextLength:    defaultMaxContextLength,
		IncludeChatHistory:  true,
		MaxHistoryMessages:  defaultMaxHistoryMessages,
		Temperature:         defaultTemperature,
		MaxTokens:           defaultMaxTokens,
	}
}

func (r *ChatRequest) validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	if r.MaxRetrievedChunks < minRetrievedChunks || r.MaxRetrievedChunks > maxRetrievedChunks {
		return ErrInvalidChunkCount
	}
	if r.SimilarityThreshold < 0 || r.SimilarityThreshold > 1 {
		return ErrInvalidThreshold
	}
	if r.MaxContextLength < minContextLength || r.MaxContextLength > maxContextLength {
		return ErrInvalidContextLength
	}
	if r.MaxHistoryMessages < 0 || r.MaxHistoryMessages > maxHistoryMessages {
		return ErrInvalidHistoryLimit
	}
	if r.Temperature < 0 || r.Temperature > maxTemperature {
		return ErrInvalidTemperature
	}
	if r.MaxTokens < minTokens || r.MaxTokens > maxTokens {
		return ErrInvalidMaxTokens
	}
	return nil
}
