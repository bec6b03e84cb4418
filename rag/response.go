package rag

import (
	"time"

	"github.com/poiesic/docent/core"
)

// ChatResponse is the outcome of one complete-mode chat turn. On failure
// Success is false, Message holds a user-facing apology and ErrorMessage
// the cause.
type ChatResponse struct {
	Success        bool
	Message        string
	ConversationId string
	ResponseTime   time.Duration

	Retrieval *core.RetrievalContext
	Sources   []core.DocumentSource

	TokensUsed   int
	FinishReason string
	ModelUsed    string

	Timestamp    time.Time
	ErrorMessage string
}

// StreamChunk is one increment of a streaming chat turn. Non-final chunks
// carry only Content; the final chunk carries the turn's summary fields,
// or an ErrorMessage when the turn failed mid-stream.
type StreamChunk struct {
	ConversationId string
	Content        string
	Final          bool

	Retrieval    *core.RetrievalContext
	Sources      []core.DocumentSource
	TokensUsed   int
	FinishReason string
	ErrorMessage string
}
