package rag

import (
	"context"
	"time"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// ChatStream runs one streaming-mode turn. Content arrives as chunks on
// the returned channel, followed by exactly one terminal chunk with Final
// set, carrying either the turn's attribution or an error message. The
// channel is unbuffered and closed after the terminal chunk.
//
// Like Chat, the error return covers invalid requests only.
func (s *Service) ChatStream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	out := make(chan StreamChunk)
	go s.streamTurn(ctx, req, out)
	return out, nil
}

func (s *Service) streamTurn(ctx context.Context, req *ChatRequest, out chan<- StreamChunk) {
	defer close(out)
	start := time.Now()

	conversationId, retrieved, window, err := s.prepareTurn(ctx, req)
	logger := s.logger.With("conversationId", conversationId)
	if err != nil {
		logger.Error("context assembly failed", "err", err)
		s.store.RecordOutcome(time.Since(start), false)
		s.emit(ctx, out, StreamChunk{
			ConversationId: conversationId,
			Final:          true,
			ErrorMessage:   err.Error(),
		})
		return
	}
	logger.Info("stream turn started",
		"query", core.TextPrefix(req.Message, 50),
		"retrievedChunks", retrievedCount(retrieved))

	onDelta := func(ctx context.Context, delta string) error {
		select {
		case out <- StreamChunk{ConversationId: conversationId, Content: delta}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	result, err := s.generator.GenerateStream(ctx, s.promptMessages(window, req.Message), ai.GenerationOptions{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, onDelta)
	if err != nil {
		// A failed stream persists nothing; the partial answer never
		// becomes conversation history.
		logger.Error("streaming generation failed", "err", err)
		s.store.RecordOutcome(time.Since(start), false)
		s.emit(ctx, out, StreamChunk{
			ConversationId: conversationId,
			Final:          true,
			ErrorMessage:   err.Error(),
		})
		return
	}

	s.persistTurn(conversationId, req.Message, result.Content, result.FinishReason)
	elapsed := time.Since(start)
	s.store.RecordOutcome(elapsed, true)

	s.emit(ctx, out, StreamChunk{
		ConversationId: conversationId,
		Final:          true,
		Retrieval:      retrieved,
		Sources:        s.collectSources(ctx, retrieved),
		TokensUsed:     result.Usage.TotalTokens,
		FinishReason:   result.FinishReason,
	})
	logger.Info("stream turn finished",
		"elapsed", elapsed,
		"tokens", result.Usage.TotalTokens,
		"finishReason", result.FinishReason)
}

// emit sends a chunk unless the consumer is gone.
func (s *Service) emit(ctx context.Context, out chan<- StreamChunk, chunk StreamChunk) {
	select {
	case out <- chunk:
	case <-ctx.Done():
	}
}
