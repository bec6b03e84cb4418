package rag

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/analyzer"
	"github.com/poiesic/docent/conversation"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/prompt"
	"github.com/poiesic/docent/retrieval"
	"github.com/poiesic/docent/storage"
)

// failureMessage is what the user sees when a turn fails internally.
const failureMessage = "Sorry, something went wrong while answering your question. Please try again."

// Service orchestrates one chat turn end to end: query analysis, retrieval,
// context assembly, generation and conversation bookkeeping.
type Service struct {
	engine    *retrieval.Engine
	store     *conversation.Store
	provider  ai.AIProvider
	generator ai.Generator
	analyzer  *analyzer.Analyzer
	builder   *prompt.Builder

	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	keywords  storage.KeywordIndex

	model  string
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithAnalyzer sets the query analyzer.
// Default is a deterministic analyzer without model enhancement.
func WithAnalyzer(a *analyzer.Analyzer) Option {
	return func(s *Service) error {
		s.analyzer = a
		return nil
	}
}

// WithBuilder sets the prompt builder.
// Default is a builder with the heuristic token estimator.
func WithBuilder(b *prompt.Builder) Option {
	return func(s *Service) error {
		s.builder = b
		return nil
	}
}

// WithCatalog gives the service catalog access for source enrichment.
func WithCatalog(documents storage.DocumentRepository) Option {
	return func(s *Service) error {
		s.documents = documents
		return nil
	}
}

// WithChunks gives the service chunk access for keyword and category
// retrieval legs.
func WithChunks(chunks storage.ChunkRepository) Option {
	return func(s *Service) error {
		s.chunks = chunks
		return nil
	}
}

// WithKeywordIndex enables the keyword and category retrieval legs.
func WithKeywordIndex(keywords storage.KeywordIndex) Option {
	return func(s *Service) error {
		s.keywords = keywords
		return nil
	}
}

// WithModelName sets the label reported as ModelUsed in responses.
// Default is the provider name.
func WithModelName(model string) Option {
	return func(s *Service) error {
		if model != "" {
			s.model = model
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService wires the chat pipeline. The retrieval engine, conversation
// store and AI provider are required; everything else has a default or is
// optional.
func NewService(engine *retrieval.Engine, store *conversation.Store, provider ai.AIProvider, opts ...Option) (*Service, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	s := &Service{
		engine:    engine,
		store:     store,
		provider:  provider,
		generator: provider.Generator(),
		model:     provider.Name(),
		logger:    slog.Default().With("component", "rag"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.analyzer == nil {
		a, err := analyzer.New()
		if err != nil {
			return nil, err
		}
		s.analyzer = a
	}
	if s.builder == nil {
		b, err := prompt.New()
		if err != nil {
			return nil, err
		}
		s.builder = b
	}

	return s, nil
}

// Chat runs one complete-mode turn. The error return is reserved for
// invalid requests; internal failures come back as a response with Success
// false so the conversation survives them.
func (s *Service) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	// 1. Validate the request before any work
	if req == nil {
		return nil, ErrNilRequest
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	// 2. Resolve the conversation and assemble the context window
	conversationId, retrieved, window, err := s.prepareTurn(ctx, req)
	logger := s.logger.With("conversationId", conversationId)
	if err != nil {
		logger.Error("context assembly failed", "err", err)
		return s.failedResponse(conversationId, retrieved, start, err), nil
	}
	logger.Info("chat turn started",
		"query", core.TextPrefix(req.Message, 50),
		"retrievedChunks", retrievedCount(retrieved))

	// 3. Generate the answer
	result, err := s.generator.Generate(ctx, s.promptMessages(window, req.Message), ai.GenerationOptions{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		logger.Error("generation failed", "err", err)
		return s.failedResponse(conversationId, retrieved, start, err), nil
	}

	// 4. Persist both turns
	s.persistTurn(conversationId, req.Message, result.Content, result.FinishReason)

	// 5. Record the outcome and answer
	elapsed := time.Since(start)
	s.store.RecordOutcome(elapsed, true)

	response := &ChatResponse{
		Success:        true,
		Message:        result.Content,
		ConversationId: conversationId,
		ResponseTime:   elapsed,
		Retrieval:      retrieved,
		Sources:        s.collectSources(ctx, retrieved),
		TokensUsed:     result.Usage.TotalTokens,
		FinishReason:   result.FinishReason,
		ModelUsed:      s.model,
		Timestamp:      time.Now(),
	}
	logger.Info("chat turn finished",
		"elapsed", elapsed,
		"tokens", response.TokensUsed,
		"finishReason", response.FinishReason,
		"sources", len(response.Sources))
	return response, nil
}

// prepareTurn runs the shared front half of a turn: conversation
// resolution, retrieval, history fetch and context assembly.
func (s *Service) prepareTurn(ctx context.Context, req *ChatRequest) (string, *core.RetrievalContext, *core.ContextWindow, error) {
	conversationId := s.store.CreateOrGet(req.ConversationId)

	var retrieved *core.RetrievalContext
	var intent core.Intent
	if req.EnableRetrieval {
		retrieved, intent = s.retrieveContext(ctx, req)
	}

	var history []core.ChatMessage
	if req.IncludeChatHistory && req.MaxHistoryMessages > 0 {
		history = s.store.GetRecent(conversationId, req.MaxHistoryMessages)
	}

	window, err := s.builder.Build(&prompt.BuildRequest{
		Query:      req.Message,
		Retrieved:  retrieved,
		History:    history,
		Intent:     intent,
		Strategy:   req.ContextStrategy,
		MaxTokens:  req.MaxContextLength,
		MaxHistory: req.MaxHistoryMessages,
	})
	if err != nil {
		return conversationId, retrieved, nil, err
	}
	return conversationId, retrieved, window, nil
}

// promptMessages wraps the rendered prompt as a single user turn. The
// rendered text already carries the system instructions, documents and
// history in labeled sections.
func (s *Service) promptMessages(window *core.ContextWindow, query string) []ai.Message {
	return []ai.Message{{Role: ai.RoleUser, Content: s.builder.Render(window, query)}}
}

func (s *Service) persistTurn(conversationId, question, answer, finishReason string) {
	s.store.AddMessage(conversationId, core.RoleUser, question, nil)
	s.store.AddMessage(conversationId, core.RoleAssistant, answer, map[string]string{"finish_reason": finishReason})
}

// failedResponse records the failed outcome and converts the fault into a
// user-facing response. Nothing is persisted for a failed turn.
func (s *Service) failedResponse(conversationId string, retrieved *core.RetrievalContext, start time.Time, cause error) *ChatResponse {
	elapsed := time.Since(start)
	s.store.RecordOutcome(elapsed, false)

	return &ChatResponse{
		Success:        false,
		Message:        failureMessage,
		ConversationId: conversationId,
		ResponseTime:   elapsed,
		Retrieval:      retrieved,
		ModelUsed:      s.model,
		Timestamp:      time.Now(),
		ErrorMessage:   cause.Error(),
	}
}

func retrievedCount(retrieved *core.RetrievalContext) int {
	if retrieved == nil {
		return 0
	}
	return len(retrieved.Chunks)
}
