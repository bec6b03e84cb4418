package prompt

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/docent/core"
)

// Strategy controls the order of retrieved chunks in the document block.
type Strategy string

const (
	// StrategySimple keeps chunks in retrieval order.
	StrategySimple Strategy = "simple"
	// StrategyRanked orders chunks by descending relevance score.
	StrategyRanked Strategy = "ranked"
	// StrategyHierarchical orders chunks newest document first.
	StrategyHierarchical Strategy = "hierarchical"
	// StrategySummarized groups chunks by source file, best scored first
	// within each group.
	StrategySummarized Strategy = "summarized"
)

const (
	// DefaultMaxContextTokens bounds the assembled prompt size.
	DefaultMaxContextTokens = 4000

	// DefaultMaxHistoryMessages bounds how many conversation turns the
	// prompt carries.
	DefaultMaxHistoryMessages = 10
)

// BuildRequest describes one prompt to assemble. Query is required,
// everything else is optional.
type BuildRequest struct {
	Query      string
	Retrieved  *core.RetrievalContext // retrieval output, may be nil
	History    []core.ChatMessage     // prior turns, oldest first
	Intent     core.Intent            // picks the system prompt variant
	Strategy   Strategy               // default StrategyRanked
	MaxTokens  int                    // default DefaultMaxContextTokens
	MaxHistory int                    // default DefaultMaxHistoryMessages
}

// Builder assembles generation prompts from retrieval output and
// conversation history, keeping them inside a token budget.
type Builder struct {
	estimator TokenEstimator
	logger    *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithEstimator sets the token estimator.
// Default is HeuristicEstimator.
func WithEstimator(estimator TokenEstimator) Option {
	return func(b *Builder) error {
		if estimator == nil {
			estimator = HeuristicEstimator{}
		}
		b.estimator = estimator
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// New creates a prompt Builder.
func New(opts ...Option) (*Builder, error) {
	b := &Builder{
		estimator: HeuristicEstimator{},
		logger:    slog.Default().With("component", "prompt"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Build assembles a context window for one generation turn. When the full
// prompt would exceed the token budget, only the document block shrinks;
// system instructions, history and the question stay intact.
func (b *Builder) Build(req *BuildRequest) (*core.ContextWindow, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = StrategyRanked
	}
	budget := req.MaxTokens
	if budget <= 0 {
		budget = DefaultMaxContextTokens
	}
	maxHistory := req.MaxHistory
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistoryMessages
	}

	window := &core.ContextWindow{
		SystemPrompt: SystemPrompt(req.Intent),
		History:      recentHistory(req.History, maxHistory),
	}
	if req.Retrieved != nil {
		window.RetrievedText = documentBlock(req.Retrieved.Chunks, strategy)
		window.Sources = slices.Clone(req.Retrieved.Sources)
	}

	total := b.estimator.Estimate(b.Render(window, query))
	if total > budget && window.RetrievedText != "" {
		window.RetrievedText = b.shrinkDocuments(window.RetrievedText, total, budget)
		total = b.estimator.Estimate(b.Render(window, query))
	}
	window.EstimatedTokens = total

	return window, nil
}

// Render joins the window and query into the final prompt text. The document
// section is always present so the model knows when retrieval came up empty;
// the history section is omitted when there are no prior turns.
func (b *Builder) Render(window *core.ContextWindow, query string) string {
	documents := window.RetrievedText
	if documents == "" {
		documents = noDocumentsLine
	}

	parts := make([]string, 0, 5)
	parts = append(parts, systemLabel+"\n"+window.SystemPrompt)
	parts = append(parts, documentLabel+"\n"+documents)
	if lines := historyLines(window.History); lines != "" {
		parts = append(parts, historyLabel+"\n"+lines)
	}
	parts = append(parts, questionLabel+" "+query)
	parts = append(parts, answerDirective)
	return strings.Join(parts, "\n\n")
}

// documentBlock renders chunks as numbered document sections in strategy
// order.
func documentBlock(chunks []*core.RetrievedChunk, strategy Strategy) string {
	if len(chunks) == 0 {
		return ""
	}

	ordered := orderChunks(chunks, strategy)
	blocks := make([]string, 0, len(ordered))
	for i, chunk := range ordered {
		source := chunk.Metadata["filename"]
		if source == "" {
			source = "unknown"
		}
		blocks = append(blocks, fmt.Sprintf("Document %d:\nSource: %s\nRelevance: %.3f\nContent: %s",
			i+1, source, chunk.Score, chunk.Text))
	}
	return strings.Join(blocks, "\n\n")
}

// orderChunks returns the chunks in strategy order without mutating the
// input. Hierarchical order compares the created_at metadata, which is
// RFC 3339 and therefore sorts correctly as a string.
func orderChunks(chunks []*core.RetrievedChunk, strategy Strategy) []*core.RetrievedChunk {
	ordered := slices.Clone(chunks)
	switch strategy {
	case StrategyRanked:
		slices.SortStableFunc(ordered, func(a, b *core.RetrievedChunk) int {
			return cmp.Compare(b.Score, a.Score)
		})
	case StrategyHierarchical:
		slices.SortStableFunc(ordered, func(a, b *core.RetrievedChunk) int {
			return strings.Compare(b.Metadata["created_at"], a.Metadata["created_at"])
		})
	case StrategySummarized:
		slices.SortStableFunc(ordered, func(a, b *core.RetrievedChunk) int {
			if c := strings.Compare(a.Metadata["filename"], b.Metadata["filename"]); c != 0 {
				return c
			}
			return cmp.Compare(b.Score, a.Score)
		})
	}
	return ordered
}

// recentHistory keeps the most recent limit messages.
func recentHistory(history []core.ChatMessage, limit int) []core.ChatMessage {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return slices.Clone(history)
}

// historyLines renders prior turns as "role: content" lines.
func historyLines(history []core.ChatMessage) string {
	if len(history) == 0 {
		return ""
	}

	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, msg.Role.String()+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// shrinkDocuments truncates the document block so the whole prompt fits the
// budget. The share of lines kept is the share of the budget left after the
// fixed parts.
func (b *Builder) shrinkDocuments(block string, total, budget int) string {
	blockTokens := b.estimator.Estimate(block)
	available := budget - (total - blockTokens)
	if available <= 0 {
		b.logger.Debug("document block dropped", "budget", budget, "estimated", total)
		return ""
	}

	lines := strings.Split(block, "\n")
	keep := len(lines) * available / blockTokens
	if keep < 1 {
		keep = 1
	}
	b.logger.Debug("document block truncated",
		"budget", budget,
		"estimated", total,
		"keptLines", keep,
		"totalLines", len(lines))
	return strings.Join(lines[:keep], "\n")
}
