package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

// Engine runs hybrid semantic and keyword search over the document store.
type Engine struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	vectors   storage.VectorIndex
	embedder  ai.Embedder
	scoring   ScoringPolicy
	cache     *searchCache
	history   *History
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithScoringPolicy replaces the keyword scoring policy.
// Default is TFLengthBoostPolicy.
func WithScoringPolicy(policy ScoringPolicy) Option {
	return func(e *Engine) error {
		if policy == nil {
			policy = TFLengthBoostPolicy{}
		}
		e.scoring = policy
		return nil
	}
}

// WithCache sizes the result cache.
// Default is 100 entries with a 5 minute TTL.
func WithCache(size int, ttl time.Duration) Option {
	return func(e *Engine) error {
		e.cache = newSearchCache(size, ttl)
		return nil
	}
}

// NewEngine creates a new search engine.
func NewEngine(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	vectors storage.VectorIndex,
	provider ai.AIProvider,
	opts ...Option,
) (*Engine, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	e := &Engine{
		documents: documents,
		chunks:    chunks,
		vectors:   vectors,
		embedder:  provider.Embedder(),
		scoring:   TFLengthBoostPolicy{},
		cache:     newSearchCache(defaultCacheSize, defaultCacheTTL),
		history:   newHistory(),
		logger:    slog.Default().With("component", "retrieval"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Search runs the hybrid retrieval pipeline for one request.
// Results are ranked by descending relevance and bounded by req.MaxResults.
func (e *Engine) Search(ctx context.Context, req *SearchRequest) (*core.RetrievalContext, error) {
	return e.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs the hybrid retrieval pipeline with monitoring.
// The monitor receives callbacks at each stage of the pipeline.
func (e *Engine) SearchWithMonitor(ctx context.Context, req *SearchRequest, monitor SearchMonitor) (*core.RetrievalContext, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	// 1. Validate the request before any work
	if err := req.validate(); err != nil {
		return nil, err
	}
	query := strings.TrimSpace(req.Query)
	start := time.Now()
	monitor.Start(query)

	// 2. Serve from cache when an identical search is still fresh
	key := cacheKey(req)
	if req.UseCache {
		if cached, ok := e.cache.Get(key); ok {
			e.logger.Debug("search cache hit", "query", query)
			monitor.CacheHit(query)
			e.history.Record(query, len(cached.Chunks))
			monitor.Finish(cached)
			return cached, nil
		}
	}

	// 3. Select candidate documents
	filters := req.Filters
	filters.IndexedOnly = true
	candidates, err := e.documents.ListDocuments(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("listing candidate documents: %w", err)
	}
	candidateIds := make([]core.ID, 0, len(candidates))
	for _, doc := range candidates {
		candidateIds = append(candidateIds, doc.Id)
	}
	monitor.AfterCandidateSelection(candidateIds)

	if len(candidates) == 0 {
		result := buildContext(query, nil, nil, start)
		e.history.Record(query, 0)
		monitor.Finish(result)
		return result, nil
	}

	// 4. Run the enabled passes concurrently. Each pass gathers twice the
	// requested count so fusion and filtering have material to discard.
	k := req.MaxResults * overfetchFactor
	semanticCh := make(chan []*core.RetrievedChunk, 1)
	keywordCh := make(chan []*core.RetrievedChunk, 1)

	if req.EnableSemantic {
		go func() {
			semanticCh <- e.semanticPass(ctx, query, k, candidateIds)
		}()
	} else {
		semanticCh <- nil
	}
	if req.EnableKeyword {
		go func() {
			keywordCh <- e.keywordPass(ctx, query, k, candidates)
		}()
	} else {
		keywordCh <- nil
	}

	semanticHits := <-semanticCh
	keywordHits := <-keywordCh
	monitor.AfterSemanticPass(semanticHits)
	monitor.AfterKeywordPass(keywordHits)

	// 5. Fuse the passes when both ran, otherwise take the single pass as-is
	bothRan := req.EnableSemantic && req.EnableKeyword
	var hits []*core.RetrievedChunk
	if bothRan {
		hits = fuseResults(semanticHits, keywordHits, req.SemanticWeight, req.KeywordWeight)
	} else {
		hits = slices.Concat(semanticHits, keywordHits)
	}
	monitor.AfterFusion(hits)

	// 6. Filter by final score
	if bothRan || req.FilterSingleMode {
		hits = filterByScore(hits, req.SimilarityThreshold)
	}

	// 7. Deduplicate, rank, truncate
	if req.Deduplicate {
		hits = DeduplicateChunks(hits)
	}
	rankChunks(hits)
	if len(hits) > req.MaxResults {
		hits = hits[:req.MaxResults]
	}

	// 8. Annotate results and assemble the context
	sources := enhanceResults(hits, candidates)
	if req.Highlight {
		highlightChunks(hits, core.Tokenize(query))
	}
	result := buildContext(query, hits, sources, start)

	e.history.Record(query, len(hits))
	if req.UseCache {
		e.cache.Add(key, result)
	}
	e.logger.Debug("search complete",
		"query", query,
		"candidates", len(candidates),
		"semanticHits", len(semanticHits),
		"keywordHits", len(keywordHits),
		"results", len(hits),
		"elapsed", result.Elapsed)
	monitor.Finish(result)

	return result, nil
}

// semanticPass embeds the query and finds the nearest chunks by vector
// distance. Failures degrade to an empty pass rather than failing the search.
func (e *Engine) semanticPass(ctx context.Context, query string, k int, candidates []core.ID) []*core.RetrievedChunk {
	embedding, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		e.logger.Warn("query embedding failed, skipping semantic pass", "err", err)
		return nil
	}
	if len(embedding) == 0 {
		e.logger.Warn("query embedding empty, skipping semantic pass")
		return nil
	}

	matches, err := e.vectors.Query(ctx, embedding, k, candidates)
	if err != nil {
		e.logger.Warn("vector query failed, skipping semantic pass", "err", err)
		return nil
	}

	hits := make([]*core.RetrievedChunk, 0, len(matches))
	for _, match := range matches {
		hits = append(hits, &core.RetrievedChunk{
			Id:         match.ChunkId,
			DocumentId: match.DocumentId,
			Text:       match.Text,
			Score:      core.Clamp01(1 - match.Distance),
			SearchType: core.SearchTypeSemantic,
			Metadata:   match.Metadata,
		})
	}
	return hits
}

// keywordPass scores every candidate chunk against the query keywords and
// returns the top k scoring chunks with their matching snippets.
func (e *Engine) keywordPass(ctx context.Context, query string, k int, candidates []*core.Document) []*core.RetrievedChunk {
	keywords := core.Tokenize(query)
	if len(keywords) == 0 {
		return nil
	}

	var hits []*core.RetrievedChunk
	for _, doc := range candidates {
		chunks, err := e.chunks.GetChunksByDocument(ctx, doc.Id, 0)
		if err != nil {
			e.logger.Warn("loading chunks for keyword pass", "documentId", doc.Id, "err", err)
			continue
		}
		for _, chunk := range chunks {
			score := e.scoring.Score(chunk.Text, keywords)
			if score <= 0 {
				continue
			}
			hits = append(hits, &core.RetrievedChunk{
				Id:         chunk.Id,
				DocumentId: chunk.DocumentId,
				Text:       chunk.Text,
				Score:      score,
				SearchType: core.SearchTypeKeyword,
				Snippets:   FindSnippets(chunk.Text, keywords, defaultSnippetLength),
				Metadata:   chunk.Metadata,
			})
		}
	}

	rankChunks(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Statistics reports aggregate numbers over the recorded search history.
func (e *Engine) Statistics() *Statistics {
	stats := e.history.Statistics()
	stats.CacheSize = e.cache.Len()
	return stats
}

// Suggest returns up to limit past queries starting with prefix,
// most recent first.
func (e *Engine) Suggest(prefix string, limit int) []string {
	return e.history.Suggest(prefix, limit)
}

// ClearCache drops every cached search result.
func (e *Engine) ClearCache() {
	e.cache.Purge()
	e.logger.Info("search cache cleared")
}
