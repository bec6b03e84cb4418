package rag

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/retrieval"
)

const (
	// keywordDocLimit bounds how many documents each index lookup returns.
	keywordDocLimit = 5

	// chunksPerIndexedDoc is how many leading chunks an index-matched
	// document contributes.
	chunksPerIndexedDoc = 2

	// fallbackThreshold is the conservative similarity cutoff used when
	// multi-strategy retrieval fails.
	fallbackThreshold = 0.7

	// neutralSimilarity stands in for hits that never went through the
	// vector index.
	neutralSimilarity = 0.5

	// freshnessHorizonDays is the age at which a document stops earning
	// freshness credit.
	freshnessHorizonDays = 365
)

// Blend weights for merged hits. Vector similarity dominates; keyword
// overlap and category affinity refine; freshness breaks near-ties.
const (
	blendSimilarityWeight = 0.4
	blendKeywordWeight    = 0.3
	blendCategoryWeight   = 0.2
	blendFreshnessWeight  = 0.1
)

// retrieveContext analyzes the message and retrieves supporting chunks.
// Retrieval never fails a turn: an internal fault degrades to one
// conservative hybrid search, and an empty outcome is returned as nil.
func (s *Service) retrieveContext(ctx context.Context, req *ChatRequest) (*core.RetrievalContext, core.Intent) {
	analysis := s.analyzer.Analyze(ctx, req.Message)

	retrieved, err := s.multiStrategyRetrieve(ctx, req, analysis)
	if err != nil {
		s.logger.Warn("multi-strategy retrieval failed, falling back",
			"query", core.TextPrefix(req.Message, 50),
			"err", err)
		retrieved = s.fallbackRetrieve(ctx, req)
	}
	return retrieved, analysis.Intent
}

// multiStrategyRetrieve merges three retrieval legs: the hybrid engine
// search tuned by the analysis, leading chunks of documents matching the
// analyzed keywords, and leading chunks of documents from the suggested
// categories. Merged hits are rescored with the blend weights and cut to
// the suggested count.
func (s *Service) multiStrategyRetrieve(ctx context.Context, req *ChatRequest, analysis *core.QueryAnalysis) (*core.RetrievalContext, error) {
	start := time.Now()

	count := analysis.SuggestedRetrievalCount
	if count < 1 {
		count = req.MaxRetrievedChunks
	}

	search := retrieval.NewSearchRequest(req.Message)
	search.MaxResults = count
	search.SimilarityThreshold = req.SimilarityThreshold
	retrieved, err := s.engine.Search(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}

	hits := slices.Clone(retrieved.Chunks)
	hits = append(hits, s.indexedDocumentChunks(ctx, analysis)...)
	merged := dedupByChunk(hits)
	if len(merged) == 0 {
		return nil, nil
	}

	blendScores(merged, analysis, time.Now())
	slices.SortStableFunc(merged, func(a, b *core.RetrievedChunk) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(merged) > count {
		merged = merged[:count]
	}

	contextLength := 0
	for _, hit := range merged {
		contextLength += len(hit.Text)
	}

	s.logger.Debug("multi-strategy retrieval finished",
		"hybridHits", len(retrieved.Chunks),
		"merged", len(merged),
		"elapsed", time.Since(start))

	return &core.RetrievalContext{
		Query:         req.Message,
		Chunks:        merged,
		TotalFound:    len(merged),
		Elapsed:       time.Since(start),
		ContextLength: contextLength,
		Sources:       distinctFilenames(merged),
	}, nil
}

// fallbackRetrieve is the conservative single hybrid search used when the
// multi-strategy path fails. Its own failure leaves the turn without
// context rather than failing it.
func (s *Service) fallbackRetrieve(ctx context.Context, req *ChatRequest) *core.RetrievalContext {
	search := retrieval.NewSearchRequest(req.Message)
	search.MaxResults = defaultRetrievedChunks
	search.SimilarityThreshold = fallbackThreshold

	retrieved, err := s.engine.Search(ctx, search)
	if err != nil {
		s.logger.Warn("fallback retrieval failed", "err", err)
		return nil
	}
	if len(retrieved.Chunks) == 0 {
		return nil
	}
	return retrieved
}

// indexedDocumentChunks runs the keyword and category legs. Both need the
// keyword index and chunk storage; a missing dependency or a failed lookup
// just skips the leg.
func (s *Service) indexedDocumentChunks(ctx context.Context, analysis *core.QueryAnalysis) []*core.RetrievedChunk {
	if s.keywords == nil || s.chunks == nil {
		return nil
	}

	var hits []*core.RetrievedChunk
	if len(analysis.Keywords) > 0 {
		ids, err := s.keywords.ByKeywords(ctx, analysis.Keywords, keywordDocLimit)
		if err != nil {
			s.logger.Warn("keyword index lookup failed", "err", err)
		} else {
			hits = append(hits, s.loadLeadingChunks(ctx, ids)...)
		}
	}
	if len(analysis.SuggestedCategories) > 0 {
		ids, err := s.keywords.ByCategory(ctx, analysis.SuggestedCategories, keywordDocLimit)
		if err != nil {
			s.logger.Warn("category index lookup failed", "err", err)
		} else {
			hits = append(hits, s.loadLeadingChunks(ctx, ids)...)
		}
	}
	return hits
}

// loadLeadingChunks turns the first chunks of each document into keyword
// hits with no similarity score; the blend pass scores them.
func (s *Service) loadLeadingChunks(ctx context.Context, ids []core.ID) []*core.RetrievedChunk {
	var hits []*core.RetrievedChunk
	for _, id := range ids {
		chunks, err := s.chunks.GetChunksByDocument(ctx, id, chunksPerIndexedDoc)
		if err != nil {
			s.logger.Warn("loading document chunks failed", "documentId", id, "err", err)
			continue
		}
		for _, chunk := range chunks {
			hits = append(hits, &core.RetrievedChunk{
				Id:         chunk.Id,
				DocumentId: chunk.DocumentId,
				Text:       chunk.Text,
				SearchType: core.SearchTypeKeyword,
				Metadata:   maps.Clone(chunk.Metadata),
			})
		}
	}
	return hits
}

// dedupByChunk keeps the first hit per chunk id. The hybrid leg comes
// first, so its scored hits win over index-derived duplicates.
func dedupByChunk(hits []*core.RetrievedChunk) []*core.RetrievedChunk {
	deduped := make([]*core.RetrievedChunk, 0, len(hits))
	seen := make(map[core.ID]bool, len(hits))
	for _, hit := range hits {
		if seen[hit.Id] {
			continue
		}
		seen[hit.Id] = true
		deduped = append(deduped, hit)
	}
	return deduped
}

// blendScores rescores every hit with the blend weights.
func blendScores(hits []*core.RetrievedChunk, analysis *core.QueryAnalysis, now time.Time) {
	categories := make(map[string]bool, len(analysis.SuggestedCategories))
	for _, c := range analysis.SuggestedCategories {
		categories[strings.ToLower(c)] = true
	}

	for _, hit := range hits {
		similarity := hit.Score
		if similarity == 0 {
			similarity = neutralSimilarity
		}

		category := 0.5
		if categories[strings.ToLower(hit.Metadata["category"])] {
			category = 1.0
		}

		hit.Score = core.Clamp01(similarity*blendSimilarityWeight +
			keywordOverlap(hit.Text, analysis.Keywords)*blendKeywordWeight +
			category*blendCategoryWeight +
			freshness(hit, now)*blendFreshnessWeight)
	}
}

// keywordOverlap is the share of analysis keywords present in the text.
func keywordOverlap(text string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matches++
		}
	}
	return float64(matches) / float64(len(keywords))
}

// freshness scores a hit by its document's age: a year or older earns
// nothing, unknown ages sit in the middle.
func freshness(hit *core.RetrievedChunk, now time.Time) float64 {
	created, err := time.Parse(time.RFC3339, hit.Metadata["created_at"])
	if err != nil {
		return 0.5
	}
	days := now.Sub(created).Hours() / 24
	if days < 0 {
		days = 0
	}
	score := 1 - days/freshnessHorizonDays
	if score < 0 {
		return 0
	}
	return score
}

// distinctFilenames collects source filenames in first-seen order.
func distinctFilenames(hits []*core.RetrievedChunk) []string {
	var filenames []string
	seen := make(map[string]bool, len(hits))
	for _, hit := range hits {
		name := hit.Metadata["filename"]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		filenames = append(filenames, name)
	}
	return filenames
}
