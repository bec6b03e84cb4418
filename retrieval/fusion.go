package retrieval

import (
	"slices"
	"strings"
	"time"

	"github.com/poiesic/docent/core"
)

// fuseResults groups semantic and keyword hits by chunk identity. Chunks
// found by both passes get a weighted final score and become hybrid hits;
// chunks found by one pass keep their single-pass score.
func fuseResults(semantic, keyword []*core.RetrievedChunk, semanticWeight, keywordWeight float64) []*core.RetrievedChunk {
	type pair struct {
		semantic *core.RetrievedChunk
		keyword  *core.RetrievedChunk
	}
	pairs := make(map[core.ID]*pair, len(semantic)+len(keyword))
	order := make([]core.ID, 0, len(semantic)+len(keyword))

	collect := func(hits []*core.RetrievedChunk) {
		for _, hit := range hits {
			identity := hit.Identity()
			p, ok := pairs[identity]
			if !ok {
				p = &pair{}
				pairs[identity] = p
				order = append(order, identity)
			}
			switch hit.SearchType {
			case core.SearchTypeKeyword:
				if p.keyword == nil {
					p.keyword = hit
				}
			default:
				if p.semantic == nil {
					p.semantic = hit
				}
			}
		}
	}
	collect(semantic)
	collect(keyword)

	fused := make([]*core.RetrievedChunk, 0, len(order))
	for _, identity := range order {
		p := pairs[identity]
		switch {
		case p.semantic != nil && p.keyword != nil:
			hit := p.semantic
			hit.SemanticScore = p.semantic.Score
			hit.KeywordScore = p.keyword.Score
			hit.Score = p.semantic.Score*semanticWeight + p.keyword.Score*keywordWeight
			hit.SearchType = core.SearchTypeHybrid
			if len(hit.Snippets) == 0 {
				hit.Snippets = p.keyword.Snippets
			}
			fused = append(fused, hit)
		case p.semantic != nil:
			fused = append(fused, p.semantic)
		default:
			fused = append(fused, p.keyword)
		}
	}
	return fused
}

// filterByScore keeps hits whose final score meets the threshold.
func filterByScore(hits []*core.RetrievedChunk, threshold float64) []*core.RetrievedChunk {
	kept := make([]*core.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		if hit.Score >= threshold {
			kept = append(kept, hit)
		}
	}
	return kept
}

// DeduplicateChunks collapses hits that share the same leading text,
// keeping the first occurrence in the current order. Applying it twice
// yields the same result as applying it once.
func DeduplicateChunks(hits []*core.RetrievedChunk) []*core.RetrievedChunk {
	seen := make(map[string]bool, len(hits))
	deduped := make([]*core.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		key := core.TextPrefix(hit.Text, core.IdentityPrefixLen)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, hit)
	}
	return deduped
}

// rankChunks orders hits by descending score. Ties break by ascending
// document id, then chunk id, so equal-score output is deterministic.
func rankChunks(hits []*core.RetrievedChunk) {
	slices.SortFunc(hits, func(a, b *core.RetrievedChunk) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		case a.DocumentId != b.DocumentId:
			if a.DocumentId < b.DocumentId {
				return -1
			}
			return 1
		case a.Id != b.Id:
			if a.Id < b.Id {
				return -1
			}
			return 1
		}
		return 0
	})
}

// enhanceResults copies catalog fields onto each hit's metadata and returns
// the distinct source filenames in first-seen order.
func enhanceResults(hits []*core.RetrievedChunk, documents []*core.Document) []string {
	byId := make(map[core.ID]*core.Document, len(documents))
	for _, doc := range documents {
		byId[doc.Id] = doc
	}

	var sources []string
	seen := make(map[string]bool)
	for _, hit := range hits {
		doc, ok := byId[hit.DocumentId]
		if !ok {
			continue
		}
		if hit.Metadata == nil {
			hit.Metadata = make(map[string]string, 4)
		}
		setIfAbsent(hit.Metadata, "filename", doc.Filename)
		setIfAbsent(hit.Metadata, "title", doc.Title)
		setIfAbsent(hit.Metadata, "author", doc.Author)
		setIfAbsent(hit.Metadata, "type", doc.Type)
		setIfAbsent(hit.Metadata, "category", doc.Category)
		if !doc.CreatedAt.IsZero() {
			setIfAbsent(hit.Metadata, "created_at", doc.CreatedAt.Format(time.RFC3339))
		}
		if doc.Filename != "" && !seen[doc.Filename] {
			seen[doc.Filename] = true
			sources = append(sources, doc.Filename)
		}
	}
	return sources
}

func setIfAbsent(metadata map[string]string, key, value string) {
	if value == "" {
		return
	}
	if _, ok := metadata[key]; !ok {
		metadata[key] = value
	}
}

// highlightChunks stores a marked-up copy of each hit's text under the
// "highlight" metadata key.
func highlightChunks(hits []*core.RetrievedChunk, keywords []string) {
	if len(keywords) == 0 {
		return
	}
	for _, hit := range hits {
		if hit.Metadata == nil {
			hit.Metadata = make(map[string]string, 1)
		}
		hit.Metadata["highlight"] = HighlightText(hit.Text, keywords)
	}
}

func buildContext(query string, hits []*core.RetrievedChunk, sources []string, start time.Time) *core.RetrievalContext {
	contextLength := 0
	for _, hit := range hits {
		contextLength += len(hit.Text)
	}
	return &core.RetrievalContext{
		Query:         strings.TrimSpace(query),
		Chunks:        hits,
		TotalFound:    len(hits),
		Elapsed:       time.Since(start),
		ContextLength: contextLength,
		Sources:       sources,
	}
}
