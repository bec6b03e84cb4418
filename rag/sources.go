package rag

import (
	"cmp"
	"context"
	"slices"

	"github.com/poiesic/docent/core"
)

// previewLength is how much chunk text a source attribution carries.
const previewLength = 100

// collectSources reduces retrieved chunks to one attribution per document,
// keeping each document's best-scoring chunk. Filenames come from chunk
// metadata, upgraded from the catalog when it knows better.
func (s *Service) collectSources(ctx context.Context, retrieved *core.RetrievalContext) []core.DocumentSource {
	if retrieved == nil || len(retrieved.Chunks) == 0 {
		return nil
	}

	best := make(map[core.ID]*core.RetrievedChunk, len(retrieved.Chunks))
	order := make([]core.ID, 0, len(retrieved.Chunks))
	for _, hit := range retrieved.Chunks {
		current, ok := best[hit.DocumentId]
		if !ok {
			best[hit.DocumentId] = hit
			order = append(order, hit.DocumentId)
			continue
		}
		if hit.Score > current.Score {
			best[hit.DocumentId] = hit
		}
	}

	sources := make([]core.DocumentSource, 0, len(order))
	for _, docId := range order {
		hit := best[docId]
		sources = append(sources, core.DocumentSource{
			DocumentId:     docId,
			Filename:       s.sourceFilename(ctx, docId, hit),
			ChunkId:        hit.Id,
			RelevanceScore: hit.Score,
			ContentPreview: core.TextPrefix(hit.Text, previewLength),
		})
	}

	slices.SortStableFunc(sources, func(a, b core.DocumentSource) int {
		return cmp.Compare(b.RelevanceScore, a.RelevanceScore)
	})
	return sources
}

// sourceFilename resolves a document's filename, preferring the catalog
// over chunk metadata.
func (s *Service) sourceFilename(ctx context.Context, docId core.ID, hit *core.RetrievedChunk) string {
	if s.documents != nil {
		if doc, err := s.documents.GetDocument(ctx, docId); err == nil && doc.Filename != "" {
			return doc.Filename
		}
	}
	if name := hit.Metadata["filename"]; name != "" {
		return name
	}
	return "unknown"
}
