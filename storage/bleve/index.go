package bleve

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

const (
	defaultSearchLimit = 50
	categoryFacetSize  = 1000
)

// Index maps keywords and categories to catalog documents, backed by a
// Bleve full-text index. Terms are matched exactly after lowercasing.
type Index struct {
	index bleve.Index
}

var _ storage.KeywordIndex = (*Index)(nil)

// indexEntry is the shape Bleve indexes per document.
type indexEntry struct {
	Keywords []string `json:"keywords"`
	Category string   `json:"category"`
}

func buildMapping() mapping.IndexMapping {
	m := bleve.NewIndexMapping()

	termField := bleve.NewTextFieldMapping()
	termField.Analyzer = keyword.Name
	termField.Store = false
	termField.IncludeInAll = false

	entry := bleve.NewDocumentMapping()
	entry.AddFieldMappingsAt("keywords", termField)
	entry.AddFieldMappingsAt("category", termField)
	m.DefaultMapping = entry

	return m
}

// Open opens a keyword index at path, creating it if missing.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildMapping())
	}
	if err != nil {
		return nil, err
	}
	return &Index{index: idx}, nil
}

// OpenMemory creates a transient in-memory keyword index.
func OpenMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, err
	}
	return &Index{index: idx}, nil
}

// IndexDocument registers a document under its keywords and category.
// Indexing the same document again replaces the previous entry.
func (x *Index) IndexDocument(ctx context.Context, doc *core.Document, keywords []string) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", core.ErrInvalidDocument)
	}
	if doc.Id == 0 {
		return fmt.Errorf("%w: document id is required", core.ErrInvalidDocument)
	}

	entry := indexEntry{
		Keywords: normalizeTerms(keywords),
		Category: strings.ToLower(strings.TrimSpace(doc.Category)),
	}
	return x.index.Index(formatID(doc.Id), entry)
}

// ByKeywords returns ids of documents matching any keyword, best match
// first. Documents matching more keywords score higher.
func (x *Index) ByKeywords(ctx context.Context, keywords []string, limit int) ([]core.ID, error) {
	return x.byTerms(ctx, "keywords", keywords, limit)
}

// ByCategory returns ids of documents in any of the given categories.
func (x *Index) ByCategory(ctx context.Context, categories []string, limit int) ([]core.ID, error) {
	return x.byTerms(ctx, "category", categories, limit)
}

func (x *Index) byTerms(ctx context.Context, field string, terms []string, limit int) ([]core.ID, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	queries := make([]query.Query, 0, len(terms))
	for _, term := range normalizeTerms(terms) {
		tq := bleve.NewTermQuery(term)
		tq.SetField(field)
		queries = append(queries, tq)
	}
	if len(queries) == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(queries...), limit, 0, false)
	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	ids := make([]core.ID, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, core.ID(id))
	}
	return ids, nil
}

// RemoveDocument drops a document from the index.
func (x *Index) RemoveDocument(ctx context.Context, id core.ID) error {
	return x.index.Delete(formatID(id))
}

// Stats reports index size information. Category counts come from a facet
// over the whole index.
func (x *Index) Stats(ctx context.Context) (*storage.IndexStats, error) {
	count, err := x.index.DocCount()
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), 0, 0, false)
	req.AddFacet("categories", bleve.NewFacetRequest("category", categoryFacetSize))
	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	categories := 0
	if facet, ok := res.Facets["categories"]; ok && facet.Terms != nil {
		for _, term := range facet.Terms.Terms() {
			if term.Term != "" {
				categories++
			}
		}
	}

	return &storage.IndexStats{
		Documents:  count,
		Categories: categories,
	}, nil
}

// Close releases index resources.
func (x *Index) Close() error {
	return x.index.Close()
}

func formatID(id core.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// normalizeTerms lowercases and trims terms, dropping empties.
func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		out = append(out, term)
	}
	return out
}
