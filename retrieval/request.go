package retrieval

import (
	"math"
	"strings"

	"github.com/poiesic/docent/storage"
)

const (
	defaultMaxResults     = 10
	defaultThreshold      = 0.7
	defaultKeywordWeight  = 0.3
	defaultSemanticWeight = 0.7

	// weightTolerance is how far keyword + semantic weights may drift
	// from 1.0 before the request is rejected.
	weightTolerance = 0.01

	// overfetchFactor controls how many raw hits each pass gathers
	// relative to the requested result count, so fusion and filtering
	// have enough material to work with.
	overfetchFactor = 2
)

// SearchRequest configures a single hybrid search.
type SearchRequest struct {
	// Query is the text to search for.
	Query string

	// MaxResults bounds how many chunks the search returns.
	MaxResults int

	// SimilarityThreshold drops results whose final score falls below it.
	SimilarityThreshold float64

	// Filters restricts which documents are candidates.
	Filters storage.DocumentFilters

	// EnableSemantic runs the vector similarity pass.
	EnableSemantic bool

	// EnableKeyword runs the keyword scoring pass.
	EnableKeyword bool

	// KeywordWeight and SemanticWeight blend the two pass scores when
	// both passes are enabled. They must sum to 1.0.
	KeywordWeight  float64
	SemanticWeight float64

	// Deduplicate collapses results that share the same leading text.
	Deduplicate bool

	// FilterSingleMode applies the similarity threshold even when only
	// one search pass ran.
	FilterSingleMode bool

	// UseCache consults and populates the engine's result cache.
	UseCache bool

	// Highlight wraps keyword matches in the result text with <mark> tags.
	Highlight bool
}

// NewSearchRequest returns a request for query with both passes enabled
// and the standard weights, threshold and result count.
func NewSearchRequest(query string) *SearchRequest {
	return &SearchRequest{
		Query:               query,
		MaxResults:          defaultMaxResults,
		SimilarityThreshold: defaultThreshold,
		EnableSemantic:      true,
		EnableKeyword:       true,
		KeywordWeight:       defaultKeywordWeight,
		SemanticWeight:      defaultSemanticWeight,
		Deduplicate:         true,
		FilterSingleMode:    true,
		UseCache:            true,
	}
}

func (r *SearchRequest) validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrEmptyQuery
	}
	if r.MaxResults < 1 {
		return ErrInvalidResultCount
	}
	if r.SimilarityThreshold < 0 || r.SimilarityThreshold > 1 {
		return ErrInvalidThreshold
	}
	if !r.EnableSemantic && !r.EnableKeyword {
		return ErrNoSearchMode
	}
	if r.EnableSemantic && r.EnableKeyword {
		if math.Abs(r.KeywordWeight+r.SemanticWeight-1.0) > weightTolerance {
			return ErrInvalidWeights
		}
	}
	return nil
}

func (r *SearchRequest) withQuery(query string) *SearchRequest {
	clone := *r
	clone.Query = query
	return &clone
}
