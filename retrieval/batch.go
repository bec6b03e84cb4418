package retrieval

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/docent/core"
)

const (
	// maxBatchQueries bounds how many queries one batch may carry.
	maxBatchQueries = 50

	defaultBatchConcurrency = 5
	maxBatchConcurrency     = 20
)

// BatchResult is the outcome of one query in a batch search.
type BatchResult struct {
	Query  string
	Result *core.RetrievalContext
	Err    error
}

// BatchSearch runs one search per query with bounded concurrency. The base
// request supplies every parameter except the query; pass nil for defaults.
// Results keep query order. A failed query is flagged in its entry and does
// not fail the batch.
func (e *Engine) BatchSearch(ctx context.Context, queries []string, base *SearchRequest, maxConcurrent int) ([]BatchResult, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	if len(queries) > maxBatchQueries {
		return nil, fmt.Errorf("%w: %d queries, limit is %d", ErrTooManyQueries, len(queries), maxBatchQueries)
	}
	if maxConcurrent < 1 {
		maxConcurrent = defaultBatchConcurrency
	}
	if maxConcurrent > maxBatchConcurrency {
		maxConcurrent = maxBatchConcurrency
	}

	results := make([]BatchResult, len(queries))
	group := new(errgroup.Group)
	group.SetLimit(maxConcurrent)

	for i, query := range queries {
		group.Go(func() error {
			var req *SearchRequest
			if base == nil {
				req = NewSearchRequest(query)
			} else {
				req = base.withQuery(query)
			}
			result, err := e.Search(ctx, req)
			results[i] = BatchResult{Query: query, Result: result, Err: err}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
