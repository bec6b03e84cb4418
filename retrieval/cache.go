package retrieval

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/poiesic/docent/core"
)

const (
	defaultCacheSize = 100
	defaultCacheTTL  = 5 * time.Minute
)

// searchCache holds recent search results, bounded by size and entry age.
type searchCache struct {
	entries *expirable.LRU[core.ID, *core.RetrievalContext]
}

func newSearchCache(size int, ttl time.Duration) *searchCache {
	return &searchCache{
		entries: expirable.NewLRU[core.ID, *core.RetrievalContext](size, nil, ttl),
	}
}

func (c *searchCache) Get(key core.ID) (*core.RetrievalContext, bool) {
	return c.entries.Get(key)
}

func (c *searchCache) Add(key core.ID, result *core.RetrievalContext) {
	c.entries.Add(key, result)
}

func (c *searchCache) Len() int {
	return c.entries.Len()
}

func (c *searchCache) Purge() {
	c.entries.Purge()
}

// cacheKey derives a stable identity from every request field that affects
// the result. Two requests with the same key are interchangeable.
func cacheKey(req *SearchRequest) core.ID {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(req.Query)))
	fmt.Fprintf(&b, "|n=%d|t=%.4f|kw=%.3f|sw=%.3f|sem=%t|key=%t|dedup=%t|single=%t|mark=%t",
		req.MaxResults, req.SimilarityThreshold,
		req.KeywordWeight, req.SemanticWeight,
		req.EnableSemantic, req.EnableKeyword,
		req.Deduplicate, req.FilterSingleMode, req.Highlight)
	for _, id := range req.Filters.Ids {
		fmt.Fprintf(&b, "|id=%d", id)
	}
	for _, documentType := range req.Filters.Types {
		b.WriteString("|type=" + documentType)
	}
	for _, tag := range req.Filters.Tags {
		b.WriteString("|tag=" + tag)
	}
	if !req.Filters.After.IsZero() {
		fmt.Fprintf(&b, "|after=%d", req.Filters.After.UnixMicro())
	}
	if !req.Filters.Before.IsZero() {
		fmt.Fprintf(&b, "|before=%d", req.Filters.Before.UnixMicro())
	}
	return core.IDFromContent(b.String())
}
