package retrieval

import (
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	// historyCap is how many searches the history remembers before trimming.
	historyCap = 1000

	// historyKeep is how many of the most recent searches survive a trim.
	historyKeep = 500

	// popularQueryLimit bounds the popular-query list in statistics.
	popularQueryLimit = 10
)

// SearchRecord is one remembered search.
type SearchRecord struct {
	Query     string
	Results   int
	Timestamp time.Time
}

// History remembers recent searches to power statistics and suggestions.
// Safe for concurrent use.
type History struct {
	mu      sync.Mutex
	records []SearchRecord
	now     func() time.Time
}

func newHistory() *History {
	return &History{now: time.Now}
}

// Record appends one search. When the history grows past its cap, only the
// most recent half is kept.
func (h *History) Record(query string, results int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, SearchRecord{
		Query:     query,
		Results:   results,
		Timestamp: h.now(),
	})
	if len(h.records) > historyCap {
		h.records = slices.Clone(h.records[len(h.records)-historyKeep:])
	}
}

// Len reports how many searches are currently remembered.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

// QueryCount pairs a query with how often it was searched.
type QueryCount struct {
	Query string
	Count int
}

// Statistics summarizes the remembered searches.
type Statistics struct {
	// TotalSearches counts every remembered search.
	TotalSearches int

	// PopularQueries lists the most frequent queries, most frequent first.
	PopularQueries []QueryCount

	// DailyCounts maps days in time.DateOnly form to search counts.
	DailyCounts map[string]int

	// CacheSize is the number of live entries in the result cache.
	CacheSize int
}

// Statistics aggregates the remembered searches. CacheSize is left zero;
// the engine fills it in.
func (h *History) Statistics() *Statistics {
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := &Statistics{
		TotalSearches: len(h.records),
		DailyCounts:   make(map[string]int),
	}
	frequency := make(map[string]int)
	for _, record := range h.records {
		frequency[record.Query]++
		stats.DailyCounts[record.Timestamp.Format(time.DateOnly)]++
	}

	popular := make([]QueryCount, 0, len(frequency))
	for query, count := range frequency {
		popular = append(popular, QueryCount{Query: query, Count: count})
	}
	slices.SortStableFunc(popular, func(a, b QueryCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Query, b.Query)
	})
	if len(popular) > popularQueryLimit {
		popular = popular[:popularQueryLimit]
	}
	stats.PopularQueries = popular
	return stats
}

// Suggest returns up to limit distinct past queries starting with prefix,
// most recent first. Matching is case-insensitive.
func (h *History) Suggest(prefix string, limit int) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || limit < 1 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var suggestions []string
	seen := make(map[string]bool)
	for i := len(h.records) - 1; i >= 0 && len(suggestions) < limit; i-- {
		query := h.records[i].Query
		if seen[query] {
			continue
		}
		seen[query] = true
		if strings.HasPrefix(strings.ToLower(query), prefix) {
			suggestions = append(suggestions, query)
		}
	}
	return suggestions
}
