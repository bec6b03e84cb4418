package analyzer

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

const (
	maxKeywords            = 10
	maxEntities            = 10
	maxSuggestedCategories = 3
)

// Analyzer classifies queries and suggests retrieval parameters.
// The deterministic pass always produces a result; an optional generator
// refines it with a structured model assessment.
type Analyzer struct {
	generator ai.Generator
	logger    *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithGenerator enables the model-assisted enhancement pass.
func WithGenerator(generator ai.Generator) Option {
	return func(a *Analyzer) error {
		a.generator = generator
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// New creates a query analyzer.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		logger: slog.Default().With("component", "analyzer"),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Analyze builds a QueryAnalysis for the query. The deterministic pass never
// fails; when a generator is configured its assessment is merged in, and an
// enhancement failure leaves the deterministic result standing.
func (a *Analyzer) Analyze(ctx context.Context, query string) *core.QueryAnalysis {
	query = strings.TrimSpace(query)
	if query == "" {
		return defaultAnalysis(query)
	}

	analysis := deterministicAnalysis(query)

	if a.generator != nil {
		enhanced, err := a.requestEnhancement(ctx, query)
		if err != nil {
			a.logger.Warn("query enhancement failed", "query", core.TextPrefix(query, 50), "err", err)
		} else {
			mergeEnhancement(analysis, enhanced)
		}
	}

	analysis.SuggestedCategories = SuggestCategories(query, analysis.Keywords)

	a.logger.Debug("query analyzed",
		"intent", analysis.Intent,
		"complexity", analysis.ComplexityScore,
		"keywords", len(analysis.Keywords))

	return analysis
}

// SuggestCategories returns up to three document categories likely to hold
// answers for the query, scored by keyword overlap. A category scores 2 when
// one of its terms appears in the query and 1 for each extracted keyword
// that overlaps a term.
func SuggestCategories(query string, keywords []string) []string {
	lower := strings.ToLower(query)
	lowered := make([]string, len(keywords))
	for i, keyword := range keywords {
		lowered[i] = strings.ToLower(keyword)
	}

	type scoredCategory struct {
		name  string
		score int
	}
	candidates := make([]scoredCategory, 0, len(documentCategories))

	for _, category := range documentCategories {
		score := 0
		for _, term := range category.terms {
			if strings.Contains(lower, term) {
				score += 2
			}
			for _, keyword := range lowered {
				if strings.Contains(keyword, term) || strings.Contains(term, keyword) {
					score++
				}
			}
		}
		if score > 0 {
			candidates = append(candidates, scoredCategory{category.name, score})
		}
	}

	// Stable sort keeps declaration order for equal scores
	slices.SortStableFunc(candidates, func(a, b scoredCategory) int {
		return b.score - a.score
	})

	suggested := make([]string, 0, maxSuggestedCategories)
	for _, candidate := range candidates {
		suggested = append(suggested, candidate.name)
		if len(suggested) == maxSuggestedCategories {
			break
		}
	}
	return suggested
}

// deterministicAnalysis runs the pattern-based pass.
func deterministicAnalysis(query string) *core.QueryAnalysis {
	complexity := assessComplexity(query)
	return &core.QueryAnalysis{
		OriginalQuery:           query,
		Intent:                  detectIntent(query),
		Keywords:                extractKeywords(query),
		Entities:                extractEntities(query),
		QueryType:               "factual",
		ComplexityScore:         complexity,
		RequiresContext:         true,
		SuggestedRetrievalCount: suggestedCount(complexity),
	}
}

// defaultAnalysis is the conservative result for empty queries.
func defaultAnalysis(query string) *core.QueryAnalysis {
	return &core.QueryAnalysis{
		OriginalQuery:           query,
		Intent:                  core.IntentQuestion,
		Keywords:                []string{},
		Entities:                []string{},
		QueryType:               "factual",
		ComplexityScore:         0.5,
		RequiresContext:         true,
		SuggestedRetrievalCount: 5,
	}
}

// detectIntent returns the intent of the first matching pattern category,
// defaulting to question.
func detectIntent(query string) core.Intent {
	lower := strings.ToLower(query)
	for _, group := range intentPatterns {
		for _, pattern := range group.patterns {
			if pattern.MatchString(lower) {
				return group.intent
			}
		}
	}
	return core.IntentQuestion
}

// assessComplexity scores query complexity in [0,1] from length, question
// marks, complex vocabulary, and logical connectives.
func assessComplexity(query string) float64 {
	complexity := 0.0

	// Length factor, capped at 0.3
	complexity += math.Min(float64(len(query))/100, 0.3)

	// Question marks, capped at 0.2
	questionMarks := strings.Count(query, "?")
	complexity += math.Min(0.1*float64(questionMarks), 0.2)

	lower := strings.ToLower(query)
	for _, term := range complexityTerms {
		if strings.Contains(lower, term) {
			complexity += 0.1
		}
	}

	tokens := make(map[string]bool)
	for _, word := range strings.Fields(lower) {
		tokens[strings.Trim(word, ".,!?;:'\"-()[]{}")] = true
	}
	for _, connective := range logicalConnectives {
		if tokens[connective] {
			complexity += 0.15
		}
	}

	return core.Clamp01(complexity)
}

// suggestedCount maps complexity to a retrieval count.
func suggestedCount(complexity float64) int {
	switch {
	case complexity > 0.8:
		return 8
	case complexity > 0.6:
		return 6
	case complexity > 0.4:
		return 4
	default:
		return 3
	}
}

// extractKeywords returns up to maxKeywords distinct filtered terms in
// query order.
func extractKeywords(query string) []string {
	seen := make(map[string]bool)
	keywords := make([]string, 0, maxKeywords)
	for _, term := range core.Tokenize(query) {
		if seen[term] {
			continue
		}
		seen[term] = true
		keywords = append(keywords, term)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// extractEntities pulls quoted phrases, proper names, acronyms, and years
// out of the query, deduplicated in extraction order.
func extractEntities(query string) []string {
	seen := make(map[string]bool)
	entities := make([]string, 0, 4)

	add := func(value string) {
		if value == "" || seen[value] || len(entities) >= maxEntities {
			return
		}
		seen[value] = true
		entities = append(entities, value)
	}

	for _, match := range quotedPattern.FindAllStringSubmatch(query, -1) {
		add(match[1])
	}
	for _, pattern := range []*regexp.Regexp{namePattern, acronymPattern, yearPattern} {
		for _, match := range pattern.FindAllString(query, -1) {
			add(match)
		}
	}

	return entities
}
