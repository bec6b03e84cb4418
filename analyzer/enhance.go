package analyzer

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
)

// enhancementAttempts bounds re-asks on malformed JSON responses.
const enhancementAttempts = 3

const analysisPrompt = `You are a query analysis expert. Analyze the user query and return a JSON object with exactly this shape:

{
    "intent": "question",
    "keywords": ["keyword1", "keyword2"],
    "entities": ["entity1"],
    "query_type": "factual",
    "complexity_score": 0.5,
    "requires_context": true,
    "suggested_retrieval_count": 5,
    "suggested_categories": ["category1"],
    "reasoning": "short justification"
}

intent is one of: question, search, summary, comparison, analysis, recommendation.
query_type is one of: factual, analytical, creative, procedural.
complexity_score is between 0 and 1, where 1 is most complex.
suggested_retrieval_count is an integer between 1 and 10.
suggested_categories lists document categories likely to contain the answer.
Return only the JSON object, no other text.`

// enhancement mirrors the JSON shape requested from the model.
type enhancement struct {
	Intent                  string   `json:"intent"`
	Keywords                []string `json:"keywords"`
	Entities                []string `json:"entities"`
	QueryType               string   `json:"query_type"`
	ComplexityScore         float64  `json:"complexity_score"`
	RequiresContext         *bool    `json:"requires_context"`
	SuggestedRetrievalCount int      `json:"suggested_retrieval_count"`
	SuggestedCategories     []string `json:"suggested_categories"`
	Reasoning               string   `json:"reasoning"`
}

// requestEnhancement asks the generator for a structured assessment of the
// query, retrying a bounded number of times when the response fails to parse.
func (a *Analyzer) requestEnhancement(ctx context.Context, query string) (*enhancement, error) {
	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: analysisPrompt},
		{Role: ai.RoleUser, Content: query},
	}
	opts := ai.GenerationOptions{Temperature: 0.0, JSONMode: true}

	var lastErr error
	for attempt := 0; attempt < enhancementAttempts; attempt++ {
		result, err := a.generator.Generate(ctx, messages, opts)
		if err != nil {
			return nil, err
		}

		// Strip markdown code fences and repair common JSON issues
		text := repairJSON(stripFences(result.Content))

		var parsed enhancement
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			lastErr = err
			a.logger.Warn("error parsing analysis response",
				"attempt", attempt+1,
				"response", text,
				"err", err)
			continue
		}
		return &parsed, nil
	}

	return nil, lastErr
}

// mergeEnhancement folds the model's assessment into the deterministic
// analysis. Intent and query type are overwritten when valid, keyword and
// entity lists are unioned, complexity is averaged, and the retrieval count
// takes the larger suggestion.
func mergeEnhancement(analysis *core.QueryAnalysis, llm *enhancement) {
	if intent := core.Intent(llm.Intent); validIntent(intent) {
		analysis.Intent = intent
	}
	if len(llm.Keywords) > 0 {
		analysis.Keywords = unionCapped(analysis.Keywords, llm.Keywords, maxKeywords)
	}
	if len(llm.Entities) > 0 {
		analysis.Entities = unionCapped(analysis.Entities, llm.Entities, maxEntities)
	}
	if llm.QueryType != "" {
		analysis.QueryType = llm.QueryType
	}
	if llm.ComplexityScore > 0 {
		analysis.ComplexityScore = core.Clamp01((analysis.ComplexityScore + llm.ComplexityScore) / 2)
	}
	if llm.RequiresContext != nil {
		analysis.RequiresContext = *llm.RequiresContext
	}
	if llm.SuggestedRetrievalCount > analysis.SuggestedRetrievalCount {
		analysis.SuggestedRetrievalCount = min(llm.SuggestedRetrievalCount, 10)
	}
}

func validIntent(intent core.Intent) bool {
	switch intent {
	case core.IntentQuestion, core.IntentSearch, core.IntentSummary,
		core.IntentComparison, core.IntentAnalysis, core.IntentRecommendation:
		return true
	}
	return false
}

// unionCapped merges two lists preserving first-seen order, dropping
// duplicates and empty strings, bounded by limit.
func unionCapped(base, extra []string, limit int) []string {
	seen := make(map[string]bool, len(base))
	merged := make([]string, 0, limit)
	for _, value := range slices.Concat(base, extra) {
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		merged = append(merged, value)
		if len(merged) == limit {
			break
		}
	}
	return merged
}
