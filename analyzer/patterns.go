package analyzer

import (
	"regexp"

	"github.com/poiesic/docent/core"
)

// intentPatterns map query phrasing to intents. Categories are checked in
// order and the first match wins, so broad interrogative cues outrank the
// more specific verbs further down.
var intentPatterns = []struct {
	intent   core.Intent
	patterns []*regexp.Regexp
}{
	{core.IntentQuestion, compileAll(
		`\bwhat\b`, `\bhow\b`, `\bwhy\b`, `\bwhere\b`, `\bwho\b`, `\bwhen\b`, `\bwhich\b`, `\?`,
	)},
	{core.IntentSearch, compileAll(
		`\bfind\b`, `\bsearch\b`, `\blook up\b`, `\blocate\b`, `\bretrieve\b`,
	)},
	{core.IntentSummary, compileAll(
		`\bsummar`, `\boverview\b`, `\brecap\b`, `\boutline\b`, `\bdigest\b`,
	)},
	{core.IntentComparison, compileAll(
		`\bcompar`, `\bversus\b`, `\bvs\b`, `\bdifferen`, `\bsimilarit`,
	)},
	{core.IntentAnalysis, compileAll(
		`\banaly`, `\bevaluat`, `\bexplain\b`, `\bassess`, `\binterpret`,
	)},
	{core.IntentRecommendation, compileAll(
		`\brecommend`, `\bsuggest`, `\badvi[cs]e\b`, `\bbest way\b`, `\bwhich one\b`,
	)},
}

// complexityTerms are stems so inflected forms still match
// (analyze, analysis, analytical all contain "analy").
var complexityTerms = []string{
	"analy", "compar", "evaluat", "explain", "summar", "synthes", "contrast", "differen",
}

// logicalConnectives signal multi-clause queries. Matched as whole tokens.
var logicalConnectives = []string{
	"and", "or", "but", "however", "therefore", "because", "if", "then",
}

// Entity extraction patterns, applied in order.
var (
	quotedPattern  = regexp.MustCompile(`"([^"]+)"`)
	namePattern    = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)+\b`)
	acronymPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]+\b`)
	yearPattern    = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

// documentCategories map category names to the keywords that hint at them.
// Order is the tie-break for equal scores.
var documentCategories = []struct {
	name  string
	terms []string
}{
	{"tech-docs", []string{"technical", "api", "development", "programming", "system", "architecture"}},
	{"research", []string{"research", "report", "analysis", "data", "survey"}},
	{"manual", []string{"manual", "guide", "operation", "usage", "instructions"}},
	{"academic", []string{"paper", "academic", "journal", "research", "experiment"}},
	{"business", []string{"business", "finance", "marketing", "plan", "contract"}},
	{"legal", []string{"legal", "regulation", "contract", "agreement", "clause"}},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		compiled[i] = regexp.MustCompile(expr)
	}
	return compiled
}
