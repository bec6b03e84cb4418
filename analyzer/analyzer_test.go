package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/ai/mock"
	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		a, err := New()
		require.NoError(t, err)
		assert.NotNil(t, a)
	})

	t.Run("with generator", func(t *testing.T) {
		a, err := New(WithGenerator(mock.NewMockGenerator()))
		require.NoError(t, err)
		assert.NotNil(t, a)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		a, err := New(WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, a)
	})

	t.Run("with custom logger", func(t *testing.T) {
		a, err := New(WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, a)
	})
}

func TestAnalyze_EmptyQuery(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	for _, query := range []string{"", "   ", "\n\t"} {
		analysis := a.Analyze(context.Background(), query)
		require.NotNil(t, analysis)
		assert.Equal(t, core.IntentQuestion, analysis.Intent)
		assert.InDelta(t, 0.5, analysis.ComplexityScore, 1e-9)
		assert.True(t, analysis.RequiresContext)
		assert.Equal(t, 5, analysis.SuggestedRetrievalCount)
		assert.Empty(t, analysis.Keywords)
		assert.Empty(t, analysis.Entities)
	}
}

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		query string
		want  core.Intent
	}{
		{"what is a vector index", core.IntentQuestion},
		{"how does caching work", core.IntentQuestion},
		{"find documents about storage", core.IntentSearch},
		{"look up the deployment runbook", core.IntentSearch},
		{"summarize the quarterly report", core.IntentSummary},
		{"give me an overview of the architecture", core.IntentSummary},
		{"compare badger with bleve", core.IntentComparison},
		{"spark vs flink for batch jobs", core.IntentComparison},
		{"evaluate the tradeoffs of sharding", core.IntentAnalysis},
		{"analyze last month's incidents", core.IntentAnalysis},
		{"recommend a storage engine", core.IntentRecommendation},
		{"suggest an approach for backups", core.IntentRecommendation},
		{"tell me something interesting", core.IntentQuestion}, // default
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, detectIntent(tt.query))
		})
	}

	t.Run("question outranks later categories", func(t *testing.T) {
		assert.Equal(t, core.IntentQuestion, detectIntent("what is the difference between lists and arrays?"))
	})

	t.Run("search outranks summary", func(t *testing.T) {
		assert.Equal(t, core.IntentSearch, detectIntent("find and summarize the meeting notes"))
	})
}

func TestAssessComplexity(t *testing.T) {
	t.Run("short plain query", func(t *testing.T) {
		// Length 11 contributes 0.11, nothing else matches.
		assert.InDelta(t, 0.11, assessComplexity("what is RAG"), 1e-9)
	})

	t.Run("multi-clause analytical query", func(t *testing.T) {
		query := "Compare and evaluate the differences between vector and keyword search, and explain why hybrid retrieval performs better?"
		// Length cap 0.3 + question mark 0.1 + four complexity terms 0.4
		// + one connective 0.15.
		assert.InDelta(t, 0.95, assessComplexity(query), 1e-9)
	})

	t.Run("question marks capped", func(t *testing.T) {
		// Same length, one extra mark.
		one := assessComplexity("ok?.")
		two := assessComplexity("ok??")
		assert.InDelta(t, one+0.1, two, 1e-9)

		// Both beyond the 0.2 cap; only the length term differs.
		three := assessComplexity("ok???")
		four := assessComplexity("ok????")
		assert.InDelta(t, three+0.01, four, 1e-9)
	})

	t.Run("never exceeds one", func(t *testing.T) {
		query := "analyze compare evaluate explain summarize synthesize contrast difference and or but however therefore because if then ??????"
		assert.LessOrEqual(t, assessComplexity(query), 1.0)
	})
}

func TestSuggestedCount(t *testing.T) {
	tests := []struct {
		complexity float64
		want       int
	}{
		{0.9, 8},
		{0.81, 8},
		{0.8, 6},
		{0.7, 6},
		{0.6, 4},
		{0.5, 4},
		{0.4, 3},
		{0.1, 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, suggestedCount(tt.complexity), "complexity %v", tt.complexity)
	}
}

func TestExtractKeywords(t *testing.T) {
	t.Run("filters stop words", func(t *testing.T) {
		got := extractKeywords("What is the RAG pipeline architecture?")
		assert.Equal(t, []string{"rag", "pipeline", "architecture"}, got)
	})

	t.Run("deduplicates preserving order", func(t *testing.T) {
		got := extractKeywords("vector vector search vector")
		assert.Equal(t, []string{"vector", "search"}, got)
	})

	t.Run("caps at ten", func(t *testing.T) {
		got := extractKeywords("alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima")
		assert.Len(t, got, 10)
		assert.Equal(t, "alpha", got[0])
		assert.Equal(t, "juliet", got[9])
	})
}

func TestExtractEntities(t *testing.T) {
	t.Run("mixed entity classes", func(t *testing.T) {
		got := extractEntities(`Compare "vector search" with BM25 results from 2024 per John Smith`)
		assert.Equal(t, []string{"vector search", "John Smith", "BM25", "2024"}, got)
	})

	t.Run("acronyms", func(t *testing.T) {
		got := extractEntities("does the API use HNSW")
		assert.Equal(t, []string{"API", "HNSW"}, got)
	})

	t.Run("deduplicates", func(t *testing.T) {
		got := extractEntities("RAG versus RAG")
		assert.Equal(t, []string{"RAG"}, got)
	})

	t.Run("no entities", func(t *testing.T) {
		assert.Empty(t, extractEntities("plain lowercase words only"))
	})
}

func TestSuggestCategories(t *testing.T) {
	t.Run("scores query and keyword overlap", func(t *testing.T) {
		got := SuggestCategories("how do I use the api guide", []string{"api", "guide"})
		assert.Equal(t, []string{"tech-docs", "manual"}, got)
	})

	t.Run("caps at three", func(t *testing.T) {
		query := "research report on business contract law and api usage"
		keywords := []string{"research", "report", "business", "contract", "law", "api", "usage"}
		got := SuggestCategories(query, keywords)
		require.Len(t, got, 3)
		assert.Equal(t, "research", got[0])
		assert.Equal(t, "business", got[1])
	})

	t.Run("no matches", func(t *testing.T) {
		assert.Empty(t, SuggestCategories("hello there", nil))
	})
}

func TestAnalyze_Deterministic(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	analysis := a.Analyze(context.Background(), "what is RAG")
	require.NotNil(t, analysis)
	assert.Equal(t, "what is RAG", analysis.OriginalQuery)
	assert.Equal(t, core.IntentQuestion, analysis.Intent)
	assert.Equal(t, []string{"rag"}, analysis.Keywords)
	assert.Equal(t, []string{"RAG"}, analysis.Entities)
	assert.Equal(t, "factual", analysis.QueryType)
	assert.InDelta(t, 0.11, analysis.ComplexityScore, 1e-9)
	assert.True(t, analysis.RequiresContext)
	assert.Equal(t, 3, analysis.SuggestedRetrievalCount)
}

func TestAnalyze_WithEnhancement(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(_ context.Context, messages []ai.Message, opts ai.GenerationOptions) (*ai.GenerationResult, error) {
		assert.True(t, opts.JSONMode)
		assert.Zero(t, opts.Temperature)
		require.Len(t, messages, 2)
		assert.Equal(t, ai.RoleSystem, messages[0].Role)
		assert.Equal(t, "storage engines", messages[1].Content)
		return &ai.GenerationResult{
			Content: `{"intent": "comparison", "keywords": ["badger", "bleve"], "entities": ["LSM"], "query_type": "analytical", "complexity_score": 0.85, "requires_context": false, "suggested_retrieval_count": 9}`,
		}, nil
	}

	a, err := New(WithGenerator(gen))
	require.NoError(t, err)

	analysis := a.Analyze(context.Background(), "storage engines")
	require.NotNil(t, analysis)
	assert.Equal(t, core.IntentComparison, analysis.Intent)
	assert.Equal(t, []string{"storage", "engines", "badger", "bleve"}, analysis.Keywords)
	assert.Equal(t, []string{"LSM"}, analysis.Entities)
	assert.Equal(t, "analytical", analysis.QueryType)
	// Deterministic 0.15 averaged with the model's 0.85.
	assert.InDelta(t, 0.5, analysis.ComplexityScore, 1e-9)
	assert.False(t, analysis.RequiresContext)
	assert.Equal(t, 9, analysis.SuggestedRetrievalCount)
	assert.Equal(t, 1, gen.CallCount())
}

func TestAnalyze_EnhancementGenerateError(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(context.Context, []ai.Message, ai.GenerationOptions) (*ai.GenerationResult, error) {
		return nil, errors.New("provider offline")
	}

	a, err := New(WithGenerator(gen))
	require.NoError(t, err)

	analysis := a.Analyze(context.Background(), "what is caching")
	require.NotNil(t, analysis)
	assert.Equal(t, core.IntentQuestion, analysis.Intent)
	assert.Equal(t, []string{"caching"}, analysis.Keywords)
	assert.Equal(t, 1, gen.CallCount(), "generate errors are not retried")
}

func TestAnalyze_EnhancementMalformedResponse(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(context.Context, []ai.Message, ai.GenerationOptions) (*ai.GenerationResult, error) {
		return &ai.GenerationResult{Content: "no json here"}, nil
	}

	a, err := New(WithGenerator(gen))
	require.NoError(t, err)

	analysis := a.Analyze(context.Background(), "what is caching")
	require.NotNil(t, analysis)
	assert.Equal(t, core.IntentQuestion, analysis.Intent)
	assert.Equal(t, []string{"caching"}, analysis.Keywords)
	assert.Equal(t, enhancementAttempts, gen.CallCount(), "parse failures are retried")
}

func TestAnalyze_EnhancementFencedResponse(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(context.Context, []ai.Message, ai.GenerationOptions) (*ai.GenerationResult, error) {
		return &ai.GenerationResult{Content: "```json\n{\"intent\": \"search\"}\n```"}, nil
	}

	a, err := New(WithGenerator(gen))
	require.NoError(t, err)

	analysis := a.Analyze(context.Background(), "storage engines")
	assert.Equal(t, core.IntentSearch, analysis.Intent)
}

func TestMergeEnhancement(t *testing.T) {
	base := func() *core.QueryAnalysis {
		return &core.QueryAnalysis{
			Intent:                  core.IntentQuestion,
			Keywords:                []string{"alpha"},
			QueryType:               "factual",
			ComplexityScore:         0.4,
			RequiresContext:         true,
			SuggestedRetrievalCount: 3,
		}
	}

	t.Run("invalid intent ignored", func(t *testing.T) {
		analysis := base()
		mergeEnhancement(analysis, &enhancement{Intent: "chitchat"})
		assert.Equal(t, core.IntentQuestion, analysis.Intent)
	})

	t.Run("retrieval count takes max and clamps", func(t *testing.T) {
		analysis := base()
		mergeEnhancement(analysis, &enhancement{SuggestedRetrievalCount: 15})
		assert.Equal(t, 10, analysis.SuggestedRetrievalCount)

		analysis = base()
		mergeEnhancement(analysis, &enhancement{SuggestedRetrievalCount: 2})
		assert.Equal(t, 3, analysis.SuggestedRetrievalCount)
	})

	t.Run("absent fields leave base untouched", func(t *testing.T) {
		analysis := base()
		mergeEnhancement(analysis, &enhancement{})
		assert.Equal(t, core.IntentQuestion, analysis.Intent)
		assert.Equal(t, []string{"alpha"}, analysis.Keywords)
		assert.InDelta(t, 0.4, analysis.ComplexityScore, 1e-9)
		assert.True(t, analysis.RequiresContext)
	})

	t.Run("keyword union caps at ten", func(t *testing.T) {
		analysis := base()
		llm := &enhancement{Keywords: []string{"b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}}
		mergeEnhancement(analysis, llm)
		assert.Len(t, analysis.Keywords, 10)
		assert.Equal(t, "alpha", analysis.Keywords[0])
	})
}
