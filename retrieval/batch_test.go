package retrieval

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchSearch_Validation(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	t.Run("empty batch", func(t *testing.T) {
		results, err := f.engine.BatchSearch(ctx, nil, nil, 0)
		require.NoError(t, err)
		assert.Nil(t, results)
	})

	t.Run("too many queries", func(t *testing.T) {
		queries := make([]string, maxBatchQueries+1)
		for i := range queries {
			queries[i] = fmt.Sprintf("query %d", i)
		}
		results, err := f.engine.BatchSearch(ctx, queries, nil, 0)
		require.ErrorIs(t, err, ErrTooManyQueries)
		assert.Nil(t, results)
	})
}

func TestBatchSearch_KeepsOrderAndIsolatesFailures(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.seed(t,
		&core.Document{Filename: "garnet.md", Category: "minerals"},
		&core.Chunk{Seq: 0, Text: "Garnet forms dense crystalline grains prized as abrasive grit."},
	)
	f.seed(t,
		&core.Document{Filename: "basalt.md", Category: "rocks"},
		&core.Chunk{Seq: 0, Text: "Basalt cools into hexagonal columns along volcanic shorelines."},
	)

	base := NewSearchRequest("unused")
	base.EnableSemantic = false
	base.FilterSingleMode = false

	queries := []string{"garnet abrasive", "", "basalt columns"}
	results, err := f.engine.BatchSearch(ctx, queries, base, 2)
	require.NoError(t, err)
	require.Len(t, results, len(queries))

	// Order follows the input queries
	for i, result := range results {
		assert.Equal(t, queries[i], result.Query)
	}

	require.NoError(t, results[0].Err)
	require.NotNil(t, results[0].Result)
	require.NotEmpty(t, results[0].Result.Chunks)
	assert.Contains(t, strings.ToLower(results[0].Result.Chunks[0].Text), "garnet")

	// The blank query fails alone without sinking the batch
	require.ErrorIs(t, results[1].Err, ErrEmptyQuery)
	assert.Nil(t, results[1].Result)

	require.NoError(t, results[2].Err)
	require.NotNil(t, results[2].Result)
	require.NotEmpty(t, results[2].Result.Chunks)
	assert.Contains(t, strings.ToLower(results[2].Result.Chunks[0].Text), "basalt")
}

func TestBatchSearch_DefaultsPerQuery(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.seed(t,
		&core.Document{Filename: "notes.md", Category: "notes"},
		&core.Chunk{Seq: 0, Text: "Field notes on sampling cadence and storage."},
	)

	queries := []string{"sampling cadence", "storage rotation", "unrelated topic"}
	results, err := f.engine.BatchSearch(ctx, queries, nil, 100)
	require.NoError(t, err)
	require.Len(t, results, len(queries))

	for _, result := range results {
		require.NoError(t, result.Err)
		require.NotNil(t, result.Result)
	}
}
