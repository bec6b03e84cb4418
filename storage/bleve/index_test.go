package bleve

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func testDocument(id core.ID, category string) *core.Document {
	return &core.Document{
		Id:        id,
		Filename:  "doc.txt",
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
}

func TestIndexAndByKeywords(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexDocument(ctx, testDocument(1, "tech"), []string{"alpha", "beta"}))
	require.NoError(t, idx.IndexDocument(ctx, testDocument(2, "tech"), []string{"alpha"}))
	require.NoError(t, idx.IndexDocument(ctx, testDocument(3, "science"), []string{"gamma"}))

	ids, err := idx.ByKeywords(ctx, []string{"alpha", "beta"}, 10)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	// Matching both terms outranks matching one
	assert.Equal(t, core.ID(1), ids[0])
	assert.Equal(t, core.ID(2), ids[1])
}

func TestByKeywords_CaseInsensitive(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexDocument(ctx, testDocument(1, ""), []string{"Kubernetes"}))

	ids, err := idx.ByKeywords(ctx, []string{"kubernetes"}, 10)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	ids, err = idx.ByKeywords(ctx, []string{"KUBERNETES"}, 10)
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

func TestByKeywords_NoTerms(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	ids, err := idx.ByKeywords(ctx, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = idx.ByKeywords(ctx, []string{"", "   "}, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestByCategory(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexDocument(ctx, testDocument(1, "tech"), nil))
	require.NoError(t, idx.IndexDocument(ctx, testDocument(2, "science"), nil))
	require.NoError(t, idx.IndexDocument(ctx, testDocument(3, "tech"), nil))

	ids, err := idx.ByCategory(ctx, []string{"tech"}, 10)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	ids, err = idx.ByCategory(ctx, []string{"tech", "science"}, 10)
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	ids, err = idx.ByCategory(ctx, []string{"history"}, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestReindexReplacesEntry(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	doc := testDocument(1, "tech")
	require.NoError(t, idx.IndexDocument(ctx, doc, []string{"old"}))
	require.NoError(t, idx.IndexDocument(ctx, doc, []string{"new"}))

	ids, err := idx.ByKeywords(ctx, []string{"old"}, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = idx.ByKeywords(ctx, []string{"new"}, 10)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestRemoveDocument(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexDocument(ctx, testDocument(1, "tech"), []string{"alpha"}))
	require.NoError(t, idx.RemoveDocument(ctx, 1))

	ids, err := idx.ByKeywords(ctx, []string{"alpha"}, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStats(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexDocument(ctx, testDocument(1, "tech"), []string{"alpha"}))
	require.NoError(t, idx.IndexDocument(ctx, testDocument(2, "science"), []string{"beta"}))
	require.NoError(t, idx.IndexDocument(ctx, testDocument(3, "tech"), []string{"gamma"}))

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stats.Documents)
	assert.Equal(t, 2, stats.Categories)
}

func TestInvalidDocument(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.IndexDocument(ctx, nil, []string{"alpha"})
	assert.ErrorIs(t, err, core.ErrInvalidDocument)

	err = idx.IndexDocument(ctx, testDocument(0, "tech"), []string{"alpha"})
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
}

func TestOpenOnDisk(t *testing.T) {
	path := t.TempDir() + "/keywords"
	ctx := context.Background()

	idx, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, idx.IndexDocument(ctx, testDocument(1, "tech"), []string{"alpha"}))
	require.NoError(t, idx.Close())

	// Reopen and verify the entry survived
	idx, err = Open(path)
	require.NoError(t, err)
	defer idx.Close()

	ids, err := idx.ByKeywords(ctx, []string{"alpha"}, 10)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}
