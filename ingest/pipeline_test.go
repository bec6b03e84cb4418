package ingest

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/docent/ai/mock"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage/badger"
	"github.com/poiesic/docent/storage/bleve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipelineFixture struct {
	pipeline *Pipeline
	docs     *badger.DocumentRepository
	chunks   *badger.ChunkRepository
	index    *bleve.Index
	embedder *mock.MockEmbedder
}

func newPipelineFixture(t *testing.T, opts ...Option) *pipelineFixture {
	t.Helper()
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	index, err := bleve.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		index.Close()
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	provider := mock.NewMockProviderWithServices("mock", embedder, mock.NewMockGenerator())

	opts = append([]Option{WithKeywordIndex(index)}, opts...)
	pipeline, err := NewPipeline(docRepo, chunkRepo, chunkRepo, provider, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Close)

	return &pipelineFixture{
		pipeline: pipeline,
		docs:     docRepo,
		chunks:   chunkRepo,
		index:    index,
		embedder: embedder,
	}
}

func TestNewPipeline(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	})
	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		pipeline, err := NewPipeline(docRepo, chunkRepo, chunkRepo, provider)
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Close()
	})

	t.Run("with options", func(t *testing.T) {
		pipeline, err := NewPipeline(docRepo, chunkRepo, chunkRepo, provider,
			WithPoolSize(2),
			WithBatchSize(8),
			WithRetry(1, 0),
			WithLogger(slog.Default()),
		)
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Close()
	})

	t.Run("nil options fall back to defaults", func(t *testing.T) {
		pipeline, err := NewPipeline(docRepo, chunkRepo, chunkRepo, provider,
			WithPoolSize(0),
			WithBatchSize(0),
			WithLogger(nil),
		)
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Close()
	})

	t.Run("nil document repository", func(t *testing.T) {
		_, err := NewPipeline(nil, chunkRepo, chunkRepo, provider)
		assert.Equal(t, ErrDocumentRepositoryRequired, err)
	})

	t.Run("nil chunk repository", func(t *testing.T) {
		_, err := NewPipeline(docRepo, nil, chunkRepo, provider)
		assert.Equal(t, ErrChunkRepositoryRequired, err)
	})

	t.Run("nil vector index", func(t *testing.T) {
		_, err := NewPipeline(docRepo, chunkRepo, nil, provider)
		assert.Equal(t, ErrVectorIndexRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewPipeline(docRepo, chunkRepo, chunkRepo, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestRegisterDocument(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	doc := &core.Document{Filename: "guide.md", Category: "guides"}
	added, err := f.pipeline.RegisterDocument(ctx, doc, []string{
		"Retrieval pipelines blend semantic and keyword passes.",
		"   ",
		"Retrieval quality depends on chunking and embeddings.",
	})
	require.NoError(t, err)
	require.NotZero(t, added.Id)
	assert.Equal(t, 2, added.ChunkCount)
	assert.False(t, added.CreatedAt.IsZero())

	f.pipeline.Wait()

	// Embedding finished, so the document is searchable
	indexed, err := f.docs.GetDocument(ctx, added.Id)
	require.NoError(t, err)
	assert.True(t, indexed.Indexed)

	chunks, err := f.chunks.GetChunksByDocument(ctx, added.Id, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Seq)
	assert.Equal(t, "Retrieval pipelines blend semantic and keyword passes.", chunks[0].Text)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Vector)
	}

	// The keyword index knows the document by its terms and category
	byKeyword, err := f.index.ByKeywords(ctx, []string{"retrieval"}, 5)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{added.Id}, byKeyword)

	byCategory, err := f.index.ByCategory(ctx, []string{"guides"}, 5)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{added.Id}, byCategory)
}

func TestRegisterDocument_Validation(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	t.Run("nil document", func(t *testing.T) {
		_, err := f.pipeline.RegisterDocument(ctx, nil, []string{"text"})
		assert.ErrorIs(t, err, core.ErrInvalidDocument)
	})

	t.Run("missing filename", func(t *testing.T) {
		_, err := f.pipeline.RegisterDocument(ctx, &core.Document{}, []string{"text"})
		assert.ErrorIs(t, err, core.ErrInvalidDocument)
	})

	t.Run("no chunks", func(t *testing.T) {
		_, err := f.pipeline.RegisterDocument(ctx, &core.Document{Filename: "empty.md"}, nil)
		assert.ErrorIs(t, err, ErrNoChunks)
	})

	t.Run("blank chunks only", func(t *testing.T) {
		_, err := f.pipeline.RegisterDocument(ctx, &core.Document{Filename: "blank.md"}, []string{"  ", "\n"})
		assert.ErrorIs(t, err, ErrNoChunks)
	})
}

func TestRegisterDocument_EmbeddingFailureLeavesUnindexed(t *testing.T) {
	progress := NewProgress(&discardWriter{}, 2, 1)
	progress.Start()

	f := newPipelineFixture(t, WithRetry(2, 0), WithProgress(progress))
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding host down")
	}
	ctx := context.Background()

	added, err := f.pipeline.RegisterDocument(ctx, &core.Document{Filename: "broken.md"}, []string{
		"first chunk", "second chunk",
	})
	require.NoError(t, err)

	f.pipeline.Wait()

	// The document and chunks exist but stay invisible to retrieval
	doc, err := f.docs.GetDocument(ctx, added.Id)
	require.NoError(t, err)
	assert.False(t, doc.Indexed)

	stats, err := f.index.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Documents)

	processed, failed := progress.Counts()
	assert.Zero(t, processed)
	assert.Equal(t, 2, failed)
}

func TestRegisterDocument_SmallBatches(t *testing.T) {
	f := newPipelineFixture(t, WithBatchSize(1))
	ctx := context.Background()

	added, err := f.pipeline.RegisterDocument(ctx, &core.Document{Filename: "batched.md"}, []string{
		"alpha chunk", "bravo chunk", "charlie chunk",
	})
	require.NoError(t, err)

	f.pipeline.Wait()

	doc, err := f.docs.GetDocument(ctx, added.Id)
	require.NoError(t, err)
	assert.True(t, doc.Indexed)
	// One embedder call per chunk
	assert.Equal(t, 3, f.embedder.CallCount())
}

func TestDocumentKeywords(t *testing.T) {
	chunks := []*core.Chunk{
		{Text: "Retrieval retrieval retrieval blends passes."},
		{Text: "The retrieval index stores keyword entries. Index entries grow."},
	}

	keywords := documentKeywords(chunks)
	require.NotEmpty(t, keywords)
	assert.Equal(t, "retrieval", keywords[0])
	assert.Contains(t, keywords, "index")
	assert.Contains(t, keywords, "entries")
	assert.NotContains(t, keywords, "the")
	assert.LessOrEqual(t, len(keywords), maxDocumentKeywords)
}

func TestPipelineClose(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	added, err := f.pipeline.RegisterDocument(ctx, &core.Document{Filename: "late.md"}, []string{"closing text"})
	require.NoError(t, err)

	// Close waits for the in-flight embedding; a second Close is a no-op
	f.pipeline.Close()
	f.pipeline.Close()

	doc, err := f.docs.GetDocument(ctx, added.Id)
	require.NoError(t, err)
	assert.True(t, doc.Indexed)
}

// discardWriter swallows progress output in tests.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
