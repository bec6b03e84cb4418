package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

const (
	defaultBatchSize   = 32
	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond

	// maxDocumentKeywords bounds how many terms represent a document in
	// the keyword index.
	maxDocumentKeywords = 12
)

// Pipeline registers documents and embeds their chunks in the background.
// Registration persists the document and chunk records synchronously;
// embedding, vector upserts and keyword indexing run on a worker pool.
type Pipeline struct {
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	vectors   storage.VectorIndex
	keywords  storage.KeywordIndex
	embedder  ai.Embedder

	pool     *ants.Pool
	wg       sync.WaitGroup
	progress *Progress

	batchSize   int
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for background embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size, ants.WithNonblocking(true))
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithKeywordIndex registers finished documents in a keyword index.
func WithKeywordIndex(keywords storage.KeywordIndex) Option {
	return func(p *Pipeline) error {
		p.keywords = keywords
		return nil
	}
}

// WithProgress reports per-chunk embedding progress to the tracker.
func WithProgress(progress *Progress) Option {
	return func(p *Pipeline) error {
		p.progress = progress
		return nil
	}
}

// WithBatchSize sets how many chunks go to the embedder per call.
// Values below one fall back to the default.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = defaultBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithRetry tunes the embedding retry policy. Attempts below one are
// clamped to a single attempt.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			maxAttempts = 1
		}
		if baseDelay < 0 {
			baseDelay = 0
		}
		p.maxAttempts = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingest pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	vectors storage.VectorIndex,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents:   documents,
		chunks:      chunks,
		vectors:     vectors,
		embedder:    provider.Embedder(),
		pool:        pool,
		batchSize:   defaultBatchSize,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		logger:      slog.Default().With("component", "ingest"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.pool.Release()
			return nil, err
		}
	}

	return p, nil
}

// RegisterDocument validates and persists a document with its chunk texts,
// then schedules the chunks for embedding. The returned document carries
// its assigned id; it becomes searchable once the background embedding
// finishes and marks it indexed. Blank chunk texts are dropped.
func (p *Pipeline) RegisterDocument(ctx context.Context, doc *core.Document, chunkTexts []string) (*core.Document, error) {
	if doc != nil && doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(chunkTexts))
	for _, text := range chunkTexts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		texts = append(texts, text)
	}
	if len(texts) == 0 {
		return nil, ErrNoChunks
	}

	doc.Indexed = false
	doc.ChunkCount = len(texts)
	added, err := p.documents.AddDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{DocumentId: added.Id, Seq: i, Text: text}
	}
	stored, err := p.chunks.AddChunks(ctx, chunks...)
	if err != nil {
		return nil, err
	}

	p.logger.Info("document registered",
		"documentId", added.Id,
		"filename", added.Filename,
		"chunks", len(stored))

	p.submit(func() {
		p.embedDocument(context.Background(), added, stored)
	})

	return added, nil
}

// submit hands a job to the pool, falling back to the caller's goroutine
// when the pool is saturated or released.
func (p *Pipeline) submit(job func()) {
	p.wg.Add(1)
	wrapped := func() {
		defer p.wg.Done()
		job()
	}
	if err := p.pool.Submit(wrapped); err != nil {
		wrapped()
	}
}

// embedDocument embeds the document's chunks batch by batch and, once all
// of them carry vectors, marks the document indexed and registers it in
// the keyword index. A failed batch leaves the document unindexed.
func (p *Pipeline) embedDocument(ctx context.Context, doc *core.Document, chunks []*core.Chunk) {
	start := time.Now()

	for i := 0; i < len(chunks); i += p.batchSize {
		batch := chunks[i:min(i+p.batchSize, len(chunks))]
		if err := p.embedBatch(ctx, batch); err != nil {
			p.logger.Error("embedding batch failed",
				"documentId", doc.Id,
				"batchStart", i,
				"err", err)
			p.progressFail(len(chunks) - i)
			return
		}
		p.progressAdd(len(batch))
	}

	if err := p.documents.MarkIndexed(ctx, doc.Id); err != nil {
		p.logger.Error("marking document indexed failed", "documentId", doc.Id, "err", err)
		return
	}

	if p.keywords != nil {
		if err := p.keywords.IndexDocument(ctx, doc, documentKeywords(chunks)); err != nil {
			p.logger.Warn("keyword indexing failed", "documentId", doc.Id, "err", err)
		}
	}

	p.logger.Info("document indexed",
		"documentId", doc.Id,
		"chunks", len(chunks),
		"elapsed", time.Since(start))
}

// embedBatch embeds one batch with retry and stores the vectors.
func (p *Pipeline) embedBatch(ctx context.Context, batch []*core.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	var vectors [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		embedded, err := p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		vectors = embedded
		return nil
	}, p.maxAttempts, p.retryDelay)
	if err != nil {
		return err
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedding result mismatch: expected %d, received %d", len(batch), len(vectors))
	}

	for i, chunk := range batch {
		if err := p.vectors.Upsert(ctx, chunk.Id, vectors[i]); err != nil {
			return fmt.Errorf("storing vector for chunk %d: %w", chunk.Id, err)
		}
	}
	return nil
}

func (p *Pipeline) progressAdd(n int) {
	if p.progress != nil {
		p.progress.Add(n)
	}
}

func (p *Pipeline) progressFail(n int) {
	if p.progress != nil {
		p.progress.Fail(n)
	}
}

// documentKeywords picks the most frequent content terms across the
// document's chunks for the keyword index.
func documentKeywords(chunks []*core.Chunk) []string {
	counts := make(map[string]int)
	for _, chunk := range chunks {
		for _, term := range core.Tokenize(chunk.Text) {
			counts[term]++
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	slices.SortFunc(terms, func(a, b string) int {
		if c := counts[b] - counts[a]; c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	if len(terms) > maxDocumentKeywords {
		terms = terms[:maxDocumentKeywords]
	}
	return terms
}

// Wait blocks until every scheduled embedding job has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Close waits for in-flight work and releases the worker pool.
// The pipeline must not be used after Close.
func (p *Pipeline) Close() {
	p.wg.Wait()
	if p.pool != nil {
		p.pool.Release()
	}
}
