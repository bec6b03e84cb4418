package storage

import (
	"context"
	"time"

	"github.com/poiesic/docent/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentFilters narrows a catalog listing. Zero values mean "no filter".
type DocumentFilters struct {
	Ids         []core.ID // restrict to these documents
	Types       []string  // source formats: txt, md, pdf...
	Tags        []string  // at least one tag must match
	After       time.Time // CreatedAt >= After
	Before      time.Time // CreatedAt < Before
	IndexedOnly bool      // only documents whose chunks are fully embedded
}

// DocumentRepository provides operations for the document catalog.
type DocumentRepository interface {
	Repository

	// AddDocument adds a document to the catalog.
	// For documents with ID=0, generates a new ID from sequence.
	// Sets InsertedAt if not already set.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing ones).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// ListDocuments returns catalog entries matching the filters.
	ListDocuments(ctx context.Context, filters DocumentFilters) ([]*core.Document, error)

	// MarkIndexed flags a document as fully embedded and searchable.
	// Returns ErrNotFound if the document doesn't exist.
	MarkIndexed(ctx context.Context, id core.ID) error

	// DeleteDocument removes a document from the catalog.
	// Chunks are removed separately through the ChunkRepository.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error

	// CountDocuments returns the number of catalog entries.
	CountDocuments(ctx context.Context) (int, error)
}

// ChunkRepository provides operations for stored document chunks.
type ChunkRepository interface {
	Repository

	// AddChunks stores one or more chunks.
	// Chunk IDs are content-based (ChunkIdentity of document and text);
	// chunks with ID=0 get theirs assigned here. Sets CreatedAt if unset.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunksByDocument retrieves a document's chunks in sequence order.
	// A limit <= 0 returns all of them.
	GetChunksByDocument(ctx context.Context, documentId core.ID, limit int) ([]*core.Chunk, error)

	// DeleteChunksByDocument removes all chunks belonging to a document.
	DeleteChunksByDocument(ctx context.Context, documentId core.ID) error
}

// VectorIndex answers nearest-neighbor queries over chunk embeddings.
type VectorIndex interface {
	// Query returns up to k chunk matches ordered by ascending distance
	// (distance = 1 - cosine similarity). A non-empty documentIds set
	// restricts matches to chunks of those documents. Chunks without an
	// embedding never match.
	Query(ctx context.Context, vector []float32, k int, documentIds []core.ID) ([]*core.VectorMatch, error)

	// Upsert stores the embedding for a chunk.
	// Returns ErrNotFound if the chunk doesn't exist.
	Upsert(ctx context.Context, chunkId core.ID, vector []float32) error

	// DeleteByDocument drops all embeddings belonging to a document.
	DeleteByDocument(ctx context.Context, documentId core.ID) error
}

// IndexStats summarizes a keyword index.
type IndexStats struct {
	Documents  uint64
	Categories int
}

// KeywordIndex maps keywords and categories to documents.
type KeywordIndex interface {
	// IndexDocument registers a document under its keywords and category.
	// Indexing the same document again replaces the previous entry.
	IndexDocument(ctx context.Context, doc *core.Document, keywords []string) error

	// ByKeywords returns ids of documents matching any keyword, ordered by
	// how well they match, up to limit.
	ByKeywords(ctx context.Context, keywords []string, limit int) ([]core.ID, error)

	// ByCategory returns ids of documents in any of the given categories.
	ByCategory(ctx context.Context, categories []string, limit int) ([]core.ID, error)

	// RemoveDocument drops a document from the index.
	RemoveDocument(ctx context.Context, id core.ID) error

	// Stats reports index size information.
	Stats(ctx context.Context) (*IndexStats, error)

	// Close releases index resources.
	Close() error
}
