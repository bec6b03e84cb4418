package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

// ChunkRepository implements storage.ChunkRepository and storage.VectorIndex
// for BadgerDB. Vector queries are a brute-force cosine scan over stored
// chunk embeddings.
type ChunkRepository struct {
	backend *Backend
}

var (
	_ storage.ChunkRepository = (*ChunkRepository)(nil)
	_ storage.VectorIndex     = (*ChunkRepository)(nil)
)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddChunks stores one or more chunks.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			// Content-based ID if not set
			if chunk.Id == 0 {
				chunk.Id = core.ChunkIdentity(chunk.DocumentId, chunk.Text)
			}
			if chunk.CreatedAt.IsZero() {
				chunk.CreatedAt = time.Now().UTC()
			}

			key := makeChunkKey(chunk.Id)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}

			// Per-document index ordered by sequence
			docKey := makeChunkDocumentKey(chunk.DocumentId, chunk.Seq)
			if err := tx.Set(docKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeChunkKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetChunksByDocument retrieves a document's chunks in sequence order.
func (r *ChunkRepository) GetChunksByDocument(ctx context.Context, documentId core.ID, limit int) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialChunkDocumentKey(documentId)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}
			if limit > 0 && len(results) >= limit {
				break
			}

			var chunkID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			chunk, err := readChunk(tx, makeChunkKey(chunkID))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteChunksByDocument removes all chunks belonging to a document.
func (r *ChunkRepository) DeleteChunksByDocument(ctx context.Context, documentId core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialChunkDocumentKey(documentId)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)

		var indexKeys [][]byte
		var chunkIDs []core.ID
		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			var chunkID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				iter.Close()
				return err
			}
			indexKeys = append(indexKeys, slices.Clone(key))
			chunkIDs = append(chunkIDs, chunkID)
		}
		iter.Close()

		for _, id := range chunkIDs {
			if err := tx.Delete(makeChunkKey(id)); err != nil {
				return err
			}
		}
		for _, key := range indexKeys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Query returns up to k chunk matches ordered by ascending distance.
// Implements storage.VectorIndex.
func (r *ChunkRepository) Query(ctx context.Context, vector []float32, k int, documentIds []core.ID) ([]*core.VectorMatch, error) {
	if len(vector) == 0 || k < 1 {
		return nil, storage.ErrInvalidQuery
	}

	docSet := make(map[core.ID]bool, len(documentIds))
	for _, id := range documentIds {
		docSet[id] = true
	}

	var results []*core.VectorMatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}

			// Skip chunks without embeddings
			if len(chunk.Vector) == 0 {
				continue
			}
			if len(docSet) > 0 && !docSet[chunk.DocumentId] {
				continue
			}

			similarity := core.CosineSimilarity(vector, chunk.Vector)
			results = append(results, &core.VectorMatch{
				ChunkId:    chunk.Id,
				DocumentId: chunk.DocumentId,
				Text:       chunk.Text,
				Distance:   1 - similarity,
				Metadata:   chunk.Metadata,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by distance ascending; chunk id as tie-break for determinism
	slices.SortFunc(results, func(a, b *core.VectorMatch) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		if a.ChunkId < b.ChunkId {
			return -1
		}
		if a.ChunkId > b.ChunkId {
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// Upsert stores the embedding for a chunk.
// Implements storage.VectorIndex.
func (r *ChunkRepository) Upsert(ctx context.Context, chunkId core.ID, vector []float32) error {
	if len(vector) == 0 {
		return storage.ErrEmptyVector
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkKey(chunkId)
		chunk, err := readChunk(tx, key)
		if err != nil {
			return err
		}
		if chunk == nil {
			return storage.ErrNotFound
		}

		chunk.Vector = vector
		if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteByDocument drops all embeddings belonging to a document.
// Implements storage.VectorIndex. The chunk records stay; only their vectors
// are cleared.
func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentId core.ID) error {
	chunks, err := r.GetChunksByDocument(ctx, documentId, 0)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if len(chunk.Vector) == 0 {
				continue
			}
			chunk.Vector = nil
			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readChunk reads a chunk from the transaction.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}
