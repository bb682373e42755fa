package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/minutia/core"
	"github.com/poiesic/minutia/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// Close releases repository resources. Chunk IDs are content-derived, so
// there is no sequence to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// ReplaceDocumentChunks atomically replaces a document's chunk set.
// Delete-then-insert in one transaction, so readers never observe a
// half-written document.
func (r *ChunkRepository) ReplaceDocumentChunks(ctx context.Context, docID core.ID, chunks []*core.Chunk, rels []core.ChunkRelationship) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteDocumentChunks(tx, docID); err != nil {
			return err
		}

		for _, chunk := range chunks {
			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
			posKey := makeChunkDocumentKey(docID, chunk.Position)
			if err := tx.Set(posKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}
		}

		for i := range rels {
			rel := &rels[i]
			if err := tx.Set(makeRelationshipKey(rel), storage.MarshalRelationship(rel)); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)
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

// GetChunksByDocument retrieves a document's chunks ordered by position.
func (r *ChunkRepository) GetChunksByDocument(ctx context.Context, docID core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialChunkDocumentKey(docID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

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

// GetRelationships retrieves the outgoing edges of a chunk.
func (r *ChunkRepository) GetRelationships(ctx context.Context, fromID core.ID) ([]core.ChunkRelationship, error) {
	var results []core.ChunkRelationship
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialRelationshipKey(fromID)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
				break
			}

			if err := iter.Item().Value(func(val []byte) error {
				rel, err := storage.UnmarshalRelationship(val)
				if err != nil {
					return err
				}
				results = append(results, *rel)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}, false)

	return results, err
}

// CandidatesByFilter scans chunk records matching the filter, up to limit.
// Corrupt records are skipped and logged, never fatal to the scan.
func (r *ChunkRepository) CandidatesByFilter(ctx context.Context, filter storage.Filter, limit int) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Documents are looked up at most once per scan for date filtering.
		docs := make(map[core.ID]*core.Document)
		needDoc := !filter.From.IsZero() || !filter.To.IsZero()

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}

			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				chunk, unmarshalErr = storage.UnmarshalChunk(val)
				return unmarshalErr
			})
			if err != nil {
				r.backend.logger.Warn("skipping corrupt chunk record", "key", string(iter.Item().Key()), "err", err)
				continue
			}

			var doc *core.Document
			if needDoc {
				cached, ok := docs[chunk.DocumentId]
				if !ok {
					cached, err = readDocument(tx, makeDocumentKey(chunk.DocumentId))
					if err != nil {
						return err
					}
					docs[chunk.DocumentId] = cached
				}
				doc = cached
			}

			if storage.MatchesChunk(filter, chunk, doc) {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteDocumentChunks removes all chunks and relationships of a document.
func (r *ChunkRepository) DeleteDocumentChunks(ctx context.Context, docID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteDocumentChunks(tx, docID); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// deleteDocumentChunks removes a document's chunks, position index entries
// and outgoing relationship edges within an open transaction. Every edge's
// FromId belongs to the document's own chunk set, so scanning per chunk id
// covers the whole edge set.
func deleteDocumentChunks(tx *badger.Txn, docID core.ID) error {
	startKey := makePartialChunkDocumentKey(docID)

	// Collect first: deleting while iterating invalidates the iterator.
	var posKeys [][]byte
	var chunkIDs []core.ID

	iter := tx.NewIterator(badger.DefaultIteratorOptions)
	for iter.Seek(startKey); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
			break
		}
		posKeys = append(posKeys, iter.Item().KeyCopy(nil))

		var chunkID core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			chunkID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			iter.Close()
			return err
		}
		chunkIDs = append(chunkIDs, chunkID)
	}
	iter.Close()

	for _, key := range posKeys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	for _, chunkID := range chunkIDs {
		if err := tx.Delete(makeChunkKey(chunkID)); err != nil {
			return err
		}
		if err := deleteRelationships(tx, chunkID); err != nil {
			return err
		}
	}
	return nil
}

// deleteRelationships removes the outgoing edges of one chunk.
func deleteRelationships(tx *badger.Txn, fromID core.ID) error {
	startKey := makePartialRelationshipKey(fromID)

	var keys [][]byte
	iter := tx.NewIterator(badger.DefaultIteratorOptions)
	for iter.Seek(startKey); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
			break
		}
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// readChunk reads a chunk from the transaction.
// Returns nil, nil when the key does not exist.
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
