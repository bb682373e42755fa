package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/minutia/core"
	"github.com/poiesic/minutia/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{backend: backend}
}

// Close releases repository resources. Documents carry externally derived
// IDs, so there is no sequence to release.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutDocument inserts or replaces a document record.
func (r *DocumentRepository) PutDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(doc.Id)

		old, err := readDocument(tx, key)
		if err != nil {
			return err
		}

		now := r.backend.now()
		if old != nil {
			doc.InsertedAt = old.InsertedAt
		} else if doc.InsertedAt.IsZero() {
			doc.InsertedAt = now
		}
		doc.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}

		// Update date index if the source date moved
		if old != nil && !old.SourceDate.Equal(doc.SourceDate) {
			if err := tx.Delete(makeDocumentDateKey(old.SourceDate, old.Id)); err != nil {
				return err
			}
		}
		dateKey := makeDocumentDateKey(doc.SourceDate, doc.Id)
		if err := tx.Set(dateKey, storage.MarshalID(doc.Id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)

	return doc, err
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
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

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentsByDateRange retrieves documents within a source-date range.
func (r *DocumentRepository) GetDocumentsByDateRange(ctx context.Context, start, end time.Time) ([]*core.Document, error) {
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}

	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialDocumentDateKey(start)
		endKey := makePartialDocumentDateKey(end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) > 0 {
				break
			}

			var docID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				docID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			doc, err := readDocument(tx, makeDocumentKey(docID))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)

	return results, err
}

// GetRecentDocuments retrieves the N most recent documents, ordered by
// source date descending.
func (r *DocumentRepository) GetRecentDocuments(ctx context.Context, limit int) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		startKey := makePartialDocumentDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(documentDatePrefix + ":")

		count := 0
		for iter.Seek(startKey); iter.Valid() && count < limit; iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var docID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				docID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			doc, err := readDocument(tx, makeDocumentKey(docID))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
				count++
			}
		}
		return nil
	}, false)

	return results, err
}

// UpdateState advances a document's pipeline state.
func (r *DocumentRepository) UpdateState(ctx context.Context, id core.ID, state core.DocumentState) error {
	return r.mutate(id, func(doc *core.Document) {
		doc.State = state
	})
}

// MarkProcessed records a completed processing run.
func (r *DocumentRepository) MarkProcessed(ctx context.Context, id core.ID, chunkCount int, at time.Time) error {
	return r.mutate(id, func(doc *core.Document) {
		doc.Processed = true
		doc.ChunkCount = chunkCount
		doc.ProcessedAt = at
		doc.State = core.DocumentStateIndexed
	})
}

// mutate applies fn to a stored document inside one write transaction.
func (r *DocumentRepository) mutate(id core.ID, fn func(*core.Document)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		fn(doc)
		doc.UpdatedAt = r.backend.now()

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readDocument reads a document from the transaction.
// Returns nil, nil when the key does not exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}
