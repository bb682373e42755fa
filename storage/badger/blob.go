package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/minutia/storage"
)

// BlobStore implements storage.BlobStore for BadgerDB.
// Raw transcript content lives here, keyed by the owning document's
// ContentKey, so document records stay small.
type BlobStore struct {
	backend *Backend
}

var _ storage.BlobStore = (*BlobStore)(nil)

// NewBlobStore creates a new BlobStore.
func NewBlobStore(backend *Backend) *BlobStore {
	return &BlobStore{backend: backend}
}

// PutBlob stores data under key, replacing any previous value.
func (s *BlobStore) PutBlob(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return storage.ErrEmptyBlobKey
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeBlobKey(key), data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetBlob retrieves the data stored under key.
func (s *BlobStore) GetBlob(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, storage.ErrEmptyBlobKey
	}

	var data []byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeBlobKey(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	}, false)

	if err != nil {
		return nil, err
	}
	return data, nil
}

// DeleteBlob removes the blob under key. Missing keys are not an error.
func (s *BlobStore) DeleteBlob(ctx context.Context, key string) error {
	if key == "" {
		return storage.ErrEmptyBlobKey
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeBlobKey(key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListBlobs returns the keys under the given prefix, sorted.
func (s *BlobStore) ListBlobs(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeBlobKey(prefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		skip := len(blobPrefix) + 1
		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			keys = append(keys, string(key[skip:]))
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}
