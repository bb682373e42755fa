package ingest

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrTaskQueueRequired is returned when a task queue is not provided.
	ErrTaskQueueRequired = errors.New("task queue required")

	// ErrBlobStoreRequired is returned when a blob store is not provided.
	ErrBlobStoreRequired = errors.New("blob store required")

	// ErrSegmenterRequired is returned when a segmenter is not provided.
	ErrSegmenterRequired = errors.New("segmenter required")

	// ErrEmbedClientRequired is returned when an embedding client is not provided.
	ErrEmbedClientRequired = errors.New("embedding client required")

	// ErrSourceRequired is returned when syncing without a transcript source.
	ErrSourceRequired = errors.New("transcript source required")

	// ErrInvalidSignature is returned when a webhook payload fails HMAC
	// verification. No task is created for such payloads.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrDataIntegrity marks failures that retrying cannot fix, such as a
	// task whose document or blob no longer exists.
	ErrDataIntegrity = errors.New("data integrity error")
)
