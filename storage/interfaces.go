package storage

import (
	"context"
	"time"

	"github.com/poiesic/minutia/core"
)

// Repository provides common storage operations shared across all
// repositories. Implementations must be thread-safe and support concurrent
// access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// Filter narrows a chunk candidate scan by document metadata.
// Zero-valued fields are ignored; an empty filter matches everything.
type Filter struct {
	// From and To bound the owning document's source date, inclusive of
	// From, exclusive of To.
	From time.Time
	To   time.Time

	// Speaker matches a chunk's speaker label exactly.
	Speaker string

	// Topics matches chunks carrying at least one of the given labels.
	Topics []string

	// DocumentIds restricts candidates to the given documents.
	DocumentIds []core.ID
}

// Empty reports whether the filter matches everything.
func (f Filter) Empty() bool {
	return f.From.IsZero() && f.To.IsZero() && f.Speaker == "" &&
		len(f.Topics) == 0 && len(f.DocumentIds) == 0
}

// DocumentRepository provides operations for managing document records.
type DocumentRepository interface {
	Repository

	// PutDocument inserts or replaces a document record.
	// Sets InsertedAt on first write and UpdatedAt on every write.
	PutDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing ones).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// GetDocumentsByDateRange retrieves documents within a source-date range.
	// Returns documents where start <= SourceDate < end, ordered by date.
	GetDocumentsByDateRange(ctx context.Context, start, end time.Time) ([]*core.Document, error)

	// GetRecentDocuments retrieves the N most recent documents, ordered by
	// source date descending.
	GetRecentDocuments(ctx context.Context, limit int) ([]*core.Document, error)

	// UpdateState advances a document's pipeline state.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateState(ctx context.Context, id core.ID, state core.DocumentState) error

	// MarkProcessed records a completed processing run: chunk count,
	// processed flag and timestamp. Returns ErrNotFound if missing.
	MarkProcessed(ctx context.Context, id core.ID, chunkCount int, at time.Time) error
}

// ChunkRepository provides operations for managing chunks and their
// relationship graph.
type ChunkRepository interface {
	Repository

	// ReplaceDocumentChunks atomically replaces a document's full chunk set
	// and relationships with the given ones. Reprocessing a document is
	// idempotent: readers never observe a half-written chunk set.
	ReplaceDocumentChunks(ctx context.Context, docID core.ID, chunks []*core.Chunk, rels []core.ChunkRelationship) error

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunksByDocument retrieves a document's chunks ordered by position.
	GetChunksByDocument(ctx context.Context, docID core.ID) ([]*core.Chunk, error)

	// GetRelationships retrieves the outgoing edges of a chunk.
	GetRelationships(ctx context.Context, fromID core.ID) ([]core.ChunkRelationship, error)

	// CandidatesByFilter scans chunks matching the filter, up to limit.
	// A limit <= 0 means no limit. A corrupt chunk record is skipped, not
	// an error.
	CandidatesByFilter(ctx context.Context, filter Filter, limit int) ([]*core.Chunk, error)

	// DeleteDocumentChunks removes all chunks and relationships of a
	// document. Deleting a document with no chunks is not an error.
	DeleteDocumentChunks(ctx context.Context, docID core.ID) error
}

// TaskQueue is the durable work queue driving document processing.
// A task is claimed by exactly one worker at a time under a lease; an
// expired lease makes the task reclaimable so no work is silently lost.
type TaskQueue interface {
	Repository

	// Enqueue adds a task in pending state. For tasks with ID=0, generates
	// a new ID from sequence. Sets InsertedAt and ScheduledAt (now) if unset.
	Enqueue(ctx context.Context, task *core.ProcessingTask) (*core.ProcessingTask, error)

	// Claim atomically claims the highest-priority due task: a pending task
	// whose ScheduledAt has passed, or a processing task whose lease has
	// expired. The claimed task moves to processing with the worker id and
	// a lease deadline of now+lease, and its attempt counter incremented.
	// Returns nil, nil when no task is due.
	Claim(ctx context.Context, workerID string, now time.Time, lease time.Duration) (*core.ProcessingTask, error)

	// Complete marks a claimed task as completed.
	Complete(ctx context.Context, id core.ID) error

	// Fail marks a claimed task as permanently failed, recording the reason.
	Fail(ctx context.Context, id core.ID, reason string) error

	// Requeue returns a claimed task to pending, recording the reason and
	// the earliest time it may be claimed again.
	Requeue(ctx context.Context, id core.ID, reason string, runAt time.Time) error

	// GetTask retrieves a task by ID.
	// Returns ErrNotFound if the task doesn't exist.
	GetTask(ctx context.Context, id core.ID) (*core.ProcessingTask, error)

	// PurgeOlderThan deletes completed and failed tasks last updated before
	// the cutoff. Returns the number of tasks removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// BlobStore holds raw document content keyed by string.
type BlobStore interface {
	// PutBlob stores data under key, replacing any previous value.
	PutBlob(ctx context.Context, key string, data []byte) error

	// GetBlob retrieves the data stored under key.
	// Returns ErrNotFound if no blob exists.
	GetBlob(ctx context.Context, key string) ([]byte, error)

	// DeleteBlob removes the blob under key. Missing keys are not an error.
	DeleteBlob(ctx context.Context, key string) error

	// ListBlobs returns the keys under the given prefix, sorted.
	ListBlobs(ctx context.Context, prefix string) ([]string, error)
}
