package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs, which keeps
// reprocessing idempotent.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkType identifies the segmentation strategy that produced a chunk.
type ChunkType int

const (
	// ChunkTypeFull is a single chunk covering the whole document.
	ChunkTypeFull ChunkType = iota + 1
	// ChunkTypeTimeWindow is a fixed-duration window of a timestamped transcript.
	ChunkTypeTimeWindow
	// ChunkTypeSpeakerTurn is a run of consecutive lines by one speaker.
	ChunkTypeSpeakerTurn
	// ChunkTypeTopicSegment is a paragraph-accumulated segment (fallback).
	ChunkTypeTopicSegment
)

// String returns the stored label for the chunk type.
func (t ChunkType) String() string {
	switch t {
	case ChunkTypeFull:
		return "full"
	case ChunkTypeTimeWindow:
		return "time_window"
	case ChunkTypeSpeakerTurn:
		return "speaker_turn"
	case ChunkTypeTopicSegment:
		return "topic_segment"
	default:
		return "unknown"
	}
}

// EntityType categorizes a structured fact extracted from text.
type EntityType int

const (
	// EntityTypePerson is a participant or mentioned person.
	EntityTypePerson EntityType = iota + 1
	// EntityTypeDecision is an explicit decision statement.
	EntityTypeDecision
	// EntityTypeActionItem is a committed follow-up.
	EntityTypeActionItem
	// EntityTypeRisk is a stated risk, concern or blocker.
	EntityTypeRisk
	// EntityTypeDate is a calendar reference.
	EntityTypeDate
	// EntityTypeTopic is a frequency-derived subject keyword.
	EntityTypeTopic
)

// String returns the stored label for the entity type.
func (t EntityType) String() string {
	switch t {
	case EntityTypePerson:
		return "person"
	case EntityTypeDecision:
		return "decision"
	case EntityTypeActionItem:
		return "action_item"
	case EntityTypeRisk:
		return "risk"
	case EntityTypeDate:
		return "date"
	case EntityTypeTopic:
		return "topic"
	default:
		return "unknown"
	}
}

// RelationshipType identifies how two chunks relate.
type RelationshipType int

const (
	// RelationSequential links a chunk to its immediate neighbor in document order.
	RelationSequential RelationshipType = iota + 1
	// RelationSpeakerContinuity links chunks sharing a speaker.
	RelationSpeakerContinuity
	// RelationTopicSimilarity links chunks sharing topic labels.
	RelationTopicSimilarity
	// RelationParentChild links a full-document chunk to its parts.
	RelationParentChild
)

// DocumentState tracks a document's progress through the processing pipeline.
type DocumentState int

const (
	// DocumentStateNew means the document record exists but nothing has run.
	DocumentStateNew DocumentState = iota + 1
	// DocumentStateFetched means the raw content is in the blob store.
	DocumentStateFetched
	// DocumentStateSegmented means chunks have been produced.
	DocumentStateSegmented
	// DocumentStateEmbedded means chunk vectors have been generated.
	DocumentStateEmbedded
	// DocumentStateIndexed means chunks are persisted and searchable.
	DocumentStateIndexed
	// DocumentStateFailed is the terminal failure state.
	DocumentStateFailed
)

// Document represents a source unit such as a meeting transcript or file.
// The raw text lives in the blob store under ContentKey; the document record
// carries only metadata and pipeline progress.
type Document struct {
	Id          ID
	Title       string
	SourceDate  time.Time // When the source meeting/file was produced
	ContentKey  string    // Blob store key holding the raw text
	WordCount   int
	Processed   bool
	ChunkCount  int
	State       DocumentState
	ProcessedAt time.Time // When processing last completed
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

// ExtractedEntity is a structured fact found in a chunk's text.
// Immutable once created; regenerated wholesale when a chunk is reprocessed.
type ExtractedEntity struct {
	Type       EntityType
	Value      string
	Confidence float32 // 0..1, derived from rule specificity
	ChunkId    ID
	Offset     int // Character offset of the match within the chunk
	Metadata   map[string]string
}

// Chunk is a bounded, possibly overlapping segment of a document's text.
// It is the unit of embedding and retrieval. A chunk may transiently exist
// without a vector; it is not searchable semantically until one is set.
type Chunk struct {
	Id             ID
	DocumentId     ID
	Position       int // Monotonic within the document, unique
	Type           ChunkType
	Content        string
	Speaker        string        // Optional speaker label for speaker-turn chunks
	StartOffset    time.Duration // Optional transcript time offsets
	EndOffset      time.Duration
	TokenCount     int
	Importance     float32 // 0..1 heuristic score
	Topics         []string
	Entities       []ExtractedEntity
	Vector         []float32 // Embedding vector (populated by the embedding stage)
	EmbeddingModel string
	PrevId         ID // Weak references: lookup only, no ownership
	NextId         ID
	ParentId       ID
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// ChunkRelationship is a directed, weighted edge between two chunks.
// Used for context expansion during retrieval, never for ownership.
type ChunkRelationship struct {
	FromId   ID
	ToId     ID
	Type     RelationshipType
	Strength float32 // 0..1
}

// TaskType identifies the kind of work a ProcessingTask carries.
type TaskType int

const (
	// TaskTypeSync processes a document discovered by batch sync.
	TaskTypeSync TaskType = iota + 1
	// TaskTypeVectorize re-embeds an already segmented document.
	TaskTypeVectorize
	// TaskTypeWebhookRetry reprocesses a document delivered via webhook.
	TaskTypeWebhookRetry
)

// TaskStatus is the lifecycle state of a ProcessingTask.
// Transitions are monotonic: pending -> processing -> completed | failed.
// A failed processing attempt below the retry ceiling returns the task to
// pending; completed and failed are terminal absent operator action.
type TaskStatus int

const (
	// TaskStatusPending means the task is waiting to be claimed.
	TaskStatusPending TaskStatus = iota + 1
	// TaskStatusProcessing means a worker holds the task under lease.
	TaskStatusProcessing
	// TaskStatusCompleted is the terminal success state.
	TaskStatusCompleted
	// TaskStatusFailed is the terminal failure state.
	TaskStatusFailed
)

// String returns the stored label for the task status.
func (s TaskStatus) String() string {
	switch s {
	case TaskStatusPending:
		return "pending"
	case TaskStatusProcessing:
		return "processing"
	case TaskStatusCompleted:
		return "completed"
	case TaskStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProcessingTask is a unit of queued, retryable work driving a document
// through the pipeline. Claimed tasks carry a lease so work from a crashed
// worker becomes reclaimable.
type ProcessingTask struct {
	Id          ID
	Type        TaskType
	DocumentId  ID
	Payload     string // Source reference or raw event payload, kept for inspection
	Status      TaskStatus
	Priority    int // Higher values are claimed first among due tasks
	Attempts    int
	LastError   string
	ScheduledAt time.Time // Earliest time the task may be claimed
	ClaimedBy   string    // Worker id holding the lease, empty when unclaimed
	LeaseUntil  time.Time // Lease expiry; an expired lease is reclaimable
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

// LeaseExpired reports whether the task's lease has lapsed at the given time.
func (t *ProcessingTask) LeaseExpired(now time.Time) bool {
	return t.Status == TaskStatusProcessing && now.After(t.LeaseUntil)
}

// Terminal reports whether the task is in a terminal state.
func (t *ProcessingTask) Terminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// SearchResult represents a ranked retrieval hit with optional adjacent context.
type SearchResult struct {
	Chunk    *Chunk
	Document *Document
	Score    float32
	Before   string // Adjacent-chunk context preceding the hit
	After    string // Adjacent-chunk context following the hit
}
