package ingest

import (
	"context"
	"time"
)

// SourceTranscript is a transcript as delivered by an external system,
// before it becomes a Document.
type SourceTranscript struct {
	Ref        string // Stable external identifier, also the basis of the document ID
	Title      string
	SourceDate time.Time
	Content    string
}

// TranscriptSource lists and fetches transcripts from an external system.
// Implementations wrap whatever API the transcripts live behind.
type TranscriptSource interface {
	// ListRecent returns up to limit transcripts produced after since,
	// oldest first.
	ListRecent(ctx context.Context, since time.Time, limit int) ([]*SourceTranscript, error)

	// GetById fetches a single transcript by its external reference.
	GetById(ctx context.Context, ref string) (*SourceTranscript, error)
}

// SyncReport summarizes one SyncRecent pass.
type SyncReport struct {
	Listed  int // Transcripts returned by the source
	Created int // Documents created and enqueued
	Skipped int // Already known and processed
	Failed  int // Could not be stored or enqueued
}
