package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	chunk := Chunk{
		Id:          42,
		DocumentId:  7,
		Position:    3,
		Type:        ChunkTypeSpeakerTurn,
		Content:     "Alice: we decided to proceed with plan A",
		Speaker:     "Alice",
		StartOffset: 90 * time.Second,
		EndOffset:   150 * time.Second,
		TokenCount:  9,
		Importance:  0.85,
		Topics:      []string{"plan", "launch"},
		Entities: []ExtractedEntity{
			{
				Type:       EntityTypeDecision,
				Value:      "proceed with plan A",
				Confidence: 0.9,
				ChunkId:    42,
				Offset:     7,
				Metadata:   map[string]string{"cue": "decided"},
			},
		},
		Vector:         []float32{0.25, -1.5, 3.125, 0},
		EmbeddingModel: "embeddinggemma",
		PrevId:         41,
		NextId:         43,
		ParentId:       1,
		InsertedAt:     now,
		UpdatedAt:      now,
	}

	buf := make([]byte, ChunkMUS.Size(chunk))
	n := ChunkMUS.Marshal(chunk, buf)
	assert.Equal(t, len(buf), n, "marshal should fill the sized buffer exactly")

	decoded, n, err := ChunkMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, chunk, decoded)
}

func TestChunkMUS_VectorBitIdentical(t *testing.T) {
	// Values chosen to exercise exact float32 bit patterns.
	chunk := Chunk{
		Id:      1,
		Type:    ChunkTypeFull,
		Content: "x",
		Vector:  []float32{3.1415927, -0.0000001192, 1e-38, 3.4e38},
	}

	buf := make([]byte, ChunkMUS.Size(chunk))
	ChunkMUS.Marshal(chunk, buf)
	decoded, _, err := ChunkMUS.Unmarshal(buf)
	require.NoError(t, err)

	require.Len(t, decoded.Vector, len(chunk.Vector))
	for i := range chunk.Vector {
		assert.Equal(t, chunk.Vector[i], decoded.Vector[i], "component %d must round-trip bit-for-bit", i)
	}
}

func TestDocumentMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := Document{
		Id:          9,
		Title:       "Q3 planning",
		SourceDate:  now.Add(-24 * time.Hour),
		ContentKey:  "transcripts/q3-planning",
		WordCount:   1200,
		Processed:   true,
		ChunkCount:  14,
		State:       DocumentStateIndexed,
		ProcessedAt: now,
		InsertedAt:  now.Add(-time.Hour),
		UpdatedAt:   now,
	}

	buf := make([]byte, DocumentMUS.Size(doc))
	DocumentMUS.Marshal(doc, buf)
	decoded, _, err := DocumentMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestDocumentMUS_ZeroTimes(t *testing.T) {
	doc := Document{Id: 1, Title: "t", ContentKey: "k"}
	buf := make([]byte, DocumentMUS.Size(doc))
	DocumentMUS.Marshal(doc, buf)
	decoded, _, err := DocumentMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.True(t, decoded.ProcessedAt.IsZero(), "zero time must survive the round trip")
	assert.True(t, decoded.SourceDate.IsZero())
}

func TestTaskMUS_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	task := ProcessingTask{
		Id:          100,
		Type:        TaskTypeWebhookRetry,
		DocumentId:  9,
		Payload:     `{"transcript_id":"abc","event":"completed"}`,
		Status:      TaskStatusProcessing,
		Priority:    10,
		Attempts:    2,
		LastError:   "embedding service: timeout",
		ScheduledAt: now,
		ClaimedBy:   "worker-1",
		LeaseUntil:  now.Add(time.Minute),
		InsertedAt:  now.Add(-time.Minute),
		UpdatedAt:   now,
	}

	buf := make([]byte, TaskMUS.Size(task))
	TaskMUS.Marshal(task, buf)
	decoded, _, err := TaskMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, task, decoded)
}

func TestRelationshipMUS_RoundTrip(t *testing.T) {
	rel := ChunkRelationship{FromId: 3, ToId: 4, Type: RelationTopicSimilarity, Strength: 0.72}
	buf := make([]byte, RelationshipMUS.Size(rel))
	RelationshipMUS.Marshal(rel, buf)
	decoded, _, err := RelationshipMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, rel, decoded)
}

func TestMUS_TruncatedData(t *testing.T) {
	chunk := Chunk{Id: 1, Type: ChunkTypeFull, Content: "hello world"}
	buf := make([]byte, ChunkMUS.Size(chunk))
	ChunkMUS.Marshal(chunk, buf)

	_, _, err := ChunkMUS.Unmarshal(buf[:len(buf)/2])
	assert.Error(t, err, "truncated input must not decode silently")
}
