package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/minutia/ai/mock"
	"github.com/poiesic/minutia/core"
	"github.com/poiesic/minutia/embed"
	"github.com/poiesic/minutia/segment"
	"github.com/poiesic/minutia/storage"
	"github.com/poiesic/minutia/storage/badger"
)

var ingestBase = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

const syncTranscript = `[00:00] Alice: Welcome to the weekly sync meeting everyone.
[00:15] Bob: Thanks Alice. The rollout is on track for Friday.
[00:40] Alice: Decision: we will expand the pilot program to Europe.
[01:05] Carol: I am worried about the rollout timeline for the region.`

// testClock is a manually advanced Clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeSource serves transcripts from memory.
type fakeSource struct {
	transcripts []*SourceTranscript
	lastSince   time.Time
}

func (f *fakeSource) ListRecent(ctx context.Context, since time.Time, limit int) ([]*SourceTranscript, error) {
	f.lastSince = since
	if limit < len(f.transcripts) {
		return f.transcripts[:limit], nil
	}
	return f.transcripts, nil
}

func (f *fakeSource) GetById(ctx context.Context, ref string) (*SourceTranscript, error) {
	for _, transcript := range f.transcripts {
		if transcript.Ref == ref {
			return transcript, nil
		}
	}
	return nil, fmt.Errorf("transcript %q not found", ref)
}

func newIngestStore(t *testing.T) *badger.MemoryStore {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestOrchestrator(t *testing.T, store *badger.MemoryStore, embedder *mock.MockEmbedder, clock Clock, opts ...Option) *Orchestrator {
	t.Helper()

	// A single client-side attempt keeps retry counting at the task level.
	client, err := embed.NewClient(embedder, "mock-model", embed.WithRetry(1, time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(client.Release)

	config := segment.DefaultConfig()
	config.TargetTokens = 60
	config.MinTokens = 1
	config.MaxTokens = 120
	config.OverlapTokens = 0
	segmenter, err := segment.New(config)
	require.NoError(t, err)

	base := []Option{
		WithClock(clock),
		WithWorkers(1),
		WithBackoff(BackoffPolicy{MaxAttempts: 3, BaseDelay: time.Minute, Multiplier: 2, MaxDelay: time.Hour}),
	}
	orch, err := NewOrchestrator(store.Documents, store.Chunks, store.Tasks, store.Blobs,
		segmenter, client, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(orch.Release)
	return orch
}

// seedDocument stores a fetched document with its blob, ready to process.
func seedDocument(t *testing.T, store *badger.MemoryStore, ref, content string) core.ID {
	t.Helper()
	ctx := context.Background()

	id := documentID(ref)
	_, err := store.Documents.PutDocument(ctx, &core.Document{
		Id:         id,
		Title:      "Weekly sync",
		SourceDate: ingestBase.Add(-24 * time.Hour),
		ContentKey: contentKey(ref),
		State:      core.DocumentStateNew,
	})
	require.NoError(t, err)

	if content != "" {
		require.NoError(t, store.Blobs.PutBlob(ctx, contentKey(ref), []byte(content)))
		require.NoError(t, store.Documents.UpdateState(ctx, id, core.DocumentStateFetched))
	}
	return id
}

func enqueueTask(t *testing.T, store *badger.MemoryStore, id core.ID, ref string) *core.ProcessingTask {
	t.Helper()
	task, err := store.Tasks.Enqueue(context.Background(), &core.ProcessingTask{
		Type:        core.TaskTypeSync,
		DocumentId:  id,
		Payload:     ref,
		ScheduledAt: ingestBase.Add(-time.Minute),
	})
	require.NoError(t, err)
	return task
}

func TestNewOrchestrator_Validation(t *testing.T) {
	store := newIngestStore(t)

	client, err := embed.NewClient(mock.NewMockEmbedder(), "mock-model")
	require.NoError(t, err)
	t.Cleanup(client.Release)

	segmenter, err := segment.New(segment.DefaultConfig())
	require.NoError(t, err)

	cases := []struct {
		name string
		run  func() (*Orchestrator, error)
		want error
	}{
		{"nil documents", func() (*Orchestrator, error) {
			return NewOrchestrator(nil, store.Chunks, store.Tasks, store.Blobs, segmenter, client)
		}, ErrDocumentRepositoryRequired},
		{"nil chunks", func() (*Orchestrator, error) {
			return NewOrchestrator(store.Documents, nil, store.Tasks, store.Blobs, segmenter, client)
		}, ErrChunkRepositoryRequired},
		{"nil tasks", func() (*Orchestrator, error) {
			return NewOrchestrator(store.Documents, store.Chunks, nil, store.Blobs, segmenter, client)
		}, ErrTaskQueueRequired},
		{"nil blobs", func() (*Orchestrator, error) {
			return NewOrchestrator(store.Documents, store.Chunks, store.Tasks, nil, segmenter, client)
		}, ErrBlobStoreRequired},
		{"nil segmenter", func() (*Orchestrator, error) {
			return NewOrchestrator(store.Documents, store.Chunks, store.Tasks, store.Blobs, nil, client)
		}, ErrSegmenterRequired},
		{"nil client", func() (*Orchestrator, error) {
			return NewOrchestrator(store.Documents, store.Chunks, store.Tasks, store.Blobs, segmenter, nil)
		}, ErrEmbedClientRequired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.run()
			assert.Equal(t, tc.want, err)
		})
	}
}

func TestProcessOnce_Success(t *testing.T) {
	store := newIngestStore(t)
	clock := newTestClock(ingestBase)
	orch := newTestOrchestrator(t, store, mock.NewMockEmbedder(), clock)
	ctx := context.Background()

	id := seedDocument(t, store, "meet-1", syncTranscript)
	task := enqueueTask(t, store, id, "meet-1")

	processed, err := orch.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	got, err := store.Tasks.GetTask(ctx, task.Id)
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusCompleted, got.Status)
	assert.Equal(t, 1, got.Attempts)

	doc, err := store.Documents.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.True(t, doc.Processed)
	assert.Equal(t, core.DocumentStateIndexed, doc.State)
	assert.Equal(t, 5, doc.ChunkCount, "full chunk plus four speaker turns")

	chunks, err := store.Chunks.GetChunksByDocument(ctx, id)
	require.NoError(t, err)
	require.Len(t, chunks, 5)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk.Vector, "chunk %d has a vector", chunk.Id)
		assert.Equal(t, "mock-model", chunk.EmbeddingModel)
	}

	// Nothing left to claim.
	processed, err = orch.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestProcess_TransientFailuresThenSuccess(t *testing.T) {
	store := newIngestStore(t)
	clock := newTestClock(ingestBase)

	embedder := mock.NewMockEmbedder()
	var mu sync.Mutex
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls <= 2 {
			return nil, errors.New("connection reset")
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.DeterministicVector(text, 64)
		}
		return vectors, nil
	}

	orch := newTestOrchestrator(t, store, embedder, clock)
	ctx := context.Background()

	id := seedDocument(t, store, "meet-1", syncTranscript)
	task := enqueueTask(t, store, id, "meet-1")

	// First attempt fails and requeues with backoff.
	processed, err := orch.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	got, err := store.Tasks.GetTask(ctx, task.Id)
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusPending, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.Contains(t, got.LastError, "connection reset")
	assert.True(t, ingestBase.Add(time.Minute).Equal(got.ScheduledAt))

	// Not due yet.
	processed, err = orch.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.False(t, processed)

	// Second attempt fails too.
	clock.Advance(2 * time.Minute)
	processed, err = orch.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	// Third attempt succeeds.
	clock.Advance(3 * time.Minute)
	processed, err = orch.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	got, err = store.Tasks.GetTask(ctx, task.Id)
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusCompleted, got.Status)
	assert.Equal(t, 3, got.Attempts)

	doc, err := store.Documents.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.True(t, doc.Processed)
}

func TestProcess_FailureCeiling(t *testing.T) {
	store := newIngestStore(t)
	clock := newTestClock(ingestBase)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("connection reset")
	}

	orch := newTestOrchestrator(t, store, embedder, clock)
	ctx := context.Background()

	id := seedDocument(t, store, "meet-1", syncTranscript)
	task := enqueueTask(t, store, id, "meet-1")

	for i := 0; i < 3; i++ {
		processed, err := orch.ProcessOnce(ctx)
		require.NoError(t, err)
		require.True(t, processed, "attempt %d claims the task", i+1)
		clock.Advance(10 * time.Minute)
	}

	got, err := store.Tasks.GetTask(ctx, task.Id)
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusFailed, got.Status)
	assert.Equal(t, 3, got.Attempts)
	assert.Contains(t, got.LastError, "connection reset")

	doc, err := store.Documents.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.DocumentStateFailed, doc.State)
	assert.False(t, doc.Processed)

	processed, err := orch.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.False(t, processed, "failed task is never reclaimed")
}

func TestProcess_MissingBlobFailsImmediately(t *testing.T) {
	store := newIngestStore(t)
	clock := newTestClock(ingestBase)
	orch := newTestOrchestrator(t, store, mock.NewMockEmbedder(), clock)
	ctx := context.Background()

	id := seedDocument(t, store, "meet-1", "")
	task := enqueueTask(t, store, id, "")

	processed, err := orch.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	got, err := store.Tasks.GetTask(ctx, task.Id)
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusFailed, got.Status)
	assert.Equal(t, 1, got.Attempts, "data integrity failures do not retry")
}

func TestProcess_MissingBlobRecoveredFromSource(t *testing.T) {
	store := newIngestStore(t)
	clock := newTestClock(ingestBase)
	source := &fakeSource{transcripts: []*SourceTranscript{
		{Ref: "meet-1", Title: "Weekly sync", SourceDate: ingestBase.Add(-24 * time.Hour), Content: syncTranscript},
	}}
	orch := newTestOrchestrator(t, store, mock.NewMockEmbedder(), clock, WithSource(source))
	ctx := context.Background()

	id := seedDocument(t, store, "meet-1", "")
	task := enqueueTask(t, store, id, "meet-1")

	processed, err := orch.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	got, err := store.Tasks.GetTask(ctx, task.Id)
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusCompleted, got.Status)

	blob, err := store.Blobs.GetBlob(ctx, contentKey("meet-1"))
	require.NoError(t, err)
	assert.Equal(t, syncTranscript, string(blob))
}

func TestProcess_MissingDocumentFailsImmediately(t *testing.T) {
	store := newIngestStore(t)
	clock := newTestClock(ingestBase)
	orch := newTestOrchestrator(t, store, mock.NewMockEmbedder(), clock)
	ctx := context.Background()

	task := enqueueTask(t, store, 999, "meet-1")

	processed, err := orch.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	got, err := store.Tasks.GetTask(ctx, task.Id)
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusFailed, got.Status)
	assert.Contains(t, got.LastError, "missing")
}

func TestSyncRecent(t *testing.T) {
	store := newIngestStore(t)
	clock := newTestClock(ingestBase)
	source := &fakeSource{transcripts: []*SourceTranscript{
		{Ref: "m1", Title: "Monday standup", SourceDate: ingestBase.Add(-72 * time.Hour), Content: syncTranscript},
		{Ref: "m2", Title: "Planning", SourceDate: ingestBase.Add(-48 * time.Hour), Content: syncTranscript},
		{Ref: "m3", Title: "Retro", SourceDate: ingestBase.Add(-24 * time.Hour), Content: syncTranscript},
	}}
	orch := newTestOrchestrator(t, store, mock.NewMockEmbedder(), clock, WithSource(source))
	ctx := context.Background()

	// m2 is already fully processed and should be skipped.
	id2 := seedDocument(t, store, "m2", syncTranscript)
	require.NoError(t, store.Documents.MarkProcessed(ctx, id2, 5, ingestBase.Add(-47*time.Hour)))

	report, err := orch.SyncRecent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Listed)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)

	// The sync window starts at the newest known document.
	assert.False(t, source.lastSince.IsZero())

	processed, err := orch.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	for _, ref := range []string{"m1", "m3"} {
		doc, err := store.Documents.GetDocument(ctx, documentID(ref))
		require.NoError(t, err)
		assert.True(t, doc.Processed, "document %s processed", ref)
	}
}

func TestSyncRecent_NoSource(t *testing.T) {
	store := newIngestStore(t)
	orch := newTestOrchestrator(t, store, mock.NewMockEmbedder(), newTestClock(ingestBase))

	_, err := orch.SyncRecent(context.Background())
	assert.ErrorIs(t, err, ErrSourceRequired)
}

func TestHandleWebhookEvent(t *testing.T) {
	store := newIngestStore(t)
	clock := newTestClock(ingestBase)
	secret := []byte("s3cret")
	orch := newTestOrchestrator(t, store, mock.NewMockEmbedder(), clock, WithWebhookSecret(secret))
	ctx := context.Background()

	payload, err := json.Marshal(WebhookEvent{
		Ref:        "meet-99",
		Title:      "Incident review",
		SourceDate: ingestBase.Add(-time.Hour),
		Content:    syncTranscript,
	})
	require.NoError(t, err)

	t.Run("bad signature creates no task", func(t *testing.T) {
		_, err := orch.HandleWebhookEvent(ctx, payload, SignPayload([]byte("wrong"), payload))
		assert.ErrorIs(t, err, ErrInvalidSignature)

		task, err := store.Tasks.Claim(ctx, "probe", ingestBase, time.Minute)
		require.NoError(t, err)
		assert.Nil(t, task)
	})

	t.Run("valid signature ingests and enqueues", func(t *testing.T) {
		task, err := orch.HandleWebhookEvent(ctx, payload, SignPayload(secret, payload))
		require.NoError(t, err)
		require.NotNil(t, task)
		assert.Equal(t, core.TaskTypeWebhookRetry, task.Type)
		assert.Equal(t, webhookPriority, task.Priority)

		doc, err := store.Documents.GetDocument(ctx, documentID("meet-99"))
		require.NoError(t, err)
		assert.Equal(t, "Incident review", doc.Title)
		assert.Equal(t, core.DocumentStateFetched, doc.State)
		assert.Equal(t, len(strings.Fields(syncTranscript)), doc.WordCount)

		blob, err := store.Blobs.GetBlob(ctx, doc.ContentKey)
		require.NoError(t, err)
		assert.Equal(t, syncTranscript, string(blob))

		processed, err := orch.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, processed)
	})

	t.Run("malformed payload", func(t *testing.T) {
		bad := []byte(`{"title":"no ref"}`)
		_, err := orch.HandleWebhookEvent(ctx, bad, SignPayload(secret, bad))
		assert.Error(t, err)
	})
}

func TestReprocessing_Idempotent(t *testing.T) {
	store := newIngestStore(t)
	clock := newTestClock(ingestBase)
	orch := newTestOrchestrator(t, store, mock.NewMockEmbedder(), clock)
	ctx := context.Background()

	payload, err := json.Marshal(WebhookEvent{
		Ref:        "meet-1",
		Title:      "Weekly sync",
		SourceDate: ingestBase.Add(-time.Hour),
		Content:    syncTranscript,
	})
	require.NoError(t, err)

	// Deliver and process the same transcript twice.
	for i := 0; i < 2; i++ {
		_, err := orch.HandleWebhookEvent(ctx, payload, "")
		require.NoError(t, err)
		processed, err := orch.Drain(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, processed)
	}

	id := documentID("meet-1")
	chunks, err := store.Chunks.GetChunksByDocument(ctx, id)
	require.NoError(t, err)
	assert.Len(t, chunks, 5, "reprocessing replaces rather than duplicates")

	doc, err := store.Documents.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.True(t, doc.Processed)
	assert.Equal(t, 5, doc.ChunkCount)
}

func TestHousekeep(t *testing.T) {
	store := newIngestStore(t)
	// mutate stamps UpdatedAt from the wall clock, so run the test clock in
	// the future to make the retention cutoff land after those stamps.
	future := time.Now().UTC().Add(30 * 24 * time.Hour)
	clock := newTestClock(future)
	orch := newTestOrchestrator(t, store, mock.NewMockEmbedder(), clock, WithRetention(time.Hour))
	ctx := context.Background()

	id := seedDocument(t, store, "meet-1", syncTranscript)
	task, err := store.Tasks.Enqueue(ctx, &core.ProcessingTask{
		Type:        core.TaskTypeSync,
		DocumentId:  id,
		Payload:     "meet-1",
		ScheduledAt: future.Add(-time.Minute),
	})
	require.NoError(t, err)

	processed, err := orch.ProcessOnce(ctx)
	require.NoError(t, err)
	require.True(t, processed)

	clock.Advance(2 * time.Hour)
	purged, err := orch.Housekeep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = store.Tasks.GetTask(ctx, task.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
