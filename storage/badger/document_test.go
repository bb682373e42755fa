package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/minutia/core"
	"github.com/poiesic/minutia/storage"
)

func newStore(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDocument(id core.ID, sourceDate time.Time) *core.Document {
	return &core.Document{
		Id:         id,
		Title:      "Weekly sync",
		SourceDate: sourceDate,
		ContentKey: "transcripts/weekly-sync",
		WordCount:  1200,
		State:      core.DocumentStateNew,
	}
}

func TestPutDocument_Insert(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	doc := testDocument(1, time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))
	_, err := store.Documents.PutDocument(ctx, doc)
	require.NoError(t, err)
	assert.False(t, doc.InsertedAt.IsZero())
	assert.False(t, doc.UpdatedAt.IsZero())

	got, err := store.Documents.GetDocument(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.ContentKey, got.ContentKey)
	assert.True(t, doc.SourceDate.Equal(got.SourceDate))
	assert.Equal(t, core.DocumentStateNew, got.State)
}

func TestPutDocument_UpsertPreservesInsertedAt(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	doc := testDocument(1, time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))
	_, err := store.Documents.PutDocument(ctx, doc)
	require.NoError(t, err)
	inserted := doc.InsertedAt

	update := testDocument(1, time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC))
	update.Title = "Weekly sync (amended)"
	_, err = store.Documents.PutDocument(ctx, update)
	require.NoError(t, err)

	got, err := store.Documents.GetDocument(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Weekly sync (amended)", got.Title)
	assert.True(t, inserted.Equal(got.InsertedAt), "InsertedAt survives an upsert")
}

func TestPutDocument_StampsSurviveRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	doc := testDocument(1, time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC))
	_, err := store.Documents.PutDocument(ctx, doc)
	require.NoError(t, err)

	got, err := store.Documents.GetDocument(ctx, 1)
	require.NoError(t, err)
	assert.True(t, doc.InsertedAt.Equal(got.InsertedAt), "stamps persist at codec precision")
	assert.True(t, doc.UpdatedAt.Equal(got.UpdatedAt))
}

func TestGetDocument_NotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.Documents.GetDocument(context.Background(), 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetDocuments_SkipsMissing(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Documents.PutDocument(ctx, testDocument(1, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	docs, err := store.Documents.GetDocuments(ctx, 1, 999)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestGetDocumentsByDateRange(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		_, err := store.Documents.PutDocument(ctx, testDocument(core.ID(i+1), d))
		require.NoError(t, err)
	}

	docs, err := store.Documents.GetDocumentsByDateRange(ctx, dates[0], dates[2])
	require.NoError(t, err)
	require.Len(t, docs, 2, "range is inclusive of start, exclusive of end")
	assert.Equal(t, core.ID(1), docs[0].Id)
	assert.Equal(t, core.ID(2), docs[1].Id)
}

func TestGetRecentDocuments(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d := time.Date(2026, 8, i, 9, 0, 0, 0, time.UTC)
		_, err := store.Documents.PutDocument(ctx, testDocument(core.ID(i), d))
		require.NoError(t, err)
	}

	docs, err := store.Documents.GetRecentDocuments(ctx, 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, core.ID(3), docs[0].Id, "most recent first")
	assert.Equal(t, core.ID(2), docs[1].Id)
}

func TestUpdateState(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Documents.PutDocument(ctx, testDocument(1, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	require.NoError(t, store.Documents.UpdateState(ctx, 1, core.DocumentStateSegmented))

	got, err := store.Documents.GetDocument(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, core.DocumentStateSegmented, got.State)

	assert.ErrorIs(t, store.Documents.UpdateState(ctx, 999, core.DocumentStateFetched), storage.ErrNotFound)
}

func TestMarkProcessed(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Documents.PutDocument(ctx, testDocument(1, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	at := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)
	require.NoError(t, store.Documents.MarkProcessed(ctx, 1, 7, at))

	got, err := store.Documents.GetDocument(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.Equal(t, 7, got.ChunkCount)
	assert.True(t, at.Equal(got.ProcessedAt))
	assert.Equal(t, core.DocumentStateIndexed, got.State)
}
