package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/minutia/ai/mock"
)

func newTestClient(t *testing.T, embedder *mock.MockEmbedder, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithRetry(3, time.Millisecond)}
	client, err := NewClient(embedder, "mock-embedder", append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(client.Release)
	return client
}

func TestNewClient_RequiresEmbedder(t *testing.T) {
	_, err := NewClient(nil, "model")
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestClient_Model(t *testing.T) {
	client := newTestClient(t, mock.NewMockEmbedder())
	assert.Equal(t, "mock-embedder", client.Model())
}

func TestEmbedOne(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	client := newTestClient(t, embedder)

	vector, err := client.EmbedOne(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Len(t, vector, embedder.Dimension)

	again, err := client.EmbedOne(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, vector, again, "same text must embed deterministically")
}

func TestEmbedOne_DimensionMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	client := newTestClient(t, embedder, WithDimension(999))

	_, err := client.EmbedOne(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEmbedBatch_Empty(t *testing.T) {
	client := newTestClient(t, mock.NewMockEmbedder())

	results, err := client.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	client := newTestClient(t, embedder, WithBatchSize(3), WithConcurrency(4))

	texts := make([]string, 25)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk number %d", i)
	}

	results, err := client.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, results, len(texts))

	for i, r := range results {
		require.NoError(t, r.Err, "item %d", i)
		expected := mock.DeterministicVector(texts[i], embedder.Dimension)
		assert.Equal(t, expected, r.Vector, "result %d must match its input text", i)
	}
}

func TestEmbedBatch_SplitsIntoBatches(t *testing.T) {
	var mu sync.Mutex
	var batchSizes []int

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		mu.Lock()
		batchSizes = append(batchSizes, len(texts))
		mu.Unlock()
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.DeterministicVector(text, 384)
		}
		return vectors, nil
	}

	client := newTestClient(t, embedder, WithBatchSize(4), WithConcurrency(1))

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}

	_, err := client.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{4, 4, 2}, batchSizes)
}

func TestEmbedBatch_TransientExhaustedSharesError(t *testing.T) {
	transient := errors.New("connection refused")
	calls := 0

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		return nil, transient
	}

	client := newTestClient(t, embedder, WithBatchSize(10), WithConcurrency(1))

	results, err := client.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, r := range results {
		assert.ErrorIs(t, r.Err, transient)
		assert.Nil(t, r.Vector)
	}
	assert.Equal(t, 3, calls, "batch retried up to the attempt ceiling, never per-item")
}

func TestEmbedBatch_PermanentIsolatedPerItem(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		for _, text := range texts {
			if strings.Contains(text, "poison") {
				return nil, fmt.Errorf("API returned unexpected status code: 400 for %q", text)
			}
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.DeterministicVector(text, 384)
		}
		return vectors, nil
	}

	client := newTestClient(t, embedder, WithBatchSize(10), WithConcurrency(1))

	texts := []string{"good one", "poison pill", "good two"}
	results, err := client.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.NotNil(t, results[0].Vector)

	assert.Error(t, results[1].Err, "only the bad input fails")
	assert.Nil(t, results[1].Vector)

	assert.NoError(t, results[2].Err)
	assert.NotNil(t, results[2].Vector)
}

func TestEmbedBatch_CountMismatchIsPermanent(t *testing.T) {
	calls := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if len(texts) > 1 {
			// Batch call drops a vector; per-item calls behave.
			return [][]float32{mock.DeterministicVector(texts[0], 384)}, nil
		}
		return [][]float32{mock.DeterministicVector(texts[0], 384)}, nil
	}

	client := newTestClient(t, embedder, WithBatchSize(10), WithConcurrency(1))

	results, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, 3, calls, "one batch call plus one call per isolated item")
}

func TestWithRetry_RejectsZeroAttempts(t *testing.T) {
	_, err := NewClient(mock.NewMockEmbedder(), "model", WithRetry(0, time.Millisecond))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}
