package embed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/minutia/ai"
)

const (
	// DefaultBatchSize is the number of texts sent per embedding request.
	DefaultBatchSize = 10

	// DefaultConcurrency bounds how many batches are in flight at once,
	// to respect external-service rate limits.
	DefaultConcurrency = 4

	// DefaultMaxRetries is the attempt ceiling for transient failures.
	DefaultMaxRetries = 3

	// DefaultRetryBaseDelay is the starting backoff delay.
	DefaultRetryBaseDelay = time.Second
)

// Result is the per-item outcome of a batch embedding call. One malformed
// text fails only its own Result, never its siblings.
type Result struct {
	Vector []float32
	Err    error
}

// Client wraps an ai.Embedder with batching, bounded concurrency, retry with
// exponential backoff, and per-item error isolation.
type Client struct {
	embedder       ai.Embedder
	model          string
	dimension      int
	batchSize      int
	maxRetries     int
	retryBaseDelay time.Duration
	pool           *ants.Pool
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithBatchSize sets the number of texts per embedding request.
func WithBatchSize(size int) Option {
	return func(c *Client) error {
		if size < 1 {
			size = 1
		}
		c.batchSize = size
		return nil
	}
}

// WithConcurrency sets how many batches may be embedded in parallel.
func WithConcurrency(n int) Option {
	return func(c *Client) error {
		if n < 1 {
			n = 1
		}
		if c.pool != nil {
			c.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		c.pool = pool
		return nil
	}
}

// WithRetry sets the transient-failure retry policy.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) error {
		if maxRetries < 1 {
			return ErrInvalidMaxAttempts
		}
		c.maxRetries = maxRetries
		c.retryBaseDelay = baseDelay
		return nil
	}
}

// WithDimension sets the expected vector width; vectors of any other width
// are rejected per-item. Zero disables the check.
func WithDimension(dim int) Option {
	return func(c *Client) error {
		c.dimension = dim
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a batching embedding client for the named model.
func NewClient(embedder ai.Embedder, model string, opts ...Option) (*Client, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	pool, err := ants.NewPool(DefaultConcurrency)
	if err != nil {
		return nil, err
	}

	c := &Client{
		embedder:       embedder,
		model:          model,
		batchSize:      DefaultBatchSize,
		maxRetries:     DefaultMaxRetries,
		retryBaseDelay: DefaultRetryBaseDelay,
		pool:           pool,
		logger:         slog.Default().With("component", "embed-client"),
	}

	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}

	return c, nil
}

// Model returns the embedding model identifier, stored alongside vectors.
func (c *Client) Model() string {
	return c.model
}

// EmbedOne embeds a single text with the client's retry policy.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vector, embedErr = c.embedder.EmbedText(ctx, text)
		return embedErr
	}, c.maxRetries, c.retryBaseDelay)
	if err != nil {
		return nil, err
	}
	if err := c.checkDimension(vector); err != nil {
		return nil, err
	}
	return vector, nil
}

// EmbedBatch embeds texts in batches of the configured size, running batches
// concurrently up to the concurrency limit. The returned slice has one Result
// per input text, in input order. Transient failures are retried with
// exponential backoff; permanent failures are isolated per-item so one bad
// text does not fail its siblings.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([]Result, error) {
	results := make([]Result, len(texts))
	if len(texts) == 0 {
		return results, nil
	}

	var wg sync.WaitGroup
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		start, end := start, end
		wg.Add(1)
		err := c.pool.Submit(func() {
			defer wg.Done()
			c.embedSlice(ctx, texts[start:end], results[start:end])
		})
		if err != nil {
			wg.Done()
			return nil, err
		}
	}
	wg.Wait()

	return results, nil
}

// embedSlice embeds one batch, writing outcomes into the matching result slots.
func (c *Client) embedSlice(ctx context.Context, texts []string, results []Result) {
	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = c.embedder.EmbedTexts(ctx, texts)
		if embedErr != nil {
			return embedErr
		}
		if len(vectors) != len(texts) {
			return Permanent(fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(vectors)))
		}
		return nil
	}, c.maxRetries, c.retryBaseDelay)

	if err == nil {
		for i := range vectors {
			if dimErr := c.checkDimension(vectors[i]); dimErr != nil {
				results[i] = Result{Err: dimErr}
				continue
			}
			results[i] = Result{Vector: vectors[i]}
		}
		return
	}

	if !IsPermanent(err) {
		// Transient failure that exhausted its retries: the whole batch
		// shares the escalated error.
		for i := range results {
			results[i] = Result{Err: err}
		}
		return
	}

	// Permanent batch failure: retry items individually so only the bad
	// inputs fail.
	c.logger.Debug("isolating permanent batch failure per item", "batch", len(texts), "err", err)
	for i, text := range texts {
		vector, itemErr := c.embedItem(ctx, text)
		if itemErr != nil {
			results[i] = Result{Err: itemErr}
			continue
		}
		results[i] = Result{Vector: vector}
	}
}

func (c *Client) embedItem(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		vectors, embedErr := c.embedder.EmbedTexts(ctx, []string{text})
		if embedErr != nil {
			return embedErr
		}
		if len(vectors) != 1 {
			return Permanent(fmt.Errorf("embedding count mismatch: expected 1, got %d", len(vectors)))
		}
		vector = vectors[0]
		return nil
	}, c.maxRetries, c.retryBaseDelay)
	if err != nil {
		return nil, err
	}
	if err := c.checkDimension(vector); err != nil {
		return nil, err
	}
	return vector, nil
}

func (c *Client) checkDimension(vector []float32) error {
	if c.dimension > 0 && len(vector) != c.dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, c.dimension, len(vector))
	}
	return nil
}

// Release releases the batch worker pool.
// The client should not be used after calling Release.
func (c *Client) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}
