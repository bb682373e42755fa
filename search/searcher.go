package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/minutia/core"
	"github.com/poiesic/minutia/embed"
	"github.com/poiesic/minutia/storage"
)

const (
	// DefaultThreshold is the minimum cosine similarity for a semantic hit.
	DefaultThreshold = 0.70

	// DefaultOverFetch multiplies the result limit to bound the candidate
	// fetch. Filtering and thresholding discard candidates, so fetching
	// more than the limit keeps recall up without scanning everything.
	DefaultOverFetch = 3

	// DefaultLimit is the result cap used when the caller passes zero.
	DefaultLimit = 10

	// DefaultContextWindow caps the Before/After context attached to a hit,
	// in characters per side. Zero would keep whole neighbor chunks.
	DefaultContextWindow = 280
)

// Searcher provides semantic similarity search over embedded chunks, with
// a plain-text fallback for queries that should not go through the embedder.
type Searcher struct {
	chunks        storage.ChunkRepository
	documents     storage.DocumentRepository
	client        *embed.Client
	threshold     float32
	overFetch     int
	contextWindow int
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithThreshold sets the minimum similarity score for a hit.
// Default is DefaultThreshold.
func WithThreshold(threshold float32) Option {
	return func(s *Searcher) error {
		s.threshold = threshold
		return nil
	}
}

// WithOverFetch sets the candidate over-fetch multiplier.
// Default is DefaultOverFetch.
func WithOverFetch(factor int) Option {
	return func(s *Searcher) error {
		if factor < 1 {
			factor = 1
		}
		s.overFetch = factor
		return nil
	}
}

// WithContextWindow bounds the Before/After context attached to a hit to at
// most n characters per side, cut at a word boundary. Zero keeps the whole
// neighbor chunk. Default is DefaultContextWindow.
func WithContextWindow(n int) Option {
	return func(s *Searcher) error {
		if n >= 0 {
			s.contextWindow = n
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	chunks storage.ChunkRepository,
	documents storage.DocumentRepository,
	client *embed.Client,
	opts ...Option,
) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if client == nil {
		return nil, ErrEmbedClientRequired
	}

	s := &Searcher{
		chunks:        chunks,
		documents:     documents,
		client:        client,
		threshold:     DefaultThreshold,
		overFetch:     DefaultOverFetch,
		contextWindow: DefaultContextWindow,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search finds chunks semantically similar to the query, restricted by the
// filter. Returns up to limit results ranked by similarity score.
func (s *Searcher) Search(ctx context.Context, query string, filter storage.Filter, limit int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, filter, limit, nil)
}

// SearchWithMonitor is Search with monitoring. The monitor receives callbacks
// at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, filter storage.Filter, limit int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	monitor.Start(query)

	vector, err := s.client.EmbedOne(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(vector)

	candidates, err := s.chunks.CandidatesByFilter(ctx, filter, limit*s.overFetch)
	if err != nil {
		s.logger.Error("error fetching candidate chunks", "err", err)
		return nil, err
	}
	monitor.AfterCandidateFetch(len(candidates))

	results := make([]*core.SearchResult, 0, len(candidates))
	for _, chunk := range candidates {
		if len(chunk.Vector) == 0 {
			// Not embedded yet, not semantically searchable.
			continue
		}

		score := embed.Cosine(vector, chunk.Vector)
		if score < s.threshold {
			monitor.BelowThreshold(chunk.Id, score)
			continue
		}
		monitor.Hit(chunk.Id, score)
		results = append(results, &core.SearchResult{Chunk: chunk, Score: score})
	}

	s.attachDocuments(ctx, results)

	// Rank by score; among equal scores prefer the newer document.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		di, dj := sourceDate(results[i]), sourceDate(results[j])
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return results[i].Chunk.DocumentId < results[j].Chunk.DocumentId
	})
	if len(results) > limit {
		results = results[:limit]
	}

	s.enrichContext(ctx, results)
	monitor.Finish(results)

	return results, nil
}

// SearchText finds chunks whose content matches the query verbatim, without
// touching the embedder. Results honor the same filter and are ranked by
// document recency.
func (s *Searcher) SearchText(ctx context.Context, query string, filter storage.Filter, limit int) ([]*core.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	candidates, err := s.chunks.CandidatesByFilter(ctx, filter, 0)
	if err != nil {
		s.logger.Error("error fetching candidate chunks", "err", err)
		return nil, err
	}

	results := make([]*core.SearchResult, 0, limit)
	for _, chunk := range candidates {
		if !matchesQuery(chunk.Content, query) {
			continue
		}
		results = append(results, &core.SearchResult{Chunk: chunk, Score: 1.0})
	}

	s.attachDocuments(ctx, results)

	sort.Slice(results, func(i, j int) bool {
		di, dj := sourceDate(results[i]), sourceDate(results[j])
		if !di.Equal(dj) {
			return di.After(dj)
		}
		if results[i].Chunk.DocumentId != results[j].Chunk.DocumentId {
			return results[i].Chunk.DocumentId < results[j].Chunk.DocumentId
		}
		return results[i].Chunk.Position < results[j].Chunk.Position
	})
	if len(results) > limit {
		results = results[:limit]
	}

	s.enrichContext(ctx, results)

	return results, nil
}

// attachDocuments loads the owning document for each result.
// A missing document record leaves the field nil and the hit in place.
func (s *Searcher) attachDocuments(ctx context.Context, results []*core.SearchResult) {
	if len(results) == 0 {
		return
	}

	seen := make(map[core.ID]bool)
	ids := make([]core.ID, 0, len(results))
	for _, r := range results {
		if !seen[r.Chunk.DocumentId] {
			seen[r.Chunk.DocumentId] = true
			ids = append(ids, r.Chunk.DocumentId)
		}
	}

	docs, err := s.documents.GetDocuments(ctx, ids...)
	if err != nil {
		s.logger.Warn("error retrieving documents for results", "count", len(ids), "err", err)
		return
	}

	byID := make(map[core.ID]*core.Document, len(docs))
	for _, doc := range docs {
		byID[doc.Id] = doc
	}
	for _, r := range results {
		r.Document = byID[r.Chunk.DocumentId]
	}
}

// enrichContext fills Before/After from the sequential neighbors of
// speaker-turn and time-window hits. Full and topic chunks already carry
// enough surrounding text on their own.
func (s *Searcher) enrichContext(ctx context.Context, results []*core.SearchResult) {
	for _, r := range results {
		switch r.Chunk.Type {
		case core.ChunkTypeSpeakerTurn, core.ChunkTypeTimeWindow:
		default:
			continue
		}

		if r.Chunk.PrevId != 0 {
			if prev, err := s.chunks.GetChunk(ctx, r.Chunk.PrevId); err == nil {
				r.Before = clipTail(prev.Content, s.contextWindow)
			} else {
				s.logger.Debug("context chunk unavailable", "chunkID", r.Chunk.PrevId, "err", err)
			}
		}
		if r.Chunk.NextId != 0 {
			if next, err := s.chunks.GetChunk(ctx, r.Chunk.NextId); err == nil {
				r.After = clipHead(next.Content, s.contextWindow)
			} else {
				s.logger.Debug("context chunk unavailable", "chunkID", r.Chunk.NextId, "err", err)
			}
		}
	}
}

// sourceDate is the recency key for ranking; hits with no document record
// sort behind everything dated.
func sourceDate(r *core.SearchResult) time.Time {
	if r.Document != nil {
		return r.Document.SourceDate
	}
	return time.Time{}
}
