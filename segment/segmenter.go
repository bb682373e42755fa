// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package segment

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/minutia/core"
	"github.com/poiesic/minutia/extract"
)

// Segmenter splits a document's text into ordered chunks and a relationship
// graph. Segmentation is single-threaded per document, so chunk positions
// and relationship ordering are deterministic.
type Segmenter struct {
	config    Config
	tokenizer Tokenizer
	logger    *slog.Logger
}

// Option configures a Segmenter.
type Option func(*Segmenter) error

// WithTokenizer replaces the default heuristic tokenizer.
func WithTokenizer(t Tokenizer) Option {
	return func(s *Segmenter) error {
		if t == nil {
			return ErrTokenizerRequired
		}
		s.tokenizer = t
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Segmenter) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New creates a Segmenter with the given configuration.
func New(config Config, opts ...Option) (*Segmenter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Segmenter{
		config:    config,
		tokenizer: HeuristicTokenizer{},
		logger:    slog.Default().With("component", "segmenter"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Result is the output of segmenting one document.
type Result struct {
	Chunks        []*core.Chunk
	Relationships []core.ChunkRelationship
}

// Segment splits text into chunks. The full-document chunk is always first
// at position 0 with maximum importance; finer-grained chunks follow at
// strictly increasing positions linked into a prev/next chain. Empty input
// yields an empty result, not an error. Malformed speaker or time markup
// degrades to the paragraph fallback, never a failure.
func (s *Segmenter) Segment(doc *core.Document, text string) (*Result, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if strings.TrimSpace(text) == "" {
		return &Result{}, nil
	}

	// Microsecond precision matches what the storage codec persists.
	now := time.Now().UTC().Truncate(time.Microsecond)
	full := core.Chunk{
		Id:         chunkID(doc.Id, 0, text),
		DocumentId: doc.Id,
		Position:   0,
		Type:       core.ChunkTypeFull,
		Content:    text,
		TokenCount: s.tokenizer.Count(text),
		InsertedAt: now,
		UpdatedAt:  now,
	}
	s.annotate(&full)
	full.Importance = 1.0

	lines, stats := parseLines(text)
	strategy := s.pickStrategy(stats)

	var body []core.Chunk
	switch strategy {
	case StrategySpeakerTurn:
		body = s.speakerTurns(lines)
	case StrategyTimeWindow:
		body = s.timeWindows(lines)
	default:
		body = s.topicSegments(text)
	}
	if len(body) == 0 && strategy != StrategyTopic {
		// Markup promised more than it delivered; fall back to paragraphs.
		s.logger.Debug("degrading to topic fallback", "document", doc.Id, "strategy", strategy)
		body = s.topicSegments(text)
	}

	for i := range body {
		c := &body[i]
		c.DocumentId = doc.Id
		c.Position = i + 1
		c.ParentId = full.Id
		if c.TokenCount == 0 {
			c.TokenCount = s.tokenizer.Count(c.Content)
		}
		c.Id = chunkID(doc.Id, c.Position, c.Content)
		c.InsertedAt = now
		c.UpdatedAt = now
		s.annotate(c)
		c.Importance = importanceScore(c, s.config)
	}
	for i := range body {
		if i > 0 {
			body[i].PrevId = body[i-1].Id
		}
		if i < len(body)-1 {
			body[i].NextId = body[i+1].Id
		}
	}

	chunks := make([]*core.Chunk, 0, len(body)+1)
	chunks = append(chunks, &full)
	for i := range body {
		chunks = append(chunks, &body[i])
	}

	return &Result{
		Chunks:        chunks,
		Relationships: buildRelationships(full, body),
	}, nil
}

// pickStrategy resolves StrategyAuto against the observed markup. Speaker
// labels win over timestamps when both dominate.
func (s *Segmenter) pickStrategy(stats parseStats) Strategy {
	if s.config.Strategy != StrategyAuto {
		return s.config.Strategy
	}
	if stats.labeled > 0 && stats.labeled*2 >= stats.nonempty {
		return StrategySpeakerTurn
	}
	if stats.timed > 0 && stats.timed*2 >= stats.nonempty {
		return StrategyTimeWindow
	}
	return StrategyTopic
}

// annotate runs entity extraction over the chunk and derives its topic
// labels from the extracted topic entities.
func (s *Segmenter) annotate(c *core.Chunk) {
	entities, truncated := extract.Entities(c.Content)
	if truncated {
		s.logger.Warn("entity extraction truncated oversized chunk", "chunk", c.Id)
	}
	for i := range entities {
		entities[i].ChunkId = c.Id
	}
	c.Entities = entities

	c.Topics = c.Topics[:0]
	for _, e := range entities {
		if e.Type == core.EntityTypeTopic {
			c.Topics = append(c.Topics, e.Value)
		}
	}
}

// chunkID derives a deterministic chunk id so reprocessing an unchanged
// document produces identical ids.
func chunkID(docID core.ID, position int, content string) core.ID {
	return core.IDFromContent(fmt.Sprintf("%d|%d|%s", docID, position, content))
}
