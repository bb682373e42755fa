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


package minutia

import (
	"log/slog"

	"github.com/poiesic/minutia/ai"
	"github.com/poiesic/minutia/ai/openai"
	"github.com/poiesic/minutia/embed"
	"github.com/poiesic/minutia/ingest"
	"github.com/poiesic/minutia/search"
	"github.com/poiesic/minutia/segment"
	"github.com/poiesic/minutia/storage"
	"github.com/poiesic/minutia/storage/badger"
)

// Database bundles the storage repositories with the embedding provider and
// hands out configured searchers and orchestrators over them.
type Database struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	chunks    storage.ChunkRepository
	tasks     storage.TaskQueue
	blobs     storage.BlobStore
	provider  ai.Provider
	client    *embed.Client
	segConfig segment.Config
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig  *ai.Config
	segConfig segment.Config
	inMemory  bool
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithSegmentConfig sets the chunking configuration used by orchestrators.
func WithSegmentConfig(config segment.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.segConfig = config
	}
}

// WithInMemory opens the backend without on-disk storage. Intended for tests.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig:  ai.DefaultConfig(), // Default if not provided
		segConfig: segment.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	tasks, err := badger.NewTaskQueue(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	documents := badger.NewDocumentRepository(backend)
	chunks := badger.NewChunkRepository(backend)
	blobs := badger.NewBlobStore(backend)

	// Create embedding provider with configured settings
	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		tasks.Close()
		backend.Close()
		return nil, err
	}

	client, err := embed.NewClient(provider.Embedder(), provider.Model(),
		embed.WithDimension(options.aiConfig.EmbeddingDimension))
	if err != nil {
		provider.Close()
		tasks.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:   backend,
		documents: documents,
		chunks:    chunks,
		tasks:     tasks,
		blobs:     blobs,
		provider:  provider,
		client:    client,
		segConfig: options.segConfig,
		logger:    slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Stop the embedding side first
	db.client.Release()
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing embedding provider", "err", err)
	}

	// Close repositories
	if err := db.tasks.Close(); err != nil {
		db.logger.Error("error closing task queue", "err", err)
		return err
	}
	if err := db.chunks.Close(); err != nil {
		db.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := db.documents.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.documents
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunks
}

func (db *Database) TaskQueue() storage.TaskQueue {
	return db.tasks
}

func (db *Database) BlobStore() storage.BlobStore {
	return db.blobs
}

// EmbedClient returns the shared batching embedding client.
func (db *Database) EmbedClient() *embed.Client {
	return db.client
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.chunks, db.documents, db.client, opts...)
}

func (db *Database) NewOrchestrator(opts ...ingest.Option) (*ingest.Orchestrator, error) {
	segmenter, err := segment.New(db.segConfig)
	if err != nil {
		return nil, err
	}
	return ingest.NewOrchestrator(db.documents, db.chunks, db.tasks, db.blobs,
		segmenter, db.client, opts...)
}
