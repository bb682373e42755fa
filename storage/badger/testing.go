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


package badger

import "github.com/poiesic/minutia/storage"

// MemoryStore bundles in-memory repositories sharing one backend, for tests.
type MemoryStore struct {
	Documents storage.DocumentRepository
	Chunks    storage.ChunkRepository
	Tasks     storage.TaskQueue
	Blobs     storage.BlobStore

	backend *Backend
}

// NewMemoryStore creates an in-memory store for testing.
// Caller must Close it when done.
func NewMemoryStore() (*MemoryStore, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	tasks, err := NewTaskQueue(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &MemoryStore{
		Documents: NewDocumentRepository(backend),
		Chunks:    NewChunkRepository(backend),
		Tasks:     tasks,
		Blobs:     NewBlobStore(backend),
		backend:   backend,
	}, nil
}

// Close releases the repositories and the backend.
func (m *MemoryStore) Close() error {
	if err := m.Tasks.Close(); err != nil {
		return err
	}
	if err := m.Chunks.Close(); err != nil {
		return err
	}
	if err := m.Documents.Close(); err != nil {
		return err
	}
	return m.backend.Close()
}
