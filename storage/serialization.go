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


package storage

import (
	"github.com/poiesic/minutia/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalRelationship serializes a ChunkRelationship to bytes.
func MarshalRelationship(rel *core.ChunkRelationship) []byte {
	buf := make([]byte, core.RelationshipMUS.Size(*rel))
	core.RelationshipMUS.Marshal(*rel, buf)
	return buf
}

// UnmarshalRelationship deserializes a ChunkRelationship from bytes.
func UnmarshalRelationship(data []byte) (*core.ChunkRelationship, error) {
	rel, _, err := core.RelationshipMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// MarshalTask serializes a ProcessingTask to bytes.
func MarshalTask(task *core.ProcessingTask) []byte {
	buf := make([]byte, core.TaskMUS.Size(*task))
	core.TaskMUS.Marshal(*task, buf)
	return buf
}

// UnmarshalTask deserializes a ProcessingTask from bytes.
func UnmarshalTask(data []byte) (*core.ProcessingTask, error) {
	task, _, err := core.TaskMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// MatchesChunk reports whether a chunk and its owning document pass the
// filter. Date bounds apply to the document's source date; speaker and
// topics apply to the chunk itself.
func MatchesChunk(f Filter, chunk *core.Chunk, doc *core.Document) bool {
	if len(f.DocumentIds) > 0 {
		found := false
		for _, id := range f.DocumentIds {
			if id == chunk.DocumentId {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if !f.From.IsZero() || !f.To.IsZero() {
		if doc == nil {
			return false
		}
		if !f.From.IsZero() && doc.SourceDate.Before(f.From) {
			return false
		}
		if !f.To.IsZero() && !doc.SourceDate.Before(f.To) {
			return false
		}
	}

	if f.Speaker != "" && chunk.Speaker != f.Speaker {
		return false
	}

	if len(f.Topics) > 0 {
		found := false
		for _, want := range f.Topics {
			for _, have := range chunk.Topics {
				if want == have {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
