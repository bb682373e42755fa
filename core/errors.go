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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidEntity indicates an ExtractedEntity failed validation.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrInvalidRelationship indicates a ChunkRelationship failed validation.
	ErrInvalidRelationship = errors.New("invalid relationship")

	// ErrInvalidTask indicates a ProcessingTask failed validation.
	ErrInvalidTask = errors.New("invalid task")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyContentKey indicates the ContentKey field is empty.
	ErrEmptyContentKey = errors.New("content key cannot be empty")

	// ErrInvalidChunkType indicates an unknown ChunkType value.
	ErrInvalidChunkType = errors.New("invalid chunk type")

	// ErrInvalidEntityType indicates an unknown EntityType value.
	ErrInvalidEntityType = errors.New("invalid entity type")

	// ErrInvalidRelationshipType indicates an unknown RelationshipType value.
	ErrInvalidRelationshipType = errors.New("invalid relationship type")

	// ErrInvalidTaskType indicates an unknown TaskType value.
	ErrInvalidTaskType = errors.New("invalid task type")

	// ErrInvalidTaskStatus indicates an unknown TaskStatus value.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidTaskTransition indicates a non-monotonic status transition.
	ErrInvalidTaskTransition = errors.New("invalid task status transition")

	// ErrInvalidConfidence indicates a confidence or strength score outside [0,1].
	ErrInvalidConfidence = errors.New("score must be between 0 and 1")

	// ErrNegativePosition indicates a chunk position below zero.
	ErrNegativePosition = errors.New("chunk position cannot be negative")

	// ErrSelfRelationship indicates a relationship pointing a chunk at itself.
	ErrSelfRelationship = errors.New("relationship cannot link a chunk to itself")
)
