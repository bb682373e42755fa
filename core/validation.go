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

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - ContentKey must not be empty
//
// NOT validated (populated by the pipeline):
//   - ChunkCount, Processed, ProcessedAt (set when processing completes)
//   - ID (0 is valid from database sequences)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyTitle)
	}

	if doc.ContentKey == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContentKey)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Type must be a known ChunkType
//   - Position must not be negative
//   - Importance must lie in [0,1]
//
// NOT validated (populated by later stages):
//   - Vector and EmbeddingModel (empty until the embedding stage runs)
//   - Prev/Next/Parent links (wired by the segmenter)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if err := ValidateChunkType(chunk.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}

	if chunk.Position < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativePosition)
	}

	if chunk.Importance < 0 || chunk.Importance > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidConfidence)
	}

	return nil
}

// ValidateEntity validates an ExtractedEntity according to domain rules.
func ValidateEntity(entity *ExtractedEntity) error {
	if entity == nil {
		return fmt.Errorf("%w: entity is nil", ErrInvalidEntity)
	}

	if entity.Value == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrEmptyContent)
	}

	if err := ValidateEntityType(entity.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}

	if entity.Confidence < 0 || entity.Confidence > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, ErrInvalidConfidence)
	}

	return nil
}

// ValidateRelationship validates a ChunkRelationship according to domain rules.
func ValidateRelationship(rel *ChunkRelationship) error {
	if rel == nil {
		return fmt.Errorf("%w: relationship is nil", ErrInvalidRelationship)
	}

	if rel.FromId == rel.ToId {
		return fmt.Errorf("%w: %w", ErrInvalidRelationship, ErrSelfRelationship)
	}

	if err := ValidateRelationshipType(rel.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRelationship, err)
	}

	if rel.Strength < 0 || rel.Strength > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidRelationship, ErrInvalidConfidence)
	}

	return nil
}

// ValidateTask validates a ProcessingTask according to domain rules.
func ValidateTask(task *ProcessingTask) error {
	if task == nil {
		return fmt.Errorf("%w: task is nil", ErrInvalidTask)
	}

	if err := ValidateTaskType(task.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTask, err)
	}

	if err := ValidateTaskStatus(task.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTask, err)
	}

	return nil
}

// ValidateChunkType validates that a ChunkType has a known value.
func ValidateChunkType(t ChunkType) error {
	switch t {
	case ChunkTypeFull, ChunkTypeTimeWindow, ChunkTypeSpeakerTurn, ChunkTypeTopicSegment:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidChunkType, t)
	}
}

// ValidateEntityType validates that an EntityType has a known value.
func ValidateEntityType(t EntityType) error {
	switch t {
	case EntityTypePerson, EntityTypeDecision, EntityTypeActionItem,
		EntityTypeRisk, EntityTypeDate, EntityTypeTopic:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidEntityType, t)
	}
}

// ValidateRelationshipType validates that a RelationshipType has a known value.
func ValidateRelationshipType(t RelationshipType) error {
	switch t {
	case RelationSequential, RelationSpeakerContinuity,
		RelationTopicSimilarity, RelationParentChild:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidRelationshipType, t)
	}
}

// ValidateTaskType validates that a TaskType has a known value.
func ValidateTaskType(t TaskType) error {
	switch t {
	case TaskTypeSync, TaskTypeVectorize, TaskTypeWebhookRetry:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidTaskType, t)
	}
}

// ValidateTaskStatus validates that a TaskStatus has a known value.
func ValidateTaskStatus(s TaskStatus) error {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidTaskStatus, s)
	}
}

// ValidateTaskTransition enforces monotonic task status transitions.
// A task may never return from a terminal state, and a processing task may
// only move to completed, failed, or back to pending for a retry.
func ValidateTaskTransition(from, to TaskStatus) error {
	if err := ValidateTaskStatus(from); err != nil {
		return err
	}
	if err := ValidateTaskStatus(to); err != nil {
		return err
	}

	allowed := false
	switch from {
	case TaskStatusPending:
		allowed = to == TaskStatusProcessing
	case TaskStatusProcessing:
		allowed = to == TaskStatusCompleted || to == TaskStatusFailed || to == TaskStatusPending
	case TaskStatusCompleted, TaskStatusFailed:
		allowed = false
	}

	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTaskTransition, from, to)
	}
	return nil
}
