package segment

import (
	"github.com/poiesic/minutia/core"
)

const (
	sequentialStrength        = 1.0
	parentChildStrength       = 1.0
	speakerContinuityStrength = 0.8

	// topicSimilarityThreshold is the minimum Jaccard similarity of two
	// chunks' topic sets for a topic-similarity edge.
	topicSimilarityThreshold = 0.2
)

// buildRelationships creates the edge set for one document: a sequential
// edge per adjacent pair, a parent-child edge from the full chunk to every
// body chunk, speaker-continuity edges between successive turns by the same
// speaker, and topic-similarity edges where topic sets overlap enough.
func buildRelationships(full core.Chunk, body []core.Chunk) []core.ChunkRelationship {
	var rels []core.ChunkRelationship

	for i := 1; i < len(body); i++ {
		rels = append(rels, core.ChunkRelationship{
			FromId:   body[i-1].Id,
			ToId:     body[i].Id,
			Type:     core.RelationSequential,
			Strength: sequentialStrength,
		})
	}

	for i := range body {
		rels = append(rels, core.ChunkRelationship{
			FromId:   full.Id,
			ToId:     body[i].Id,
			Type:     core.RelationParentChild,
			Strength: parentChildStrength,
		})
	}

	lastBySpeaker := make(map[string]int)
	for i, c := range body {
		if c.Speaker == "" {
			continue
		}
		if j, ok := lastBySpeaker[c.Speaker]; ok && i-j > 1 {
			rels = append(rels, core.ChunkRelationship{
				FromId:   body[j].Id,
				ToId:     c.Id,
				Type:     core.RelationSpeakerContinuity,
				Strength: speakerContinuityStrength,
			})
		}
		lastBySpeaker[c.Speaker] = i
	}

	for i := range body {
		if len(body[i].Topics) == 0 {
			continue
		}
		for j := i + 1; j < len(body); j++ {
			sim := jaccard(body[i].Topics, body[j].Topics)
			if sim >= topicSimilarityThreshold {
				rels = append(rels, core.ChunkRelationship{
					FromId:   body[i].Id,
					ToId:     body[j].Id,
					Type:     core.RelationTopicSimilarity,
					Strength: sim,
				})
			}
		}
	}

	return rels
}

// jaccard computes |a ∩ b| / |a ∪ b| over two label sets.
func jaccard(a, b []string) float32 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}

	intersection := 0
	seen := make(map[string]bool, len(b))
	for _, s := range b {
		if seen[s] {
			continue
		}
		seen[s] = true
		if set[s] {
			intersection++
		}
	}

	union := len(set) + len(seen) - intersection
	if union == 0 {
		return 0
	}
	return float32(intersection) / float32(union)
}
