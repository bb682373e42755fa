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


package extract

import (
	"strings"

	"github.com/poiesic/minutia/core"
)

const (
	// MaxTextLen is the extraction size ceiling. Longer text is truncated
	// before extraction and the truncation is reported to the caller.
	MaxTextLen = 100_000

	// maxValueLen caps entity values so a runaway sentence match stays readable.
	maxValueLen = 160
)

// Entities extracts structured entities from text. It is deterministic and
// side-effect-free. The second return value reports whether the text was
// truncated to MaxTextLen before extraction; callers seeing true may choose
// to re-run extraction per-chunk instead.
//
// Empty text yields an empty list, not an error.
func Entities(text string) ([]core.ExtractedEntity, bool) {
	truncated := false
	if len(text) > MaxTextLen {
		text = text[:MaxTextLen]
		truncated = true
	}
	if strings.TrimSpace(text) == "" {
		return nil, truncated
	}

	var entities []core.ExtractedEntity

	// Track claimed spans per type so anchored cues shadow keyword fallbacks.
	claimed := make(map[core.EntityType][][2]int)
	seenPerson := make(map[string]bool)

	for _, r := range rules {
		for _, m := range r.pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[0], m[1]
			if overlaps(claimed[r.entityType], start, end) {
				continue
			}

			value := matchValue(text, m)
			if value == "" {
				continue
			}

			if r.entityType == core.EntityTypePerson {
				key := strings.ToLower(value)
				if seenPerson[key] {
					continue
				}
				seenPerson[key] = true
			}

			entity := core.ExtractedEntity{
				Type:       r.entityType,
				Value:      value,
				Confidence: r.confidence,
				Offset:     start,
			}
			if r.entityType == core.EntityTypeActionItem {
				entity.Metadata = actionMetadata(text[start:end])
			}

			entities = append(entities, entity)
			claimed[r.entityType] = append(claimed[r.entityType], [2]int{start, end})
		}
	}

	for _, kw := range topicKeywords(text) {
		entities = append(entities, core.ExtractedEntity{
			Type:       core.EntityTypeTopic,
			Value:      kw.word,
			Confidence: topicConfidence(kw.count),
		})
	}

	return entities, truncated
}

// matchValue picks the last non-empty capture group, falling back to the
// whole match for group-less patterns.
func matchValue(text string, m []int) string {
	value := ""
	for i := len(m) - 2; i >= 2; i -= 2 {
		if m[i] >= 0 {
			value = text[m[i]:m[i+1]]
			break
		}
	}
	if value == "" {
		value = text[m[0]:m[1]]
	}

	value = strings.TrimSpace(strings.Trim(value, ",;"))
	if len(value) > maxValueLen {
		value = strings.TrimSpace(value[:maxValueLen])
	}
	return value
}

// actionMetadata captures assignee and due date from an action-item clause.
func actionMetadata(clause string) map[string]string {
	var meta map[string]string

	if m := actionAssignee.FindStringSubmatch(clause); m != nil {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if name != "" {
			meta = map[string]string{"assignee": name}
		}
	}

	if m := actionDue.FindStringSubmatch(clause); m != nil {
		if meta == nil {
			meta = make(map[string]string)
		}
		meta["due"] = strings.TrimSpace(m[1])
	}

	return meta
}

// topicConfidence scales with repetition count, capped well below cue-based rules.
func topicConfidence(count int) float32 {
	conf := 0.3 + 0.1*float32(count)
	if conf > 0.6 {
		conf = 0.6
	}
	return conf
}

func overlaps(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}
