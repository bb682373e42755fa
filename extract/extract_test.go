package extract

import (
	"strings"
	"testing"

	"github.com/poiesic/minutia/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entitiesOfType(ents []core.ExtractedEntity, t core.EntityType) []core.ExtractedEntity {
	var out []core.ExtractedEntity
	for _, e := range ents {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestEntities_EmptyText(t *testing.T) {
	ents, truncated := Entities("")
	assert.Empty(t, ents, "empty text yields an empty list, not an error")
	assert.False(t, truncated)

	ents, _ = Entities("   \n\t  ")
	assert.Empty(t, ents)
}

func TestEntities_DecisionAnchoredCue(t *testing.T) {
	ents, _ := Entities("Decision: we will proceed with plan A.")

	decisions := entitiesOfType(ents, core.EntityTypeDecision)
	require.Len(t, decisions, 1, "anchored cue must yield exactly one decision")
	assert.Contains(t, decisions[0].Value, "proceed with plan A")
	assert.InDelta(t, 0.9, decisions[0].Confidence, 0.001)
}

func TestEntities_DecisionCueShadowsKeyword(t *testing.T) {
	// Both the "we decided" and "agreed" patterns could fire on this span;
	// only the more specific one may claim it.
	ents, _ := Entities("We decided to ship on Friday and everyone agreed.")
	decisions := entitiesOfType(ents, core.EntityTypeDecision)
	require.NotEmpty(t, decisions)
	assert.Contains(t, decisions[0].Value, "ship on Friday")
	assert.InDelta(t, 0.85, decisions[0].Confidence, 0.001)
}

func TestEntities_ActionItemWithMetadata(t *testing.T) {
	ents, _ := Entities("Action item: Sarah will send the revised budget by Friday.")

	actions := entitiesOfType(ents, core.EntityTypeActionItem)
	require.NotEmpty(t, actions)
	assert.InDelta(t, 0.9, actions[0].Confidence, 0.001)

	// Assignee and due date land in metadata when the clause carries them.
	found := false
	for _, a := range actions {
		if a.Metadata["assignee"] == "Sarah" {
			found = true
			assert.Contains(t, strings.ToLower(a.Metadata["due"]), "friday")
		}
	}
	assert.True(t, found, "expected an action item attributed to Sarah")
}

func TestEntities_Risk(t *testing.T) {
	ents, _ := Entities("The main risk is that the vendor slips the delivery date.")
	risks := entitiesOfType(ents, core.EntityTypeRisk)
	require.Len(t, risks, 1)
	assert.Contains(t, risks[0].Value, "vendor slips")
}

func TestEntities_Dates(t *testing.T) {
	ents, _ := Entities("Launch is scheduled for 2026-09-15, review on October 3rd.")
	dates := entitiesOfType(ents, core.EntityTypeDate)
	require.Len(t, dates, 2)
	assert.Equal(t, "2026-09-15", dates[0].Value)
	assert.InDelta(t, 0.95, dates[0].Confidence, 0.001)
}

func TestEntities_SpeakerLabels(t *testing.T) {
	text := "[00:01:00] Alice: hello everyone\n[00:01:05] Bob Smith: hi\nAlice: as I was saying"
	ents, _ := Entities(text)
	people := entitiesOfType(ents, core.EntityTypePerson)
	require.Len(t, people, 2, "repeated speakers are deduplicated")

	names := []string{people[0].Value, people[1].Value}
	assert.Contains(t, names, "Alice")
	assert.Contains(t, names, "Bob Smith")
}

func TestEntities_TopicFrequency(t *testing.T) {
	text := strings.Repeat("The migration plan covers the database migration steps. ", 3)
	ents, _ := Entities(text)
	topics := entitiesOfType(ents, core.EntityTypeTopic)
	require.NotEmpty(t, topics)

	var values []string
	for _, topic := range topics {
		values = append(values, topic.Value)
		assert.LessOrEqual(t, topic.Confidence, float32(0.6), "topics never outrank cue-based rules")
	}
	assert.Contains(t, values, "migration")
	assert.NotContains(t, values, "the", "stop words are filtered")
}

func TestEntities_Truncation(t *testing.T) {
	big := strings.Repeat("a", MaxTextLen+100)
	_, truncated := Entities(big)
	assert.True(t, truncated, "oversized text must be reported as truncated")

	_, truncated = Entities("short text")
	assert.False(t, truncated)
}

func TestEntities_Deterministic(t *testing.T) {
	text := "Decision: adopt badger. Risk is that compaction stalls. Sarah will follow up on metrics."
	first, _ := Entities(text)
	second, _ := Entities(text)
	assert.Equal(t, first, second)
}
