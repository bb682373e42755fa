package segment

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/minutia/core"
)

const speakerTranscript = `[00:00] Alice: Good morning everyone, let's get started with the quarterly review.
[00:15] Bob: Thanks Alice, the revenue numbers look solid this quarter overall.
[00:40] Alice: Great. Decision: we will expand the pilot program to Europe.
[01:05] Carol: I am worried about the rollout timeline for the expansion.`

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TargetTokens = 60
	cfg.MinTokens = 1
	cfg.MaxTokens = 120
	cfg.OverlapTokens = 0
	return cfg
}

func newTestSegmenter(t *testing.T, cfg Config) *Segmenter {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func relsOfType(rels []core.ChunkRelationship, rt core.RelationshipType) []core.ChunkRelationship {
	var out []core.ChunkRelationship
	for _, r := range rels {
		if r.Type == rt {
			out = append(out, r)
		}
	}
	return out
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinTokens = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrTokenBudget)
}

func TestSegment_NilDocument(t *testing.T) {
	s := newTestSegmenter(t, testConfig())
	_, err := s.Segment(nil, "text")
	assert.ErrorIs(t, err, ErrNilDocument)
}

func TestSegment_EmptyInput(t *testing.T) {
	s := newTestSegmenter(t, testConfig())
	doc := &core.Document{Id: 1}

	result, err := s.Segment(doc, "   \n\t  ")
	require.NoError(t, err)
	assert.Empty(t, result.Chunks, "empty input yields zero chunks, not an error")
	assert.Empty(t, result.Relationships)
}

func TestSegment_FullChunkAlwaysFirst(t *testing.T) {
	s := newTestSegmenter(t, testConfig())
	doc := &core.Document{Id: 42}

	result, err := s.Segment(doc, speakerTranscript)
	require.NoError(t, err)
	require.NotEmpty(t, result.Chunks)

	full := result.Chunks[0]
	assert.Equal(t, core.ChunkTypeFull, full.Type)
	assert.Equal(t, 0, full.Position)
	assert.Equal(t, speakerTranscript, full.Content, "full chunk carries the source verbatim")
	assert.Equal(t, float32(1.0), full.Importance)
	assert.Equal(t, doc.Id, full.DocumentId)
}

func TestSegment_SpeakerTurns(t *testing.T) {
	s := newTestSegmenter(t, testConfig())
	doc := &core.Document{Id: 42}

	result, err := s.Segment(doc, speakerTranscript)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 5, "full chunk plus one chunk per turn")

	body := result.Chunks[1:]
	speakers := make([]string, len(body))
	for i, c := range body {
		speakers[i] = c.Speaker
		assert.Equal(t, core.ChunkTypeSpeakerTurn, c.Type)
		assert.Equal(t, i+1, c.Position, "positions are strictly increasing")
		assert.Equal(t, result.Chunks[0].Id, c.ParentId)
	}
	assert.Equal(t, []string{"Alice", "Bob", "Alice", "Carol"}, speakers)

	assert.Equal(t, time.Duration(0), body[0].StartOffset)
	assert.Equal(t, 15*time.Second, body[1].StartOffset)
	assert.Equal(t, 40*time.Second, body[2].StartOffset)
	assert.Equal(t, 65*time.Second, body[3].StartOffset)
}

func TestSegment_PrevNextChain(t *testing.T) {
	s := newTestSegmenter(t, testConfig())
	doc := &core.Document{Id: 42}

	result, err := s.Segment(doc, speakerTranscript)
	require.NoError(t, err)
	body := result.Chunks[1:]
	require.Len(t, body, 4)

	assert.Zero(t, body[0].PrevId)
	assert.Zero(t, body[len(body)-1].NextId)
	for i := 1; i < len(body); i++ {
		assert.Equal(t, body[i-1].Id, body[i].PrevId)
		assert.Equal(t, body[i].Id, body[i-1].NextId)
	}
}

func TestSegment_Relationships(t *testing.T) {
	s := newTestSegmenter(t, testConfig())
	doc := &core.Document{Id: 42}

	result, err := s.Segment(doc, speakerTranscript)
	require.NoError(t, err)
	body := result.Chunks[1:]

	sequential := relsOfType(result.Relationships, core.RelationSequential)
	require.Len(t, sequential, 3, "one edge per adjacent pair")
	for i, r := range sequential {
		assert.Equal(t, body[i].Id, r.FromId)
		assert.Equal(t, body[i+1].Id, r.ToId)
	}

	parental := relsOfType(result.Relationships, core.RelationParentChild)
	require.Len(t, parental, 4)
	for _, r := range parental {
		assert.Equal(t, result.Chunks[0].Id, r.FromId)
	}

	continuity := relsOfType(result.Relationships, core.RelationSpeakerContinuity)
	require.Len(t, continuity, 1, "Alice speaks twice with a gap")
	assert.Equal(t, body[0].Id, continuity[0].FromId)
	assert.Equal(t, body[2].Id, continuity[0].ToId)
}

func TestSegment_EntitiesAttached(t *testing.T) {
	s := newTestSegmenter(t, testConfig())
	doc := &core.Document{Id: 42}

	result, err := s.Segment(doc, speakerTranscript)
	require.NoError(t, err)
	body := result.Chunks[1:]

	var decisions, risks int
	for _, e := range body[2].Entities {
		assert.Equal(t, body[2].Id, e.ChunkId)
		if e.Type == core.EntityTypeDecision {
			decisions++
		}
	}
	assert.Equal(t, 1, decisions, "the decision line yields a decision entity")

	for _, e := range body[3].Entities {
		if e.Type == core.EntityTypeRisk {
			risks++
		}
	}
	assert.Equal(t, 1, risks, "the concern line yields a risk entity")

	assert.Greater(t, body[2].Importance, body[1].Importance,
		"a chunk carrying a decision outranks a plain chunk")
}

func TestSegment_Deterministic(t *testing.T) {
	s := newTestSegmenter(t, testConfig())
	doc := &core.Document{Id: 42}

	first, err := s.Segment(doc, speakerTranscript)
	require.NoError(t, err)
	second, err := s.Segment(doc, speakerTranscript)
	require.NoError(t, err)

	require.Len(t, second.Chunks, len(first.Chunks))
	for i := range first.Chunks {
		assert.Equal(t, first.Chunks[i].Id, second.Chunks[i].Id,
			"reprocessing unchanged content yields identical ids")
	}
}

func TestSegment_TimeWindows(t *testing.T) {
	cfg := testConfig()
	cfg.Window = 5 * time.Minute
	cfg.WindowOverlap = time.Minute
	s := newTestSegmenter(t, cfg)
	doc := &core.Document{Id: 7}

	transcript := `[00:00] Kickoff and agenda review.
[02:30] Budget discussion begins.
[05:30] Budget discussion continues with projections.
[08:00] Closing remarks and action items.
[10:00] Meeting ends.`

	result, err := s.Segment(doc, transcript)
	require.NoError(t, err)
	body := result.Chunks[1:]
	require.Len(t, body, 3, "windows advance by window minus overlap")

	starts := []time.Duration{0, 4 * time.Minute, 8 * time.Minute}
	for i, c := range body {
		assert.Equal(t, core.ChunkTypeTimeWindow, c.Type)
		assert.Equal(t, starts[i], c.StartOffset)
		assert.Equal(t, starts[i]+cfg.Window, c.EndOffset)
	}

	assert.Contains(t, body[1].Content, "Closing remarks")
	assert.Contains(t, body[2].Content, "Closing remarks")

	for _, line := range strings.Split(transcript, "\n") {
		found := false
		for _, c := range body {
			if strings.Contains(c.Content, line) {
				found = true
				break
			}
		}
		assert.True(t, found, "no line falls in a gap: %q", line)
	}
}

func TestSegment_TopicFallback(t *testing.T) {
	cfg := testConfig()
	cfg.TargetTokens = 20
	cfg.MaxTokens = 40
	cfg.OverlapTokens = 5
	s := newTestSegmenter(t, cfg)
	doc := &core.Document{Id: 9}

	text := `The migration plan covers the primary database and its replicas in detail.

Replication lag has been acceptable during the last three load tests.

We still need sign-off from the infrastructure team before the cutover date.`

	result, err := s.Segment(doc, text)
	require.NoError(t, err)
	body := result.Chunks[1:]
	require.Len(t, body, 2)

	for _, c := range body {
		assert.Equal(t, core.ChunkTypeTopicSegment, c.Type)
	}
	assert.True(t, strings.HasPrefix(body[1].Content, "three load tests."),
		"overlap tail from the previous chunk starts the next one")

	for _, paragraph := range splitParagraphs(text) {
		found := false
		for _, c := range body {
			if strings.Contains(c.Content, paragraph) {
				found = true
				break
			}
		}
		assert.True(t, found, "paragraph not covered: %q", paragraph)
	}
}

func TestSegment_SparseMarkupDegradesToTopic(t *testing.T) {
	s := newTestSegmenter(t, testConfig())
	doc := &core.Document{Id: 11}

	text := `Alice: only the opening line carries a label here.
The rest of the notes are plain prose without any speaker markup.
More unstructured discussion follows and continues for a while.
Closing summary of the session without attribution.`

	result, err := s.Segment(doc, text)
	require.NoError(t, err)
	require.NotEmpty(t, result.Chunks)
	for _, c := range result.Chunks[1:] {
		assert.Equal(t, core.ChunkTypeTopicSegment, c.Type,
			"minority markup falls back to paragraph accumulation")
	}
}

func TestSegment_OversizedTurnSplit(t *testing.T) {
	cfg := Config{
		TargetTokens:  10,
		MinTokens:     2,
		MaxTokens:     15,
		OverlapTokens: 0,
		Window:        DefaultWindow,
		WindowOverlap: DefaultWindowOverlap,
		Strategy:      StrategySpeakerTurn,
	}
	s := newTestSegmenter(t, cfg)
	doc := &core.Document{Id: 13}

	var sb strings.Builder
	sb.WriteString("Alice: The deployment process has several stages to cover today.\n")
	for i := 0; i < 10; i++ {
		sb.WriteString("We continue with more detail about the deployment process steps.\n")
	}

	result, err := s.Segment(doc, sb.String())
	require.NoError(t, err)
	body := result.Chunks[1:]
	require.Greater(t, len(body), 1, "an oversized turn is split into sub-chunks")

	for i, c := range body {
		assert.Equal(t, "Alice", c.Speaker, "sub-chunks keep the turn's speaker")
		assert.Equal(t, core.ChunkTypeSpeakerTurn, c.Type)
		assert.Equal(t, i+1, c.Position)
	}
}

func TestSegment_OversizedUnbrokenLine(t *testing.T) {
	cfg := Config{
		TargetTokens:  10,
		MinTokens:     2,
		MaxTokens:     15,
		OverlapTokens: 0,
		Window:        DefaultWindow,
		WindowOverlap: DefaultWindowOverlap,
		Strategy:      StrategySpeakerTurn,
	}
	s := newTestSegmenter(t, cfg)
	doc := &core.Document{Id: 19}

	text := "Alice: " + strings.TrimSpace(strings.Repeat("deployment pipeline stages ", 30))

	result, err := s.Segment(doc, text)
	require.NoError(t, err)
	body := result.Chunks[1:]
	require.Greater(t, len(body), 1, "one unbroken line is split into sub-chunks")

	var words []string
	for _, c := range body {
		assert.Equal(t, "Alice", c.Speaker)
		assert.LessOrEqual(t, c.TokenCount, cfg.MaxTokens, "no sub-chunk exceeds the token ceiling")
		words = append(words, strings.Fields(c.Content)...)
	}
	assert.Equal(t, strings.Fields(text), words, "splitting loses no words")
}

func TestSegment_ShortTurnsMerge(t *testing.T) {
	cfg := testConfig()
	cfg.MinTokens = 30
	s := newTestSegmenter(t, cfg)
	doc := &core.Document{Id: 17}

	text := `Alice: Yes.
Bob: Agreed completely.
Alice: Fine.
Carol: Then let us move on to the remaining agenda items for this meeting.`

	result, err := s.Segment(doc, text)
	require.NoError(t, err)
	body := result.Chunks[1:]
	require.NotEmpty(t, body)
	assert.Less(t, len(body), 4, "runs of short turns merge toward the minimum size")
}

func TestImportanceScore(t *testing.T) {
	cfg := DefaultConfig()

	plain := &core.Chunk{TokenCount: 100}
	withDecision := &core.Chunk{
		TokenCount: 100,
		Entities:   []core.ExtractedEntity{{Type: core.EntityTypeDecision}},
	}
	assert.Greater(t, importanceScore(withDecision, cfg), importanceScore(plain, cfg))

	loaded := &core.Chunk{
		TokenCount: 10000,
		Entities: []core.ExtractedEntity{
			{Type: core.EntityTypeDecision},
			{Type: core.EntityTypeRisk},
			{Type: core.EntityTypeActionItem},
		},
	}
	score := importanceScore(loaded, cfg)
	assert.LessOrEqual(t, score, float32(1.0))
	assert.GreaterOrEqual(t, score, float32(0.0))
}

func TestJaccard(t *testing.T) {
	assert.InDelta(t, 1.0/3.0, jaccard([]string{"a", "b"}, []string{"b", "c"}), 1e-6)
	assert.Equal(t, float32(0), jaccard(nil, []string{"a"}))
	assert.Equal(t, float32(0), jaccard([]string{"a"}, nil))
	assert.InDelta(t, 1.0, jaccard([]string{"x", "y"}, []string{"y", "x"}), 1e-6)
}
