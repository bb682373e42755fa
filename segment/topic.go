package segment

import (
	"regexp"
	"strings"

	"github.com/poiesic/minutia/core"
)

var paragraphSplitRe = regexp.MustCompile(`\n\s*\n`)

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphSplitRe.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// topicSegments greedily accumulates paragraphs until the token target is
// reached, carrying a token-overlap tail from each emitted chunk into the
// next. Guaranteed to produce at least one chunk for non-empty input.
func (s *Segmenter) topicSegments(text string) []core.Chunk {
	var pieces []string
	for _, p := range splitParagraphs(text) {
		pieces = append(pieces, s.splitOversized(p)...)
	}
	if len(pieces) == 0 {
		return nil
	}

	var chunks []core.Chunk
	var current []string
	acc := 0
	fresh := false

	emit := func() {
		chunks = append(chunks, s.topicChunk(current))
		overlap := s.tailWords(strings.Join(current, "\n\n"), s.config.OverlapTokens)
		current = nil
		acc = 0
		fresh = false
		if overlap != "" {
			current = append(current, overlap)
			acc = s.tokenizer.Count(overlap)
		}
	}

	for _, p := range pieces {
		tokens := s.tokenizer.Count(p)
		if fresh && acc+tokens > s.config.MaxTokens {
			emit()
		}
		current = append(current, p)
		acc += tokens
		fresh = true
		if acc >= s.config.TargetTokens {
			emit()
		}
	}
	// The tail may fall below the minimum. A leftover holding only carried
	// overlap is dropped, its content is already in the previous chunk.
	if fresh {
		chunks = append(chunks, s.topicChunk(current))
	}
	return chunks
}

// splitOversized cuts a paragraph over the maximum into word groups near
// the target size.
func (s *Segmenter) splitOversized(p string) []string {
	if s.tokenizer.Count(p) <= s.config.MaxTokens {
		return []string{p}
	}

	words := strings.Fields(p)
	var parts []string
	var cur []string
	acc := 0
	for _, w := range words {
		cur = append(cur, w)
		acc += s.tokenizer.Count(w)
		if acc >= s.config.TargetTokens {
			parts = append(parts, strings.Join(cur, " "))
			cur = nil
			acc = 0
		}
	}
	if len(cur) > 0 {
		parts = append(parts, strings.Join(cur, " "))
	}
	return parts
}

// tailWords returns the trailing words of text amounting to roughly the
// given token budget.
func (s *Segmenter) tailWords(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	tokens := 0
	i := len(words)
	for i > 0 && tokens < budget {
		i--
		tokens += s.tokenizer.Count(words[i])
	}
	if i == 0 {
		// The whole text fits inside the overlap budget; carrying all of it
		// would duplicate the previous chunk.
		return ""
	}
	return strings.Join(words[i:], " ")
}

func (s *Segmenter) topicChunk(parts []string) core.Chunk {
	content := strings.Join(parts, "\n\n")
	return core.Chunk{
		Type:       core.ChunkTypeTopicSegment,
		Content:    content,
		TokenCount: s.tokenizer.Count(content),
	}
}
