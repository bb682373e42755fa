package segment

import (
	"strings"
	"time"

	"github.com/poiesic/minutia/core"
)

// turn is a run of consecutive lines attributed to one speaker. Unlabeled
// lines continue the current turn.
type turn struct {
	speaker string
	lines   []line
}

func groupTurns(lines []line) []turn {
	var turns []turn
	for _, ln := range lines {
		if strings.TrimSpace(ln.raw) == "" {
			if len(turns) > 0 {
				turns[len(turns)-1].lines = append(turns[len(turns)-1].lines, ln)
			}
			continue
		}
		if len(turns) == 0 || (ln.speaker != "" && ln.speaker != turns[len(turns)-1].speaker) {
			turns = append(turns, turn{speaker: ln.speaker})
		}
		turns[len(turns)-1].lines = append(turns[len(turns)-1].lines, ln)
	}
	return turns
}

// speakerTurns produces one chunk per turn. Runs of short turns are merged
// until the minimum size is reached, keeping the opening speaker's label;
// a turn over the maximum is split on line boundaries.
func (s *Segmenter) speakerTurns(lines []line) []core.Chunk {
	turns := groupTurns(lines)
	if len(turns) == 0 {
		return nil
	}

	var units []turn
	for _, t := range turns {
		if n := len(units); n > 0 && s.tokenizer.Count(joinRaw(units[n-1].lines)) < s.config.MinTokens {
			units[n-1].lines = append(units[n-1].lines, t.lines...)
			continue
		}
		units = append(units, turn{speaker: t.speaker, lines: append([]line(nil), t.lines...)})
	}

	var chunks []core.Chunk
	for _, u := range units {
		chunks = append(chunks, s.splitTurn(u)...)
	}
	return chunks
}

// splitTurn cuts an oversized turn into sub-chunks near the target size.
// The tail sub-chunk may fall below the minimum.
func (s *Segmenter) splitTurn(t turn) []core.Chunk {
	if s.tokenizer.Count(joinRaw(t.lines)) <= s.config.MaxTokens {
		return []core.Chunk{s.turnChunk(t.speaker, t.lines)}
	}

	var chunks []core.Chunk
	var part []line
	partTokens := 0
	for _, ln := range s.splitLines(t.lines) {
		lineTokens := s.tokenizer.Count(ln.raw)
		if partTokens > 0 &&
			(partTokens >= s.config.TargetTokens || partTokens+lineTokens > s.config.MaxTokens) {
			chunks = append(chunks, s.turnChunk(t.speaker, part))
			part = nil
			partTokens = 0
		}
		part = append(part, ln)
		partTokens += lineTokens
	}
	if partTokens > 0 {
		chunks = append(chunks, s.turnChunk(t.speaker, part))
	}
	return chunks
}

// splitLines word-splits any single line over the maximum, so one unbroken
// line cannot force an oversized sub-chunk.
func (s *Segmenter) splitLines(lines []line) []line {
	out := make([]line, 0, len(lines))
	for _, ln := range lines {
		if s.tokenizer.Count(ln.raw) <= s.config.MaxTokens {
			out = append(out, ln)
			continue
		}
		for i, raw := range s.splitOversized(ln.raw) {
			part := line{raw: raw, text: raw, speaker: ln.speaker}
			if i == 0 {
				part.offset = ln.offset
				part.timed = ln.timed
			}
			out = append(out, part)
		}
	}
	return out
}

func (s *Segmenter) turnChunk(speaker string, lines []line) core.Chunk {
	content := joinRaw(lines)
	c := core.Chunk{
		Type:       core.ChunkTypeSpeakerTurn,
		Content:    content,
		Speaker:    speaker,
		TokenCount: s.tokenizer.Count(content),
	}
	if start, end, ok := timeSpan(lines); ok {
		c.StartOffset = start
		c.EndOffset = end
	}
	return c
}

func joinRaw(lines []line) string {
	raw := make([]string, len(lines))
	for i, ln := range lines {
		raw[i] = ln.raw
	}
	return strings.TrimSpace(strings.Join(raw, "\n"))
}

// timeSpan returns the offsets of the first and last timed lines.
func timeSpan(lines []line) (start, end time.Duration, ok bool) {
	for _, ln := range lines {
		if !ln.timed {
			continue
		}
		if !ok {
			start = ln.offset
			ok = true
		}
		end = ln.offset
	}
	return start, end, ok
}
