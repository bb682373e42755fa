package segment

import (
	"strings"
	"time"

	"github.com/poiesic/minutia/core"
)

// timeWindows cuts fixed-duration windows over the transcript, advancing by
// (window - overlap) so adjacent windows overlap by exactly the configured
// amount and no line falls in a gap. Lines without a timestamp inherit the
// offset of the nearest preceding timed line, so preamble text lands in the
// first window.
func (s *Segmenter) timeWindows(lines []line) []core.Chunk {
	var content []line
	var last time.Duration
	for _, ln := range lines {
		if strings.TrimSpace(ln.raw) == "" {
			continue
		}
		content = append(content, ln)
		if ln.offset > last {
			last = ln.offset
		}
	}
	if len(content) == 0 {
		return nil
	}

	step := s.config.Window - s.config.WindowOverlap
	var chunks []core.Chunk
	for start := time.Duration(0); start <= last; start += step {
		end := start + s.config.Window
		var span []line
		for _, ln := range content {
			if ln.offset >= start && ln.offset < end {
				span = append(span, ln)
			}
		}
		if len(span) > 0 {
			chunks = append(chunks, core.Chunk{
				Type:        core.ChunkTypeTimeWindow,
				Content:     joinRaw(span),
				StartOffset: start,
				EndOffset:   end,
			})
		}
		if end > last {
			break
		}
	}
	return chunks
}
