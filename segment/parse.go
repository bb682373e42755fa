package segment

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timestampRe matches a leading [MM:SS] or [HH:MM:SS] marker, with an
// optional fractional second part.
var timestampRe = regexp.MustCompile(`^\[(\d{1,2}):(\d{2})(?::(\d{2}))?(?:\.\d+)?\]\s*`)

// speakerRe matches a leading "Name:" or "First Last:" label.
var speakerRe = regexp.MustCompile(`^([A-Z][A-Za-z'-]*(?:\s[A-Z][A-Za-z'-]*)?)\s*:\s*`)

// line is one source line with its parsed transcript markup.
// Untimed lines inherit the offset of the nearest preceding timed line.
type line struct {
	raw     string
	text    string
	speaker string
	offset  time.Duration
	timed   bool
}

// parseStats counts markup signals over the non-empty lines, used by
// StrategyAuto to pick a strategy.
type parseStats struct {
	nonempty int
	timed    int
	labeled  int
}

func parseLines(text string) ([]line, parseStats) {
	rawLines := strings.Split(text, "\n")
	lines := make([]line, 0, len(rawLines))

	var stats parseStats
	var lastOffset time.Duration
	for _, raw := range rawLines {
		ln := line{raw: raw, text: raw, offset: lastOffset}

		if m := timestampRe.FindStringSubmatch(ln.text); m != nil {
			ln.offset = parseOffset(m)
			ln.timed = true
			lastOffset = ln.offset
			ln.text = ln.text[len(m[0]):]
		}
		if m := speakerRe.FindStringSubmatch(ln.text); m != nil {
			ln.speaker = m[1]
			ln.text = ln.text[len(m[0]):]
		}

		if strings.TrimSpace(raw) != "" {
			stats.nonempty++
			if ln.timed {
				stats.timed++
			}
			if ln.speaker != "" {
				stats.labeled++
			}
		}
		lines = append(lines, ln)
	}
	return lines, stats
}

// parseOffset converts matched timestamp groups to a duration. Two groups
// read as MM:SS, three as HH:MM:SS.
func parseOffset(m []string) time.Duration {
	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	if m[3] == "" {
		return time.Duration(first)*time.Minute + time.Duration(second)*time.Second
	}
	third, _ := strconv.Atoi(m[3])
	return time.Duration(first)*time.Hour +
		time.Duration(second)*time.Minute +
		time.Duration(third)*time.Second
}
