package extract

import (
	"sort"
	"strings"
)

// Stop words filtered out before keyword frequency counting.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "were": true, "to": true, "of": true, "and": true, "in": true,
	"that": true, "have": true, "has": true, "had": true, "it": true, "for": true,
	"not": true, "on": true, "with": true, "as": true, "you": true, "do": true,
	"at": true, "this": true, "but": true, "by": true, "from": true, "we": true,
	"they": true, "he": true, "she": true, "i": true, "will": true, "would": true,
	"can": true, "could": true, "should": true, "so": true, "if": true, "or": true,
	"our": true, "your": true, "their": true, "its": true, "about": true,
	"just": true, "like": true, "what": true, "when": true, "there": true,
	"going": true, "think": true, "know": true, "yeah": true, "okay": true,
	"right": true, "then": true, "them": true, "been": true, "also": true,
	"some": true, "more": true, "into": true, "because": true, "really": true,
}

const (
	// topKeywords is how many topic entities frequency extraction yields at most.
	topKeywords = 5

	// minKeywordLen filters out short function words the stop list misses.
	minKeywordLen = 4

	// minKeywordCount requires a word to repeat before it counts as a topic.
	minKeywordCount = 2
)

// tokenize splits text into lowercased words with punctuation trimmed.
func tokenize(text string) []string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}*`"))
		if cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

type keyword struct {
	word  string
	count int
}

// topicKeywords returns the top-K stop-word-filtered keywords by frequency.
// Ties are broken alphabetically for determinism.
func topicKeywords(text string) []keyword {
	counts := make(map[string]int)
	for _, word := range tokenize(text) {
		if stopWords[word] || len(word) < minKeywordLen {
			continue
		}
		counts[word]++
	}

	candidates := make([]keyword, 0, len(counts))
	for word, count := range counts {
		if count >= minKeywordCount {
			candidates = append(candidates, keyword{word, count})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].word < candidates[j].word
	})

	if len(candidates) > topKeywords {
		candidates = candidates[:topKeywords]
	}
	return candidates
}
