package search

import (
	"strings"
	"unicode/utf8"
)

// Stop words to filter out when checking for verbatim matches
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// matchesQuery reports whether a chunk's content matches the query verbatim:
// either the query appears as a substring, or every non-stop-word query term
// appears somewhere in the content.
func matchesQuery(content, query string) bool {
	if strings.Contains(strings.ToLower(content), strings.ToLower(strings.TrimSpace(query))) {
		return true
	}
	return containsAllQueryWords(content, query)
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// containsAllQueryWords checks if all query words (after filtering) appear in the content
func containsAllQueryWords(content, query string) bool {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return false
	}

	contentWords := tokenizeAndFilter(content)
	wordSet := make(map[string]bool, len(contentWords))
	for _, word := range contentWords {
		wordSet[word] = true
	}

	for _, qWord := range queryWords {
		if !wordSet[qWord] {
			return false
		}
	}

	return true
}

// clipHead returns the leading words of content fitting within limit runes.
// A limit of zero keeps the content whole.
func clipHead(content string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(content) <= limit {
		return content
	}

	words := strings.Fields(content)
	if len(words) == 0 {
		return ""
	}
	kept := 0
	used := 0
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		if kept > 0 {
			n++ // joining space
		}
		if used+n > limit {
			break
		}
		used += n
		kept++
	}
	if kept == 0 {
		// The first word alone exceeds the limit.
		return string([]rune(words[0])[:limit])
	}
	return strings.Join(words[:kept], " ")
}

// clipTail is clipHead from the other end: the trailing words of content
// fitting within limit runes.
func clipTail(content string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(content) <= limit {
		return content
	}

	words := strings.Fields(content)
	if len(words) == 0 {
		return ""
	}
	kept := 0
	used := 0
	for i := len(words) - 1; i >= 0; i-- {
		n := utf8.RuneCountInString(words[i])
		if kept > 0 {
			n++ // joining space
		}
		if used+n > limit {
			break
		}
		used += n
		kept++
	}
	if kept == 0 {
		last := []rune(words[len(words)-1])
		return string(last[len(last)-limit:])
	}
	return strings.Join(words[len(words)-kept:], " ")
}
