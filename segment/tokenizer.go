package segment

import (
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer estimates how many model tokens a text occupies.
type Tokenizer interface {
	Count(text string) int
}

const charsPerToken = 4

// HeuristicTokenizer approximates token counts at four characters per token.
// It needs no encoding tables, so it works offline. This is the default.
type HeuristicTokenizer struct{}

// Count returns the estimated token count for text.
func (HeuristicTokenizer) Count(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	n := utf8.RuneCountInString(trimmed)
	count := (n + charsPerToken - 1) / charsPerToken
	if count < 1 {
		count = 1
	}
	return count
}

// TiktokenTokenizer counts tokens with a real BPE encoding.
// Loading an encoding fetches its tables on first use, which is why the
// offline heuristic stays the default.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the named tiktoken encoding, e.g. "cl100k_base".
func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

// Count returns the exact token count for text under the loaded encoding.
func (t *TiktokenTokenizer) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}
