package extract

import (
	"regexp"

	"github.com/poiesic/minutia/core"
)

// rule is a single declarative extraction pattern. Patterns are tried in
// table order; a match overlapping an earlier match of the same type is
// discarded, so anchored cues shadow their bare-keyword fallbacks.
type rule struct {
	entityType core.EntityType
	pattern    *regexp.Regexp
	confidence float32 // Anchored cue > bare keyword
}

var rules = []rule{
	// Decisions. The anchored "Decision:" form is the strongest signal.
	{core.EntityTypeDecision, regexp.MustCompile(`(?im)\bdecisions?\s*:\s*(.+?)\s*(?:[.!?]|$)`), 0.9},
	{core.EntityTypeDecision, regexp.MustCompile(`(?im)\bwe\s+(?:have\s+)?decided\s+(?:to\s+|that\s+)?(.+?)\s*(?:[.!?]|$)`), 0.85},
	{core.EntityTypeDecision, regexp.MustCompile(`(?im)\b(?:we\s+)?agreed\s+(?:to\s+|that\s+|on\s+)?(.+?)\s*(?:[.!?]|$)`), 0.7},

	// Action items.
	{core.EntityTypeActionItem, regexp.MustCompile(`(?im)\baction\s+items?\s*:?\s*(.+?)\s*(?:[.!?]|$)`), 0.9},
	{core.EntityTypeActionItem, regexp.MustCompile(`(?im)\b([A-Z][a-z]+)\s+will\s+(.+?)\s*(?:[.!?]|$)`), 0.6},
	{core.EntityTypeActionItem, regexp.MustCompile(`(?im)\bfollow(?:ing)?\s+up\s+(?:on\s+|with\s+)?(.+?)\s*(?:[.!?]|$)`), 0.55},

	// Risks.
	{core.EntityTypeRisk, regexp.MustCompile(`(?im)\b(?:risk|blocker)s?\s*:\s*(.+?)\s*(?:[.!?]|$)`), 0.9},
	{core.EntityTypeRisk, regexp.MustCompile(`(?im)\b(?:risk|concern|blocker)s?\s+(?:is|are|that|about|around)\s+(.+?)\s*(?:[.!?]|$)`), 0.7},
	{core.EntityTypeRisk, regexp.MustCompile(`(?im)\b(?:i'?m|we'?re|am|are)\s+(?:worried|concerned)\s+(?:about\s+|that\s+)?(.+?)\s*(?:[.!?]|$)`), 0.65},

	// Dates.
	{core.EntityTypeDate, regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), 0.95},
	{core.EntityTypeDate, regexp.MustCompile(`(?i)\b((?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s*\d{4})?)\b`), 0.8},
	{core.EntityTypeDate, regexp.MustCompile(`(?i)\b(next\s+(?:mon|tues|wednes|thurs|fri|satur|sun)day|end\s+of\s+(?:week|month|quarter))\b`), 0.6},

	// People. Speaker labels and explicit assignments.
	{core.EntityTypePerson, regexp.MustCompile(`(?m)^(?:\[[0-9:.]+\]\s*)?([A-Z][a-zA-Z'-]+(?:\s[A-Z][a-zA-Z'-]+)?)\s*:`), 0.8},
	{core.EntityTypePerson, regexp.MustCompile(`(?i)\bassigned\s+to\s+([A-Z][a-zA-Z'-]+)`), 0.85},
}

// actionAssignee pulls the owner out of an action-item clause.
var actionAssignee = regexp.MustCompile(`\b([A-Z][a-z]+)\s+will\b|(?i:\bassigned\s+to\s+)([A-Z][a-zA-Z]+)`)

// actionDue pulls a due date out of an action-item clause.
var actionDue = regexp.MustCompile(`(?i)\bby\s+((?:\d{4}-\d{2}-\d{2})|(?:(?:mon|tues|wednes|thurs|fri|satur|sun)day)|(?:end\s+of\s+(?:week|month|quarter))|(?:[a-z]+\s+\d{1,2}(?:st|nd|rd|th)?))`)
