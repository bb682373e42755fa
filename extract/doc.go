// Package extract provides deterministic, rule-based entity extraction from
// transcript and document text.
//
// Extraction applies a declarative table of labeled regular-expression rules
// (decisions, action items, risks, dates, people) followed by stop-word
// filtered keyword frequency analysis for topics. Each match carries a
// confidence derived from rule specificity: an anchored cue such as
// "Decision:" scores higher than a bare keyword.
//
// The extractor is a pure function with no dependencies; the segmenter calls
// it per chunk and attaches the results.
package extract
